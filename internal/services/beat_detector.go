// internal/services/beat_detector.go
package services

import (
	"math"
	"regexp"

	"github.com/Corphon/StoryPulseMCP/internal/models"
)

// beatPatternSet 某一节拍类型的识别规则集合
type beatPatternSet struct {
	beatType models.BeatType
	patterns []*regexp.Regexp
}

// BeatDetector 基于模式规则检测规范叙事节拍
// 模式表在构造时装配一次，之后只读
type BeatDetector struct {
	patternSets []beatPatternSet
}

// NewBeatDetector 创建节拍检测器
func NewBeatDetector() *BeatDetector {
	compile := func(exprs ...string) []*regexp.Regexp {
		out := make([]*regexp.Regexp, 0, len(exprs))
		for _, e := range exprs {
			out = append(out, regexp.MustCompile(`(?i)`+e))
		}
		return out
	}

	return &BeatDetector{
		patternSets: []beatPatternSet{
			{
				// 激励事件: 发现/召唤/威胁
				beatType: models.BeatIncitingIncident,
				patterns: compile(
					`\b(discover(ed|s|y)?|found|learn(ed|s)? (of|about|that))\b`,
					`\b(call(ed)? (to|upon|away)|summon(ed|s)?|invitation|message arrived)\b`,
					`\b(threat(en(ed|s)?)?|danger|warning|attack(ed|s)?|suddenly|unexpected)\b`,
				),
			},
			{
				// 第一情节点: 决断/出发/承诺
				beatType: models.BeatPlotPoint1,
				patterns: compile(
					`\b(decid(ed|es|e)|chose|choice was made|committed|vow(ed)?)\b`,
					`\b(set (out|off)|depart(ed|s)?|left (home|behind)|journey began)\b`,
					`\b(no (turning|going) back|crossed the threshold|point of no return)\b`,
				),
			},
			{
				// 中点: 揭示/背叛/转折
				beatType: models.BeatMidpoint,
				patterns: compile(
					`\b(reveal(ed|s|ation)?|truth (came|was)|realized|understood)\b`,
					`\b(betray(ed|al|s)?|deceiv(ed|es)|lied all along|double.cross)\b`,
					`\b(halfway|midway|everything changed|nothing would be the same)\b`,
				),
			},
			{
				// 第二情节点: 挫败/至暗时刻
				beatType: models.BeatPlotPoint2,
				patterns: compile(
					`\b(all (was|seemed) lost|darkest|despair|hopeless|defeat(ed)?)\b`,
					`\b(setback|fail(ed|ure)?|lost everything|crushed|shattered)\b`,
					`\b(last chance|final hope|one (way|chance) left)\b`,
				),
			},
			{
				// 高潮: 最终对决
				beatType: models.BeatClimax,
				patterns: compile(
					`\b(final(ly)? (battle|confrontation|stand|showdown)|climax)\b`,
					`\b(confront(ed|ation)?|face(d)? (off|him|her|them|the)|showdown|duel)\b`,
					`\b(decisive|ultimate|once and for all|the end (came|was near))\b`,
				),
			},
		},
	}
}

// Detect 对有序文本单元执行节拍检测
// 每种类型保留与规范期望位置距离最小的候选
func (d *BeatDetector) Detect(segments []Segment) []models.NarrativeBeat {
	beats := make([]models.NarrativeBeat, 0, len(d.patternSets))

	for _, set := range d.patternSets {
		expected := models.ExpectedBeatPositions[set.beatType]
		best, found := d.bestCandidate(set, segments, expected)
		if found {
			beats = append(beats, best)
		}
	}
	return beats
}

// bestCandidate 纯归约: 在所有匹配候选中选取距期望位置最近的一个
func (d *BeatDetector) bestCandidate(set beatPatternSet, segments []Segment, expected float64) (models.NarrativeBeat, bool) {
	var best models.NarrativeBeat
	bestDist := math.MaxFloat64
	found := false

	for _, seg := range segments {
		hits := 0
		for _, re := range set.patterns {
			if re.MatchString(seg.Text) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}

		dist := math.Abs(seg.Position - expected)
		if dist < bestDist {
			bestDist = dist
			best = models.NarrativeBeat{
				Type:       set.beatType,
				Position:   seg.Position,
				Confidence: beatConfidence(hits, dist),
				Excerpt:    excerpt(seg.Text, 160),
			}
			found = true
		}
	}
	return best, found
}

// beatConfidence 质量分 = 基础0.5 + 每个命中模式0.1，再按位置偏差扣减
func beatConfidence(hits int, dist float64) float64 {
	quality := 0.5 + 0.1*float64(hits)
	return clamp(quality-2*dist, 0.1, 0.95)
}

func excerpt(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen]) + "..."
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
