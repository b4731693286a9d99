// internal/services/tension_service.go
package services

import (
	"fmt"
	"math"
	"strings"

	"github.com/Corphon/StoryPulseMCP/internal/errors"
	"github.com/Corphon/StoryPulseMCP/internal/models"
	"github.com/Corphon/StoryPulseMCP/internal/utils"
)

// tensionVocabulary 张力关键词表，构造时装配一次
type tensionVocabulary struct {
	high   []string
	medium []string
	low    []string
}

// TensionCurveEngine 根据内容关键词、基础张力与故事位置计算逐节拍张力
type TensionCurveEngine struct {
	vocab  tensionVocabulary
	rhythm *RhythmAnalyzer
	genres GenreResolver
	logger *utils.Logger
}

// GenreResolver 按小写 id 解析类型模板
type GenreResolver interface {
	Resolve(genre string) (*models.GenreTemplate, bool)
}

// NewTensionCurveEngine 创建张力曲线引擎
func NewTensionCurveEngine(genres GenreResolver) *TensionCurveEngine {
	return &TensionCurveEngine{
		vocab: tensionVocabulary{
			high: []string{
				"danger", "threat", "fear", "panic", "terror", "urgent",
				"desperate", "crisis", "attack", "death", "kill", "blood",
				"scream", "fight", "battle", "chase", "explode",
			},
			medium: []string{
				"worried", "concerned", "anxious", "nervous", "tense",
				"pressure", "conflict", "argue", "risk", "secret", "suspicious",
			},
			low: []string{
				"calm", "peaceful", "relaxed", "comfortable", "safe",
				"serene", "quiet", "rest", "gentle", "warm",
			},
		},
		rhythm: NewRhythmAnalyzer(),
		genres: genres,
		logger: utils.GetLogger(),
	}
}

// Calculate 计算节拍序列的完整节奏分析
// genre 可选: 提供时会对照该类型模板的节奏曲线给出符合度
func (e *TensionCurveEngine) Calculate(beats []models.InputBeat, genre string) (*models.PacingAnalysis, error) {
	if len(beats) == 0 {
		return nil, errors.WrapAnalysis("pacing calculation failed",
			errors.NewValidationError("narrative_beats must not be empty", nil))
	}

	curve := make([]float64, len(beats))
	for i, beat := range beats {
		curve[i] = e.beatTension(beat, i, len(beats))
	}

	rhythm := e.rhythm.Analyze(beats, curve)
	arcScore := arcShapeScore(curve)
	pacingScore := 0.4*rhythm.RhythmScore + 0.3*rhythm.VariationScore + 0.3*arcScore

	analysis := &models.PacingAnalysis{
		TensionCurve:    curve,
		PacingScore:     pacingScore,
		Rhythm:          rhythm,
		Recommendations: e.recommendations(beats, curve, rhythm),
		ConfidenceScore: e.confidence(beats, curve),
	}

	if genre != "" && e.genres != nil {
		if tmpl, ok := e.genres.Resolve(genre); ok {
			analysis.GenreCompliance = e.genreCompliance(curve, tmpl)
		}
	}

	e.logger.Debug("pacing calculated", map[string]interface{}{
		"beats": len(beats),
		"score": pacingScore,
	})
	return analysis, nil
}

// beatTension 单节拍最终张力 = 0.3*基础 + 0.5*内容 + 0.2*位置
func (e *TensionCurveEngine) beatTension(beat models.InputBeat, index, total int) float64 {
	content := e.contentTension(beat.Description)
	positional := positionalTension(beatPosition(beat, index, total))
	final := 0.3*beat.BaseTension() + 0.5*content + 0.2*positional
	return clamp(final, 0.0, 1.0)
}

// contentTension 内容张力: 基础0.5，高类命中+0.15，中类+0.05，低类-0.05
func (e *TensionCurveEngine) contentTension(description string) float64 {
	words := strings.Fields(strings.ToLower(description))
	high := countVocabularyHits(words, e.vocab.high)
	medium := countVocabularyHits(words, e.vocab.medium)
	low := countVocabularyHits(words, e.vocab.low)

	tension := 0.5 + 0.15*float64(high) + 0.05*float64(medium) - 0.05*float64(low)
	return clamp(tension, 0.1, 1.0)
}

// countVocabularyHits 每个词在一个类别内最多计数一次
func countVocabularyHits(words, vocabulary []string) int {
	hits := 0
	for _, word := range words {
		for _, kw := range vocabulary {
			if strings.Contains(word, kw) {
				hits++
				break
			}
		}
	}
	return hits
}

// beatPosition 节拍归一化位置: 优先使用调用方提供的值
func beatPosition(beat models.InputBeat, index, total int) float64 {
	if beat.Position != nil {
		return clamp(*beat.Position, 0.0, 1.0)
	}
	if total <= 1 {
		return 0.5
	}
	return float64(index) / float64(total-1)
}

// positionalTension 位置张力的固定分段函数
// 断点与系数是既定契约，下游测试依赖精确的曲线取值，不得平滑化
func positionalTension(p float64) float64 {
	switch {
	case p <= 0.25:
		return 0.3 + 0.8*p
	case p <= 0.5:
		return 0.5 + 1.2*(p-0.25)
	case p <= 0.75:
		return 0.8 + 0.8*(p-0.5)
	default:
		return 1.0 - 1.6*(p-0.75)
	}
}

// arcShapeScore 弧形分: 中段均值高于首段、尾段低于中段时各加0.25
func arcShapeScore(curve []float64) float64 {
	score := 0.5
	first, middle, last := splitThirds(curve)
	if len(first) > 0 && len(middle) > 0 && mean(middle) > mean(first) {
		score += 0.25
	}
	if len(middle) > 0 && len(last) > 0 && mean(last) < mean(middle) {
		score += 0.25
	}
	return score
}

func splitThirds(curve []float64) (first, middle, last []float64) {
	n := len(curve)
	a := (n + 2) / 3
	b := (2*n + 2) / 3
	if a > n {
		a = n
	}
	if b > n {
		b = n
	}
	return curve[:a], curve[a:b], curve[b:]
}

// recommendations 有序生成改进建议，最多5条
func (e *TensionCurveEngine) recommendations(beats []models.InputBeat, curve []float64, rhythm models.RhythmAnalysis) []string {
	recs := make([]string, 0, 5)
	add := func(msg string) {
		if len(recs) < 5 {
			recs = append(recs, msg)
		}
	}

	lo, hi := minMax(curve)
	if hi-lo < 0.3 {
		add("Add more tension variation between beats to avoid a flat reading experience")
	}

	climaxPos := climaxPosition(curve)
	if climaxPos < 0.6 {
		add("Move the tension climax later in the story to sustain momentum")
	} else if climaxPos > 0.9 {
		add("Leave more resolution space after the climax before the story ends")
	}

	total := float64(len(beats))
	if float64(rhythm.FastSections)/total > 0.5 {
		add("Add slower, reflective moments to balance the fast pacing")
	}
	if float64(rhythm.SlowSections)/total > 0.5 {
		add("Add urgency to the slower sections to keep readers engaged")
	}

	if flat := flatWindowCount(curve); flat > 0 {
		add(flatWindowMessage(flat))
	}

	if rhythm.VariationScore < 0.4 {
		add("Alternate high and low tension beats to improve variation across the story")
	}

	return recs
}

func flatWindowMessage(count int) string {
	if count == 1 {
		return "Found 1 flat stretch of three consecutive beats with nearly identical tension"
	}
	return fmt.Sprintf("Found %d flat stretches of three consecutive beats with nearly identical tension", count)
}

// climaxPosition 最大张力点在曲线中的归一化位置
func climaxPosition(curve []float64) float64 {
	if len(curve) <= 1 {
		return 0.5
	}
	maxIdx := 0
	for i, v := range curve {
		if v > curve[maxIdx] {
			maxIdx = i
		}
	}
	return float64(maxIdx) / float64(len(curve)-1)
}

// flatWindowCount 统计 max-min < 0.1 的三节拍窗口数
func flatWindowCount(curve []float64) int {
	count := 0
	for i := 0; i+2 < len(curve); i++ {
		window := curve[i : i+3]
		lo, hi := minMax(window)
		if hi-lo < 0.1 {
			count++
		}
	}
	return count
}

// confidence 置信度: 基础0.7，按节拍数量与描述质量调整
func (e *TensionCurveEngine) confidence(beats []models.InputBeat, curve []float64) float64 {
	confidence := 0.7

	switch {
	case len(beats) >= 10:
		confidence += 0.1
	case len(beats) >= 5:
		confidence += 0.05
	}
	if len(beats) < 3 {
		confidence -= 0.2
	}

	detailed := 0
	for _, b := range beats {
		if len(b.Description) > 50 {
			detailed++
		}
	}
	if float64(detailed)/float64(len(beats)) > 0.7 {
		confidence += 0.1
	}

	distinct := make(map[float64]struct{}, len(curve))
	for _, v := range curve {
		distinct[v] = struct{}{}
	}
	if len(distinct)*2 > len(curve) {
		confidence += 0.05
	}

	return clamp(confidence, 0.1, 0.95)
}

// genreCompliance 对照类型模板节奏曲线计算符合度
func (e *TensionCurveEngine) genreCompliance(curve []float64, tmpl *models.GenreTemplate) *models.GenreCompliance {
	expected := tmpl.PacingProfile.Curve
	if len(expected) == 0 {
		return nil
	}

	resampled := ResampleCurve(curve, len(expected))
	var diff float64
	for i, v := range resampled {
		diff += math.Abs(v - expected[i])
	}
	score := clamp(1.0-diff/float64(len(expected)), 0.0, 1.0)

	return &models.GenreCompliance{
		Genre:   tmpl.ID,
		Profile: tmpl.PacingProfile.Name,
		Score:   score,
		Matched: score >= 0.75,
	}
}

// ResampleCurve 将曲线按分块平均重采样到目标长度
func ResampleCurve(curve []float64, target int) []float64 {
	if target <= 0 || len(curve) <= target {
		out := make([]float64, len(curve))
		copy(out, curve)
		return out
	}

	out := make([]float64, 0, target)
	chunk := float64(len(curve)) / float64(target)
	for i := 0; i < target; i++ {
		start := int(float64(i) * chunk)
		end := int(float64(i+1) * chunk)
		if end > len(curve) {
			end = len(curve)
		}
		if start >= end {
			start = end - 1
		}
		out = append(out, mean(curve[start:end]))
	}
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var variance float64
	for _, v := range values {
		variance += (v - m) * (v - m)
	}
	return math.Sqrt(variance / float64(len(values)))
}

func minMax(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
