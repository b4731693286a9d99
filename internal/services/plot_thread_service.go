// internal/services/plot_thread_service.go
package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/Corphon/StoryPulseMCP/internal/errors"
	"github.com/Corphon/StoryPulseMCP/internal/models"
)

const (
	mainThreadConfidence = 0.85
	subplotConfidence    = 0.70
	characterConfidence  = 0.75

	// 角色线最多取出现频次最高的前5个名字
	maxCharacterThreads = 5
	maxKeyMoments       = 3

	// 生命周期状态阈值: 末次出现位置
	climaxThreshold     = 0.75
	developingThreshold = 0.4
	// 收束证据只在故事后40%内计数
	resolutionWindow = 0.6
)

// subplotIndicator 某一类支线的识别规则
type subplotIndicator struct {
	id      string
	title   string
	pattern *regexp.Regexp
}

// PlotThreadTracker 从原始文本中提取情节线并追踪其生命周期
// 全部模式表在构造时装配一次，之后只读
type PlotThreadTracker struct {
	segmenter         *TextSegmenter
	mainPatterns      []*regexp.Regexp
	subplotIndicators []subplotIndicator
	resolutionPattern *regexp.Regexp
	growthPattern     *regexp.Regexp
	fallPattern       *regexp.Regexp
	namePattern       *regexp.Regexp
	nameStopwords     map[string]bool
}

// NewPlotThreadTracker 创建情节线追踪器
func NewPlotThreadTracker() *PlotThreadTracker {
	compile := func(expr string) *regexp.Regexp {
		return regexp.MustCompile(`(?i)` + expr)
	}

	stopwords := map[string]bool{}
	for _, w := range []string{
		"The", "And", "But", "She", "His", "Her", "They", "Then", "When",
		"After", "Before", "With", "That", "This", "There", "Once", "Now",
		"What", "Where", "While", "Though", "Yet", "For", "Not", "Was",
	} {
		stopwords[w] = true
	}

	return &PlotThreadTracker{
		segmenter: NewTextSegmenter(),
		mainPatterns: []*regexp.Regexp{
			compile(`\b(must|had to|needed to|sworn to|vowed to)\b`),
			compile(`\b(quest|mission|goal|conflict|stop|save|defeat|protect)\b`),
			compile(`\b(protagonist|hero(ine)?|against all odds)\b`),
		},
		subplotIndicators: []subplotIndicator{
			{id: "romance", title: "Romance Subplot",
				pattern: compile(`\b(love(d)?|romance|kiss(ed)?|heart ached|fell for|affection)\b`)},
			{id: "friendship", title: "Friendship Subplot",
				pattern: compile(`\b(friend(ship|s)?|ally|allies|loyal(ty)?|companion)\b`)},
			{id: "family", title: "Family Subplot",
				pattern: compile(`\b(family|father|mother|brother|sister|son|daughter)\b`)},
			{id: "rivalry", title: "Rivalry Subplot",
				pattern: compile(`\b(rival(ry)?|jealous(y)?|competition|outdo|envied)\b`)},
		},
		resolutionPattern: compile(`\b(resolved|reunited|at (last|peace)|finally|settled|forgave|safe at last|came home|was over)\b`),
		growthPattern:     compile(`\b(learn(ed|s)?|grew|changed|became|realiz(ed|es)|overcame|understood)\b`),
		fallPattern:       compile(`\b(fell apart|lost everything|succumbed|gave in|broke down|bitter(ness)?|descended)\b`),
		namePattern:       regexp.MustCompile(`^[A-Z][a-z]{2,}$`),
		nameStopwords:     stopwords,
	}
}

// Track 提取情节线、角色弧与线间交互
// focus 取值 main/subplot/character/all，空值按 all 处理
func (t *PlotThreadTracker) Track(text, focus string) (*models.ThreadReport, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.WrapAnalysis("plot thread analysis failed",
			errors.NewValidationError("story_content must not be empty", nil))
	}

	focus = strings.ToLower(strings.TrimSpace(focus))
	if focus == "" {
		focus = "all"
	}
	switch focus {
	case "main", "subplot", "character", "all":
	default:
		return nil, errors.WrapAnalysis("plot thread analysis failed",
			errors.NewValidationError(fmt.Sprintf("unknown thread_focus %q", focus), nil))
	}

	segments := t.segmenter.Segment(text)
	names := t.extractCharacterNames(segments)

	threads := make([]models.PlotThread, 0, 2+len(names))
	if focus == "main" || focus == "all" {
		if thread, ok := t.mainThread(segments, names); ok {
			threads = append(threads, thread)
		}
	}
	if focus == "subplot" || focus == "all" {
		threads = append(threads, t.subplotThreads(segments, names)...)
	}
	if focus == "character" || focus == "all" {
		threads = append(threads, t.characterThreads(segments, names)...)
	}

	arcs := t.characterArcs(segments, names)
	interactions := t.threadInteractions(threads)
	lifecycle := t.lifecycle(threads)
	confidence := t.overallConfidence(threads, arcs)

	return &models.ThreadReport{
		ThreadFocus:     focus,
		Threads:         threads,
		CharacterArcs:   arcs,
		Interactions:    interactions,
		Lifecycle:       lifecycle,
		Recommendations: t.recommendations(threads, arcs, confidence),
		Confidence:      confidence,
	}, nil
}

// extractCharacterNames 统计句中非句首的专有名词，取频次最高的前几个
func (t *PlotThreadTracker) extractCharacterNames(segments []Segment) []string {
	counts := map[string]int{}
	sentenceSplit := regexp.MustCompile(`[.!?]+`)

	for _, seg := range segments {
		for _, sentence := range sentenceSplit.Split(seg.Text, -1) {
			words := strings.Fields(sentence)
			for i, w := range words {
				if i == 0 {
					continue // 句首大写不可靠
				}
				w = strings.Trim(w, `,;:"'()`)
				if t.namePattern.MatchString(w) && !t.nameStopwords[w] {
					counts[w]++
				}
			}
		}
	}

	names := make([]string, 0, len(counts))
	for name, n := range counts {
		if n >= 2 {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		if counts[names[i]] != counts[names[j]] {
			return counts[names[i]] > counts[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > maxCharacterThreads {
		names = names[:maxCharacterThreads]
	}
	return names
}

// mainThread 按主线关键词提取主线; 任一模式命中即成立
func (t *PlotThreadTracker) mainThread(segments []Segment, names []string) (models.PlotThread, bool) {
	matched := t.matchingSegments(segments, func(text string) bool {
		for _, re := range t.mainPatterns {
			if re.MatchString(text) {
				return true
			}
		}
		return false
	})
	if len(matched) == 0 {
		return models.PlotThread{}, false
	}

	return t.buildThread("main_plot", models.ThreadMainPlot, "Main Plot Thread",
		"Primary storyline driving the protagonist toward the central goal",
		matched, names, mainThreadConfidence), true
}

// subplotThreads 按指示词表逐类提取支线
func (t *PlotThreadTracker) subplotThreads(segments []Segment, names []string) []models.PlotThread {
	threads := make([]models.PlotThread, 0, len(t.subplotIndicators))
	for _, ind := range t.subplotIndicators {
		matched := t.matchingSegments(segments, ind.pattern.MatchString)
		if len(matched) == 0 {
			continue
		}
		threads = append(threads, t.buildThread(
			"subplot_"+ind.id, models.ThreadSubplot, ind.title,
			"Secondary storyline centered on "+ind.id,
			matched, names, subplotConfidence))
	}
	return threads
}

// characterThreads 为每个高频角色名建立一条成长线
func (t *PlotThreadTracker) characterThreads(segments []Segment, names []string) []models.PlotThread {
	threads := make([]models.PlotThread, 0, len(names))
	for _, name := range names {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
		matched := t.matchingSegments(segments, re.MatchString)
		if len(matched) == 0 {
			continue
		}
		thread := t.buildThread(
			"character_"+strings.ToLower(name), models.ThreadCharacterArc,
			name+" Character Arc",
			"Development arc for "+name,
			matched, nil, characterConfidence)
		thread.Characters = []string{name}
		threads = append(threads, thread)
	}
	return threads
}

// buildThread 从命中的文本单元组装一条情节线
func (t *PlotThreadTracker) buildThread(id string, threadType models.ThreadType,
	title, description string, matched []Segment, names []string, confidence float64) models.PlotThread {

	first := matched[0].Position
	last := matched[len(matched)-1].Position

	moments := make([]string, 0, maxKeyMoments)
	for _, seg := range matched {
		if len(moments) == maxKeyMoments {
			break
		}
		moments = append(moments, excerpt(seg.Text, 120))
	}

	return models.PlotThread{
		ID:           id,
		Type:         threadType,
		Title:        title,
		Description:  description,
		Status:       t.threadStatus(matched, last),
		Characters:   t.namesInSegments(matched, names),
		FirstMention: first,
		LastMention:  last,
		Coverage:     last - first,
		Confidence:   confidence,
		KeyMoments:   moments,
	}
}

// threadStatus 生命周期判定: 后段出现收束证据为已收束，
// 否则按末次出现位置划分 climaxing/developing/introduced
func (t *PlotThreadTracker) threadStatus(matched []Segment, last float64) models.ThreadStatus {
	for _, seg := range matched {
		if seg.Position >= resolutionWindow && t.resolutionPattern.MatchString(seg.Text) {
			return models.ThreadResolved
		}
	}
	switch {
	case last >= climaxThreshold:
		return models.ThreadClimaxing
	case last >= developingThreshold:
		return models.ThreadDeveloping
	default:
		return models.ThreadIntroduced
	}
}

// namesInSegments 返回在命中单元中出现过的角色名，保持输入顺序
func (t *PlotThreadTracker) namesInSegments(matched []Segment, names []string) []string {
	var present []string
	for _, name := range names {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
		for _, seg := range matched {
			if re.MatchString(seg.Text) {
				present = append(present, name)
				break
			}
		}
	}
	return present
}

// characterArcs 为每个角色判定弧线类型与所处阶段
func (t *PlotThreadTracker) characterArcs(segments []Segment, names []string) []models.CharacterArc {
	arcs := make([]models.CharacterArc, 0, len(names))
	for _, name := range names {
		re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
		matched := t.matchingSegments(segments, re.MatchString)
		if len(matched) == 0 {
			continue
		}

		arcType := "steady"
		for _, seg := range matched {
			if t.fallPattern.MatchString(seg.Text) {
				arcType = "fall"
				break
			}
			if t.growthPattern.MatchString(seg.Text) {
				arcType = "growth"
			}
		}

		moments := make([]string, 0, maxKeyMoments)
		for _, seg := range matched {
			if len(moments) == maxKeyMoments {
				break
			}
			moments = append(moments, excerpt(seg.Text, 120))
		}

		arcs = append(arcs, models.CharacterArc{
			Name:       name,
			ArcType:    arcType,
			Stage:      t.threadStatus(matched, matched[len(matched)-1].Position),
			KeyMoments: moments,
		})
	}
	return arcs
}

// threadInteractions 两两比较角色重叠，强度 = 交集 / 较大角色集
func (t *PlotThreadTracker) threadInteractions(threads []models.PlotThread) []models.ThreadInteraction {
	var interactions []models.ThreadInteraction
	for i := 0; i < len(threads); i++ {
		for j := i + 1; j < len(threads); j++ {
			a, b := threads[i], threads[j]
			if len(a.Characters) == 0 || len(b.Characters) == 0 {
				continue
			}

			inB := map[string]bool{}
			for _, name := range b.Characters {
				inB[name] = true
			}
			var shared []string
			for _, name := range a.Characters {
				if inB[name] {
					shared = append(shared, name)
				}
			}
			if len(shared) == 0 {
				continue
			}

			larger := len(a.Characters)
			if len(b.Characters) > larger {
				larger = len(b.Characters)
			}
			interactions = append(interactions, models.ThreadInteraction{
				ThreadA:          a.ID,
				ThreadB:          b.ID,
				InteractionType:  "character_overlap",
				SharedCharacters: shared,
				Strength:         float64(len(shared)) / float64(larger),
			})
		}
	}
	return interactions
}

// lifecycle 汇总全部情节线的阶段分布与收束率
func (t *PlotThreadTracker) lifecycle(threads []models.PlotThread) models.ThreadLifecycle {
	stages := map[string][]string{
		"introduction": {},
		"development":  {},
		"climax":       {},
		"resolution":   {},
	}
	for _, thread := range threads {
		switch thread.Status {
		case models.ThreadResolved:
			stages["resolution"] = append(stages["resolution"], thread.ID)
		case models.ThreadClimaxing:
			stages["climax"] = append(stages["climax"], thread.ID)
		case models.ThreadDeveloping:
			stages["development"] = append(stages["development"], thread.ID)
		default:
			stages["introduction"] = append(stages["introduction"], thread.ID)
		}
	}

	total := len(threads)
	completionRate := 0.0
	if total > 0 {
		completionRate = float64(len(stages["resolution"])) / float64(total)
	}

	return models.ThreadLifecycle{
		Stages:         stages,
		CompletionRate: completionRate,
		ActiveThreads:  len(stages["development"]) + len(stages["climax"]),
		BalanceScore:   stageBalance(stages),
	}
}

// stageBalance 阶段分布越均匀得分越高: 1 - 方差/均值²，截断到 [0,1]
func stageBalance(stages map[string][]string) float64 {
	counts := make([]float64, 0, len(stages))
	total := 0.0
	for _, ids := range stages {
		counts = append(counts, float64(len(ids)))
		total += float64(len(ids))
	}
	if total == 0 {
		return 1.0
	}

	mean := total / float64(len(counts))
	variance := 0.0
	for _, c := range counts {
		variance += (c - mean) * (c - mean)
	}
	variance /= float64(len(counts))

	return clamp(1.0-variance/(mean*mean), 0.0, 1.0)
}

// overallConfidence 基础分为各线均值，角色弧与线数量各带上限加成
func (t *PlotThreadTracker) overallConfidence(threads []models.PlotThread, arcs []models.CharacterArc) float64 {
	if len(threads) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, thread := range threads {
		sum += thread.Confidence
	}
	base := sum / float64(len(threads))

	arcBonus := 0.1 * float64(len(arcs))
	if arcBonus > 0.2 {
		arcBonus = 0.2
	}
	threadBonus := 0.05 * float64(len(threads))
	if threadBonus > 0.15 {
		threadBonus = 0.15
	}

	return clamp(base+arcBonus+threadBonus, 0.0, 1.0)
}

// recommendations 按固定顺序产出改进建议; 无可改进项时给出正向结论
func (t *PlotThreadTracker) recommendations(threads []models.PlotThread,
	arcs []models.CharacterArc, confidence float64) []string {

	var recs []string
	if confidence < 0.75 {
		recs = append(recs, "Clarify how the plot threads connect and what drives each character")
	}
	if len(threads) < 2 {
		recs = append(recs, "Add a subplot or secondary storyline for narrative depth")
	}
	if len(arcs) < 3 {
		recs = append(recs, "Develop more character arcs to strengthen reader engagement")
	}

	unresolved := 0
	for _, thread := range threads {
		if thread.Status != models.ThreadResolved {
			unresolved++
		}
	}
	if len(threads) > 0 && float64(unresolved) > 0.7*float64(len(threads)) {
		recs = append(recs, "Plan resolutions for the open plot threads to avoid loose ends")
	}

	if len(recs) == 0 {
		recs = append(recs, "Plot thread structure is well balanced")
	}
	return recs
}

func (t *PlotThreadTracker) matchingSegments(segments []Segment, match func(string) bool) []Segment {
	var matched []Segment
	for _, seg := range segments {
		if match(seg.Text) {
			matched = append(matched, seg)
		}
	}
	return matched
}
