// internal/services/structure_service.go
package services

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Corphon/StoryPulseMCP/internal/errors"
	"github.com/Corphon/StoryPulseMCP/internal/models"
	"github.com/Corphon/StoryPulseMCP/internal/utils"
)

// 三幕的默认边界与用途
const (
	defaultActOneEnd = 0.25
	defaultActTwoEnd = 0.75

	maxKeyEventsPerAct = 3
	maxCurvePoints     = 10
)

// StructureAnalyzer 从原始文本装配三幕结构、转折点与幕级置信度
type StructureAnalyzer struct {
	segmenter *TextSegmenter
	detector  *BeatDetector
	tension   *TensionCurveEngine
	genres    GenreResolver
	logger    *utils.Logger

	actionVerbs     *regexp.Regexp
	sentenceSplit   *regexp.Regexp
	warningKeywords map[string][]string
}

// NewStructureAnalyzer 创建结构分析器
func NewStructureAnalyzer(tension *TensionCurveEngine, genres GenreResolver) *StructureAnalyzer {
	return &StructureAnalyzer{
		segmenter:     NewTextSegmenter(),
		detector:      NewBeatDetector(),
		tension:       tension,
		genres:        genres,
		logger:        utils.GetLogger(),
		actionVerbs:   regexp.MustCompile(`(?i)\b(discover|find|found|decide|fight|fought|escape|meet|met|arrive|leave|left)`),
		sentenceSplit: regexp.MustCompile(`[.!?]+`),
		warningKeywords: map[string][]string{
			"violence": {"blood", "murder", "stabbed", "gun", "knife", "beaten", "torture"},
			"death":    {"died", "death", "corpse", "funeral", "killed"},
		},
	}
}

// Analyze 对原始故事文本执行完整的三幕结构分析
// 前置条件: 文本去空白后非空，genre 必须能在类型模板表中解析
func (s *StructureAnalyzer) Analyze(text, genre string) (*models.StoryArc, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, errors.WrapAnalysis("story structure analysis failed",
			errors.NewValidationError("story_content must not be empty", nil))
	}

	tmpl, ok := s.genres.Resolve(genre)
	if !ok {
		return nil, errors.WrapAnalysis("story structure analysis failed",
			errors.NewLookupError(fmt.Sprintf("unknown genre: %q", genre), nil))
	}

	segments := s.segmenter.Segment(trimmed)
	beats := s.detector.Detect(segments)

	actStructure := s.buildActStructure(segments, beats)
	pacing := s.buildPacingProfile(segments)

	arc := &models.StoryArc{
		ID:              uuid.NewString(),
		Genre:           tmpl.ID,
		Title:           storyTitle(trimmed),
		ActStructure:    actStructure,
		PacingAnalysis:  pacing,
		ContentWarnings: s.contentWarnings(trimmed, segments, beats),
		ConfidenceScore: s.overallConfidence(actStructure, beats),
		Status:          models.ArcStatusAnalyzed,
	}

	s.logger.Info("story structure analyzed", map[string]interface{}{
		"genre":      tmpl.ID,
		"segments":   len(segments),
		"beats":      len(beats),
		"confidence": arc.ConfidenceScore,
	})
	return arc, nil
}

// buildActStructure 由检测到的情节点推导幕边界并装配转折点
func (s *StructureAnalyzer) buildActStructure(segments []Segment, beats []models.NarrativeBeat) models.ActStructure {
	boundary1, boundary2 := defaultActOneEnd, defaultActTwoEnd
	for _, b := range beats {
		switch b.Type {
		case models.BeatPlotPoint1:
			boundary1 = b.Position
		case models.BeatPlotPoint2:
			boundary2 = b.Position
		}
	}
	// 检测结果违反边界单调性时回退到默认划分
	if boundary2 < boundary1 {
		boundary1, boundary2 = defaultActOneEnd, defaultActTwoEnd
	}

	actOne := s.buildAct(0.0, boundary1, "Setup", segments, beats)
	actTwo := s.buildAct(boundary1, boundary2, "Confrontation", segments, beats)
	actThree := s.buildAct(boundary2, 1.0, "Resolution", segments, beats)

	structure := models.ActStructure{
		ActOne:        actOne,
		ActTwo:        actTwo,
		ActThree:      actThree,
		TurningPoints: buildTurningPoints(beats),
	}
	structure.ConfidenceScore = actConfidence(structure, beats)
	return structure
}

// buildAct 装配单幕: 关键事件优先取落在幕内的节拍
func (s *StructureAnalyzer) buildAct(start, end float64, purpose string, segments []Segment, beats []models.NarrativeBeat) models.Act {
	act := models.Act{
		StartPosition: start,
		EndPosition:   end,
		Purpose:       purpose,
	}

	for _, b := range beats {
		if inActRange(b.Position, start, end) {
			act.KeyEvents = append(act.KeyEvents, b.Excerpt)
		}
	}

	if len(act.KeyEvents) == 0 {
		act.KeyEvents = s.actionSentences(segments, start, end)
	}
	if len(act.KeyEvents) == 0 {
		act.KeyEvents = []string{fmt.Sprintf("General %s development", strings.ToLower(purpose))}
	}
	return act
}

// inActRange 末幕闭合右端点，其余幕左闭右开
func inActRange(pos, start, end float64) bool {
	if end >= 1.0 {
		return pos >= start && pos <= end
	}
	return pos >= start && pos < end
}

// actionSentences 在幕范围内扫描含动作动词的句子，每幕最多3条
func (s *StructureAnalyzer) actionSentences(segments []Segment, start, end float64) []string {
	var events []string
	for _, seg := range segments {
		if !inActRange(seg.Position, start, end) {
			continue
		}
		for _, sentence := range s.sentenceSplit.Split(seg.Text, -1) {
			sentence = strings.TrimSpace(sentence)
			if sentence == "" || !s.actionVerbs.MatchString(sentence) {
				continue
			}
			events = append(events, excerpt(sentence, 160))
			if len(events) >= maxKeyEventsPerAct {
				return events
			}
		}
	}
	return events
}

// buildTurningPoints 由情节点节拍构建转折点; 完全缺失时给出两个估计默认值
func buildTurningPoints(beats []models.NarrativeBeat) []models.TurningPoint {
	turningTypes := map[models.BeatType]string{
		models.BeatPlotPoint1: "First major turning point",
		models.BeatMidpoint:   "Midpoint reversal",
		models.BeatPlotPoint2: "Second major turning point",
		models.BeatClimax:     "Climactic confrontation",
	}

	var points []models.TurningPoint
	for _, b := range beats {
		desc, ok := turningTypes[b.Type]
		if !ok {
			continue
		}
		points = append(points, models.TurningPoint{
			Type:        string(b.Type),
			Position:    b.Position,
			Description: desc,
			Confidence:  b.Confidence,
		})
	}

	if len(points) == 0 {
		points = []models.TurningPoint{
			{Type: string(models.BeatPlotPoint1), Position: 0.25, Description: "Estimated act one transition", Confidence: 0.5},
			{Type: string(models.BeatPlotPoint2), Position: 0.75, Description: "Estimated act two transition", Confidence: 0.5},
		}
	}

	sort.Slice(points, func(i, j int) bool { return points[i].Position < points[j].Position })
	return points
}

// buildPacingProfile 逐段计算张力并压缩为至多10点的曲线
func (s *StructureAnalyzer) buildPacingProfile(segments []Segment) models.PacingProfile {
	inputs := make([]models.InputBeat, len(segments))
	curve := make([]float64, len(segments))
	for i, seg := range segments {
		pos := seg.Position
		inputs[i] = models.InputBeat{Description: seg.Text, Position: &pos}
		curve[i] = s.tension.beatTension(inputs[i], i, len(segments))
	}

	smoothed := ResampleCurve(curve, maxCurvePoints)
	issues, improvements := pacingIssues(smoothed)

	return models.PacingProfile{
		TensionCurve:          smoothed,
		PacingIssues:          issues,
		SuggestedImprovements: improvements,
		ConfidenceScore:       s.tension.confidence(inputs, curve),
	}
}

// pacingIssues 曲线层面的节奏问题与对应改进建议
func pacingIssues(curve []float64) (issues, improvements []string) {
	if len(curve) == 0 {
		return nil, nil
	}

	lo, hi := minMax(curve)
	if hi-lo < 0.3 {
		issues = append(issues, "flat pacing: tension varies too little across the story")
		improvements = append(improvements, "Introduce sharper tension peaks and quieter valleys")
	}

	if climaxPosition(curve) < 0.6 {
		issues = append(issues, "early climax: peak tension arrives before 60% of the story")
		improvements = append(improvements, "Delay the highest-tension moment toward the final act")
	}

	if len(curve) >= 2 && curve[len(curve)-1] > curve[len(curve)-2] {
		issues = append(issues, "unresolved ending: tension is still rising at the final beat")
		improvements = append(improvements, "Add falling action after the final peak to resolve tension")
	}

	return issues, improvements
}

// actConfidence 幕级置信度: 基础0.6 + 节拍数量 + 幕占比合理 + 各幕均有事件
func actConfidence(structure models.ActStructure, beats []models.NarrativeBeat) float64 {
	confidence := 0.6 + 0.05*float64(len(beats))

	if actProportionsReasonable(structure) {
		confidence += 0.1
	}
	if actsHaveDetectedEvents(structure, beats) {
		confidence += 0.1
	}
	return clamp(confidence, 0.1, 0.95)
}

// actProportionsReasonable 检查三幕占比是否落在 [20-30%] [40-60%] [20-30%]
func actProportionsReasonable(structure models.ActStructure) bool {
	one := structure.ActOne.EndPosition - structure.ActOne.StartPosition
	two := structure.ActTwo.EndPosition - structure.ActTwo.StartPosition
	three := structure.ActThree.EndPosition - structure.ActThree.StartPosition

	return one >= 0.20 && one <= 0.30 &&
		two >= 0.40 && two <= 0.60 &&
		three >= 0.20 && three <= 0.30
}

// actsHaveDetectedEvents 各幕范围内均有检测到的节拍
func actsHaveDetectedEvents(structure models.ActStructure, beats []models.NarrativeBeat) bool {
	acts := []models.Act{structure.ActOne, structure.ActTwo, structure.ActThree}
	for _, act := range acts {
		found := false
		for _, b := range beats {
			if inActRange(b.Position, act.StartPosition, act.EndPosition) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// overallConfidence = 0.5*幕置信 + 0.3*节拍置信均值 + 0.2*转折点因子
func (s *StructureAnalyzer) overallConfidence(structure models.ActStructure, beats []models.NarrativeBeat) float64 {
	var beatMean float64
	if len(beats) > 0 {
		var sum float64
		for _, b := range beats {
			sum += b.Confidence
		}
		beatMean = sum / float64(len(beats))
	}

	turningFactor := 0.5
	if len(structure.TurningPoints) >= 2 {
		turningFactor = 0.8
	}

	overall := 0.5*structure.ConfidenceScore + 0.3*beatMean + 0.2*turningFactor
	return clamp(overall, 0.1, 0.95)
}

// contentWarnings 标记降级分析情形与敏感内容类别
func (s *StructureAnalyzer) contentWarnings(text string, segments []Segment, beats []models.NarrativeBeat) []string {
	warnings := []string{}

	if len(segments) < 3 {
		warnings = append(warnings, "story is very short; positional analysis is coarse")
	}
	if len(beats) == 0 {
		warnings = append(warnings, "no canonical narrative beats detected; act boundaries are estimated")
	}

	lower := strings.ToLower(text)
	for _, category := range []string{"violence", "death"} {
		for _, kw := range s.warningKeywords[category] {
			if strings.Contains(lower, kw) {
				warnings = append(warnings, "contains depictions of "+category)
				break
			}
		}
	}
	return warnings
}

// storyTitle 取首行作为标题，过长时截断
func storyTitle(text string) string {
	line := text
	if idx := strings.IndexAny(text, "\r\n"); idx >= 0 {
		line = text[:idx]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "Untitled Story"
	}
	return excerpt(line, 80)
}
