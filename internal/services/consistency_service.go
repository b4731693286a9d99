// internal/services/consistency_service.go
package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/Corphon/StoryPulseMCP/internal/errors"
	"github.com/Corphon/StoryPulseMCP/internal/models"
	"github.com/Corphon/StoryPulseMCP/internal/utils"
)

const (
	maxDayGap            = 3
	consequenceWindow    = 4
	protagonistAttribute = "age"
)

// timeOfDayOrder 时段在一天内的先后次序; 未知时段按下午处理
var timeOfDayOrder = map[string]int{
	"morning":   1,
	"afternoon": 2,
	"evening":   3,
	"night":     4,
}

const defaultTimeOfDay = 2

// ConsistencyRuleEngine 对结构化故事元素执行时间线/角色/世界观/情节四类校验
// 规则表与触发词映射在构造时装配一次，之后只读
type ConsistencyRuleEngine struct {
	rules        []models.ConsistencyRule
	timestampDay *regexp.Regexp
	consequences map[string][]string
	logger       *utils.Logger
}

// NewConsistencyRuleEngine 创建一致性规则引擎
func NewConsistencyRuleEngine() *ConsistencyRuleEngine {
	return &ConsistencyRuleEngine{
		rules: []models.ConsistencyRule{
			{Type: "timeline", Severity: models.SeverityCritical, Scope: "events", ConfidenceImpact: 0.3},
			{Type: "character", Severity: models.SeverityWarning, Scope: "characters", ConfidenceImpact: 0.15},
			{Type: "world", Severity: models.SeverityWarning, Scope: "world_details", ConfidenceImpact: 0.15},
		},
		timestampDay: regexp.MustCompile(`^day_(\d+)(?:_(\w+))?$`),
		consequences: map[string][]string{
			"kill":   {"dead", "body", "funeral", "grave", "mourn"},
			"marry":  {"wedding", "married", "spouse", "husband", "wife"},
			"arrest": {"jail", "prison", "custody", "trial", "charged"},
			"fire":   {"unemployed", "job", "quit", "replaced", "left the company"},
		},
		logger: utils.GetLogger(),
	}
}

// Rules 返回内置规则表的只读视图
func (c *ConsistencyRuleEngine) Rules() []models.ConsistencyRule {
	out := make([]models.ConsistencyRule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Validate 对故事元素执行全部子校验并汇总为一致性报告
// 前置条件: story_elements 非空
func (c *ConsistencyRuleEngine) Validate(elements *models.StoryElements) (*models.ConsistencyReport, error) {
	if elements.IsEmpty() {
		return nil, errors.WrapAnalysis("consistency validation failed",
			errors.NewValidationError("story_elements must not be empty", nil))
	}

	var issues []models.ConsistencyIssue
	var strengths []string

	for _, check := range []func(*models.StoryElements) ([]models.ConsistencyIssue, []string){
		c.validateTimeline,
		c.validateCharacters,
		c.validateWorld,
		c.validatePlot,
	} {
		found, good := check(elements)
		issues = append(issues, found...)
		strengths = append(strengths, good...)
	}

	report := &models.ConsistencyReport{
		OverallScore:    overallConsistencyScore(issues),
		ConfidenceScore: c.reportConfidence(elements, issues),
		Issues:          issues,
		Strengths:       strengths,
		Recommendations: c.recommendations(issues),
	}

	c.logger.Debug("consistency validated", map[string]interface{}{
		"issues": len(issues),
		"score":  report.OverallScore,
	})
	return report, nil
}

// validateTimeline 相邻事件两两比较时间戳与集数，并单独检查天数跳跃
func (c *ConsistencyRuleEngine) validateTimeline(elements *models.StoryElements) ([]models.ConsistencyIssue, []string) {
	var issues []models.ConsistencyIssue
	events := elements.Events

	ordered := true
	for i := 0; i+1 < len(events); i++ {
		prev, next := events[i], events[i+1]

		if c.compareTimestamps(prev.Timestamp, next.Timestamp) > 0 {
			ordered = false
			issues = append(issues, models.ConsistencyIssue{
				Type:             "timeline",
				Severity:         models.SeverityCritical,
				Description:      fmt.Sprintf("event %d occurs before event %d in the list but after it in story time", i+2, i+1),
				Location:         fmt.Sprintf("events[%d]", i+1),
				SuggestedFix:     "Reorder the events or correct their timestamps",
				ConfidenceImpact: 0.3,
			})
		}

		if prev.Episode > 0 && next.Episode > 0 && next.Episode < prev.Episode {
			issues = append(issues, models.ConsistencyIssue{
				Type:             "timeline",
				Severity:         models.SeverityWarning,
				Description:      fmt.Sprintf("episode number regresses from %d to %d", prev.Episode, next.Episode),
				Location:         fmt.Sprintf("events[%d]", i+1),
				SuggestedFix:     "Check the episode numbering for these events",
				ConfidenceImpact: 0.15,
			})
		}

		if gap, ok := c.dayGap(prev.Timestamp, next.Timestamp); ok && gap > maxDayGap {
			issues = append(issues, models.ConsistencyIssue{
				Type:             "timeline",
				Severity:         models.SeveritySuggestion,
				Description:      fmt.Sprintf("a gap of %d days passes between consecutive events", gap),
				Location:         fmt.Sprintf("events[%d]", i+1),
				SuggestedFix:     "Consider acknowledging the time skip in the narrative",
				ConfidenceImpact: 0.05,
			})
		}
	}

	var strengths []string
	if ordered && len(events) >= 2 {
		strengths = append(strengths, "Events follow a consistent chronological order")
	}
	return issues, strengths
}

// compareTimestamps 返回 -1/0/1
// 解析顺序: day_N_时段字符串 → 数值比较 → 字符串字典序
func (c *ConsistencyRuleEngine) compareTimestamps(a, b any) int {
	if a == nil || b == nil {
		return 0
	}

	sa, aIsStr := a.(string)
	sb, bIsStr := b.(string)
	if aIsStr && bIsStr {
		if da, ta, ok := c.parseDayTimestamp(sa); ok {
			if db, tb, ok := c.parseDayTimestamp(sb); ok {
				if da != db {
					return compareInts(da, db)
				}
				return compareInts(ta, tb)
			}
		}
	}

	if na, ok := numericValue(a); ok {
		if nb, ok := numericValue(b); ok {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			default:
				return 0
			}
		}
	}

	if aIsStr && bIsStr {
		return strings.Compare(sa, sb)
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// parseDayTimestamp 解析 "day_N" 或 "day_N_时段" 格式
func (c *ConsistencyRuleEngine) parseDayTimestamp(s string) (day, timeOfDay int, ok bool) {
	m := c.timestampDay.FindStringSubmatch(strings.ToLower(strings.TrimSpace(s)))
	if m == nil {
		return 0, 0, false
	}
	day, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, 0, false
	}
	timeOfDay = defaultTimeOfDay
	if m[2] != "" {
		if order, known := timeOfDayOrder[m[2]]; known {
			timeOfDay = order
		}
	}
	return day, timeOfDay, true
}

// dayGap 两个 day_N 时间戳之间的天数差
func (c *ConsistencyRuleEngine) dayGap(a, b any) (int, bool) {
	sa, ok := a.(string)
	if !ok {
		return 0, false
	}
	sb, ok := b.(string)
	if !ok {
		return 0, false
	}
	da, _, okA := c.parseDayTimestamp(sa)
	db, _, okB := c.parseDayTimestamp(sb)
	if !okA || !okB {
		return 0, false
	}
	gap := db - da
	if gap < 0 {
		gap = -gap
	}
	return gap, true
}

// validateCharacters 跟踪每个角色首次出现的属性表，后续取值漂移记为警告;
// 主角缺失年龄属性记为建议
func (c *ConsistencyRuleEngine) validateCharacters(elements *models.StoryElements) ([]models.ConsistencyIssue, []string) {
	var issues []models.ConsistencyIssue
	firstSeen := make(map[string]map[string]string)
	consistent := true

	for _, ch := range elements.Characters {
		seen, ok := firstSeen[ch.Name]
		if !ok {
			attrs := make(map[string]string, len(ch.Attributes))
			for k, v := range ch.Attributes {
				attrs[k] = v
			}
			firstSeen[ch.Name] = attrs
		} else {
			for k, v := range ch.Attributes {
				prev, known := seen[k]
				if !known {
					seen[k] = v
					continue
				}
				if prev != v {
					consistent = false
					issues = append(issues, models.ConsistencyIssue{
						Type:             "character",
						Severity:         models.SeverityWarning,
						Description:      fmt.Sprintf("character %q attribute %q changes from %q to %q", ch.Name, k, prev, v),
						Location:         "characters/" + ch.Name,
						SuggestedFix:     "Keep the attribute stable or explain the change in-story",
						ConfidenceImpact: 0.15,
					})
				}
			}
		}

		if strings.EqualFold(ch.Role, "protagonist") {
			if _, hasAge := ch.Attributes[protagonistAttribute]; !hasAge {
				issues = append(issues, models.ConsistencyIssue{
					Type:             "character",
					Severity:         models.SeveritySuggestion,
					Description:      fmt.Sprintf("protagonist %q has no %q attribute", ch.Name, protagonistAttribute),
					Location:         "characters/" + ch.Name,
					SuggestedFix:     "Record the protagonist's age to anchor timeline checks",
					ConfidenceImpact: 0.05,
				})
			}
		}
	}

	var strengths []string
	if consistent && len(elements.Characters) > 0 {
		strengths = append(strengths, "Character attributes remain consistent across appearances")
	}
	return issues, strengths
}

// validateWorld 由 world_details 建立 方面->规则 映射，仅对存在的方面触发检查
func (c *ConsistencyRuleEngine) validateWorld(elements *models.StoryElements) ([]models.ConsistencyIssue, []string) {
	var issues []models.ConsistencyIssue
	world := elements.WorldDetails

	if _, ok := world["jurisdiction"]; ok {
		for i, ev := range elements.Events {
			if strings.Contains(strings.ToLower(ev.Location), "outside_jurisdiction") &&
				strings.Contains(strings.ToLower(ev.Description), "arrest") {
				issues = append(issues, models.ConsistencyIssue{
					Type:             "world",
					Severity:         models.SeverityWarning,
					Description:      "an arrest takes place outside the established jurisdiction",
					Location:         fmt.Sprintf("events[%d]", i),
					SuggestedFix:     "Move the arrest inside the jurisdiction or justify the exception",
					ConfidenceImpact: 0.15,
				})
			}
		}
	}

	if _, ok := world["physics"]; ok {
		for i, ev := range elements.Events {
			lower := strings.ToLower(ev.Description)
			if strings.Contains(lower, "magic") && strings.Contains(lower, "impossible") {
				issues = append(issues, models.ConsistencyIssue{
					Type:             "world",
					Severity:         models.SeveritySuggestion,
					Description:      "magic is used to do something declared impossible by the world's physics",
					Location:         fmt.Sprintf("events[%d]", i),
					SuggestedFix:     "Clarify the limits of magic against the established physics rules",
					ConfidenceImpact: 0.05,
				})
			}
		}
	}

	var strengths []string
	if len(world) > 0 && len(issues) == 0 {
		strengths = append(strengths, "Events respect the established world rules")
	}
	return issues, strengths
}

// validatePlot 情节校验: 未知角色引用 / 死者开口 / 因果缺失
func (c *ConsistencyRuleEngine) validatePlot(elements *models.StoryElements) ([]models.ConsistencyIssue, []string) {
	var issues []models.ConsistencyIssue

	known := make(map[string]struct{}, len(elements.Characters))
	for _, ch := range elements.Characters {
		known[strings.ToLower(ch.Name)] = struct{}{}
	}

	for i, ev := range elements.Events {
		if len(known) > 0 {
			for _, name := range ev.Characters {
				if _, ok := known[strings.ToLower(name)]; !ok {
					issues = append(issues, models.ConsistencyIssue{
						Type:             "plot",
						Severity:         models.SeverityWarning,
						Description:      fmt.Sprintf("event references unknown character %q", name),
						Location:         fmt.Sprintf("events[%d]", i),
						SuggestedFix:     "Add the character to the character list or fix the reference",
						ConfidenceImpact: 0.15,
					})
				}
			}
		}

		lower := strings.ToLower(ev.Description)
		if strings.Contains(lower, "dead") && strings.Contains(lower, "speak") {
			issues = append(issues, models.ConsistencyIssue{
				Type:             "plot",
				Severity:         models.SeverityCritical,
				Description:      "a character described as dead speaks in the same event",
				Location:         fmt.Sprintf("events[%d]", i),
				SuggestedFix:     "Resolve the contradiction between the death and the dialogue",
				ConfidenceImpact: 0.3,
			})
		}
	}

	issues = append(issues, c.causeEffectIssues(elements.Events)...)

	var strengths []string
	if len(issues) == 0 && len(elements.Events) > 0 {
		strengths = append(strengths, "Plot events form a coherent cause-and-effect chain")
	}
	return issues, strengths
}

// causeEffectIssues 触发词出现后，在随后4个事件内未见预期后果关键词则给出建议
func (c *ConsistencyRuleEngine) causeEffectIssues(events []models.StoryEvent) []models.ConsistencyIssue {
	var issues []models.ConsistencyIssue

	for i, ev := range events {
		lower := strings.ToLower(ev.Description)
		for trigger, expected := range c.consequences {
			if !strings.Contains(lower, trigger) {
				continue
			}

			end := i + 1 + consequenceWindow
			if end > len(events) {
				end = len(events)
			}
			followed := false
			for _, later := range events[i+1 : end] {
				if containsAnyWord(strings.ToLower(later.Description), expected) {
					followed = true
					break
				}
			}
			if !followed {
				issues = append(issues, models.ConsistencyIssue{
					Type:             "plot",
					Severity:         models.SeveritySuggestion,
					Description:      fmt.Sprintf("event mentions %q but no consequence appears in the following events", trigger),
					Location:         fmt.Sprintf("events[%d]", i),
					SuggestedFix:     fmt.Sprintf("Show the aftermath of the %q event within the next few scenes", trigger),
					ConfidenceImpact: 0.05,
				})
			}
		}
	}
	return issues
}

// overallConsistencyScore = 1 - 各问题严重级别权重之和
func overallConsistencyScore(issues []models.ConsistencyIssue) float64 {
	score := 1.0
	for _, issue := range issues {
		score -= models.SeverityWeights[issue.Severity]
	}
	return clamp(score, 0.0, 1.0)
}

// reportConfidence 置信度: 基础0.8，按数据稀疏程度与严重问题数扣减
func (c *ConsistencyRuleEngine) reportConfidence(elements *models.StoryElements, issues []models.ConsistencyIssue) float64 {
	confidence := 0.8

	if len(elements.Events) < 2 {
		confidence -= 0.2
	}
	if len(elements.Characters) < 1 {
		confidence -= 0.1
	}
	if len(elements.WorldDetails) < 1 {
		confidence -= 0.1
	}

	criticals := 0
	for _, issue := range issues {
		if issue.Severity == models.SeverityCritical {
			criticals++
		}
	}
	confidence -= 0.05 * float64(criticals)

	if len(elements.Events) >= 5 && len(elements.Characters) >= 3 {
		confidence += 0.1
	}
	return clamp(confidence, 0.1, 0.95)
}

// recommendations 按问题类别生成模板化建议; 存在严重问题时在首位追加计数提示
func (c *ConsistencyRuleEngine) recommendations(issues []models.ConsistencyIssue) []string {
	templates := map[string]string{
		"timeline":  "Review event ordering and timestamps for chronological consistency",
		"character": "Track character attributes in a reference sheet to avoid drift",
		"world":     "Document world rules explicitly and check new events against them",
		"plot":      "Verify that major plot events have visible consequences",
	}
	order := []string{"timeline", "character", "world", "plot"}

	present := make(map[string]bool)
	criticals := 0
	for _, issue := range issues {
		present[issue.Type] = true
		if issue.Severity == models.SeverityCritical {
			criticals++
		}
	}

	var recs []string
	if criticals > 0 {
		recs = append(recs, fmt.Sprintf("Resolve %d critical consistency issue(s) before further revisions", criticals))
	}
	for _, t := range order {
		if present[t] {
			recs = append(recs, templates[t])
		}
	}
	return recs
}

func compareInts(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// numericValue 接受 JSON 反序列化后的常见数值表示
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
