// internal/models/consistency.go
package models

// IssueSeverity 表示一致性问题的严重程度
type IssueSeverity string

const (
	SeverityCritical   IssueSeverity = "critical"
	SeverityWarning    IssueSeverity = "warning"
	SeveritySuggestion IssueSeverity = "suggestion"
)

// SeverityWeights 各严重级别对总分的扣减权重
var SeverityWeights = map[IssueSeverity]float64{
	SeverityCritical:   0.3,
	SeverityWarning:    0.15,
	SeveritySuggestion: 0.05,
}

// ConsistencyRule 表示一条内置的一致性规则
// 构造一次后不可变
type ConsistencyRule struct {
	Type             string        `json:"type"`
	Severity         IssueSeverity `json:"severity"`
	Scope            string        `json:"scope"`
	ConfidenceImpact float64       `json:"confidence_impact"`
}

// ConsistencyIssue 表示校验发现的一个问题
type ConsistencyIssue struct {
	Type             string        `json:"type"`
	Severity         IssueSeverity `json:"severity"`
	Description      string        `json:"description"`
	Location         string        `json:"location"`
	SuggestedFix     string        `json:"suggested_fix"`
	ConfidenceImpact float64       `json:"confidence_impact"`
}

// ConsistencyReport 表示 validate_consistency 的完整结果
type ConsistencyReport struct {
	OverallScore    float64            `json:"overall_score"`
	ConfidenceScore float64            `json:"confidence_score"`
	Issues          []ConsistencyIssue `json:"issues"`
	Strengths       []string           `json:"strengths"`
	Recommendations []string           `json:"recommendations"`
}

// StoryEvent 表示结构化故事元素中的一个事件
// Timestamp 可以是 "day_N_时段" 字符串或数字，比较逻辑见一致性引擎
type StoryEvent struct {
	Description string   `json:"description"`
	Timestamp   any      `json:"timestamp,omitempty"`
	Location    string   `json:"location,omitempty"`
	Episode     int      `json:"episode,omitempty"`
	Characters  []string `json:"characters,omitempty"`
}

// StoryCharacter 表示结构化故事元素中的一个角色
type StoryCharacter struct {
	Name       string            `json:"name"`
	Role       string            `json:"role,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// StoryElements 表示 validate_consistency 的输入
// WorldDetails 为 世界观方面 -> 规则描述 的映射
type StoryElements struct {
	Events       []StoryEvent      `json:"events,omitempty"`
	Characters   []StoryCharacter  `json:"characters,omitempty"`
	WorldDetails map[string]string `json:"world_details,omitempty"`
}

// IsEmpty 判断故事元素是否完全为空
func (e *StoryElements) IsEmpty() bool {
	if e == nil {
		return true
	}
	return len(e.Events) == 0 && len(e.Characters) == 0 && len(e.WorldDetails) == 0
}
