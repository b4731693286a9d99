// internal/models/storyarc.go
package models

// ArcStatus 表示故事弧分析的状态
type ArcStatus string

const (
	// ArcStatusDraft 表示尚未分析的草稿
	ArcStatusDraft ArcStatus = "draft"
	// ArcStatusAnalyzed 表示已完成结构分析
	ArcStatusAnalyzed ArcStatus = "analyzed"
	// ArcStatusValidated 表示已通过一致性校验
	ArcStatusValidated ArcStatus = "validated"
	// ArcStatusComplete 表示分析流程全部完成
	ArcStatusComplete ArcStatus = "complete"
)

// StoryArc 表示一次结构分析产生的完整故事弧
// 每次 analyze_story_structure 调用创建一个实例，创建后不再修改
type StoryArc struct {
	ID              string        `json:"id"`
	Genre           string        `json:"genre"`
	Title           string        `json:"title"`
	ActStructure    ActStructure  `json:"act_structure"`
	PacingAnalysis  PacingProfile `json:"pacing_analysis"`
	ContentWarnings []string      `json:"content_warnings"`
	ConfidenceScore float64       `json:"confidence_score"`
	Status          ArcStatus     `json:"status"`
}

// Act 表示三幕结构中的一幕
type Act struct {
	StartPosition float64  `json:"start_position"`
	EndPosition   float64  `json:"end_position"`
	Purpose       string   `json:"purpose"`
	KeyEvents     []string `json:"key_events"`
}

// TurningPoint 表示一个主要的叙事转折点
type TurningPoint struct {
	Type        string  `json:"type"`
	Position    float64 `json:"position"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// ActStructure 表示完整的三幕结构
// 不变式: act_one.start=0.0, act_three.end=1.0, 幕边界单调不减且连续
type ActStructure struct {
	ActOne          Act            `json:"act_one"`
	ActTwo          Act            `json:"act_two"`
	ActThree        Act            `json:"act_three"`
	TurningPoints   []TurningPoint `json:"turning_points"`
	ConfidenceScore float64        `json:"confidence_score"`
}

// PacingProfile 表示逐段张力曲线与节奏问题
type PacingProfile struct {
	TensionCurve          []float64 `json:"tension_curve"`
	PacingIssues          []string  `json:"pacing_issues"`
	SuggestedImprovements []string  `json:"suggested_improvements"`
	ConfidenceScore       float64   `json:"confidence_score"`
}
