// internal/models/pacing.go
package models

// RhythmAnalysis 表示快慢节奏分类与节奏质量评分
type RhythmAnalysis struct {
	FastSections     int     `json:"fast_sections"`
	SlowSections     int     `json:"slow_sections"`
	BalancedSections int     `json:"balanced_sections"`
	RhythmScore      float64 `json:"rhythm_score"`
	VariationScore   float64 `json:"variation_score"`
}

// GenreCompliance 表示张力曲线与类型模板节奏曲线的匹配程度
type GenreCompliance struct {
	Genre   string  `json:"genre"`
	Profile string  `json:"profile"`
	Score   float64 `json:"score"`
	Matched bool    `json:"matched"`
}

// PacingAnalysis 表示 calculate_pacing 的完整结果
type PacingAnalysis struct {
	TensionCurve    []float64        `json:"tension_curve"`
	PacingScore     float64          `json:"pacing_score"`
	Rhythm          RhythmAnalysis   `json:"rhythm_analysis"`
	GenreCompliance *GenreCompliance `json:"genre_compliance,omitempty"`
	Recommendations []string         `json:"recommendations"`
	ConfidenceScore float64          `json:"confidence_score"`
}
