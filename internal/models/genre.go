// internal/models/genre.go
package models

// ConventionImportance 表示类型惯例的重要程度
type ConventionImportance string

const (
	ImportanceEssential ConventionImportance = "essential"
	ImportanceTypical   ConventionImportance = "typical"
	ImportanceOptional  ConventionImportance = "optional"
)

// Convention 表示一条带权重的类型惯例
type Convention struct {
	Name             string               `json:"name" yaml:"name" validate:"required"`
	Description      string               `json:"description" yaml:"description"`
	Importance       ConventionImportance `json:"importance" yaml:"importance" validate:"omitempty,oneof=essential typical optional"`
	ConfidenceWeight float64              `json:"confidence_weight" yaml:"confidence_weight" validate:"gte=0,lte=1"`
	Examples         []string             `json:"examples,omitempty" yaml:"examples"`
}

// PacingCurve 表示类型模板期望的节奏曲线
type PacingCurve struct {
	Name  string    `json:"name" yaml:"name"`
	Curve []float64 `json:"curve" yaml:"curve" validate:"dive,gte=0,lte=1"`
}

// GenreTemplate 表示一个类型的完整模板定义
// 启动时加载一次，按小写 id 索引，所有调用共享只读引用
type GenreTemplate struct {
	ID                  string       `json:"id" yaml:"id" validate:"required"`
	Name                string       `json:"name" yaml:"name" validate:"required"`
	Conventions         []Convention `json:"conventions" yaml:"conventions" validate:"required,min=1,dive"`
	PacingProfile       PacingCurve  `json:"pacing_profile" yaml:"pacing_profile"`
	CharacterArchetypes []string     `json:"character_archetypes" yaml:"character_archetypes"`
	CommonBeats         []string     `json:"common_beats" yaml:"common_beats"`
	AuthenticityRules   []string     `json:"authenticity_rules" yaml:"authenticity_rules"`
	Subgenres           []string     `json:"subgenres" yaml:"subgenres"`
}

// HasCommonBeat 判断节拍类型是否属于该类型的规范节拍
func (t *GenreTemplate) HasCommonBeat(beatType string) bool {
	for _, b := range t.CommonBeats {
		if b == beatType {
			return true
		}
	}
	return false
}

// ConventionCompliance 表示惯例符合度评估结果
type ConventionCompliance struct {
	Score              float64  `json:"score"`
	MeetsThreshold     bool     `json:"meets_threshold"`
	ConfidenceScore    float64  `json:"confidence_score"`
	MetConventions     []string `json:"met_conventions"`
	MissingConventions []string `json:"missing_conventions"`
}

// GenreBeat 表示对单个节拍的类型相关性评估
type GenreBeat struct {
	Type       string `json:"type"`
	Relevance  string `json:"relevance"`
	Suggestion string `json:"suggestion"`
}

// GenreGuidance 表示 apply_genre_patterns 的完整结果
type GenreGuidance struct {
	ConventionCompliance     ConventionCompliance `json:"convention_compliance"`
	AuthenticityImprovements []string             `json:"authenticity_improvements"`
	GenreSpecificBeats       []GenreBeat          `json:"genre_specific_beats"`
}
