// internal/models/beat.go
package models

// BeatType 表示规范叙事节拍的类型
type BeatType string

const (
	BeatIncitingIncident BeatType = "inciting_incident"
	BeatPlotPoint1       BeatType = "plot_point_1"
	BeatMidpoint         BeatType = "midpoint"
	BeatPlotPoint2       BeatType = "plot_point_2"
	BeatClimax           BeatType = "climax"
)

// ExpectedBeatPositions 各节拍类型在故事中的规范期望位置
var ExpectedBeatPositions = map[BeatType]float64{
	BeatIncitingIncident: 0.12,
	BeatPlotPoint1:       0.25,
	BeatMidpoint:         0.50,
	BeatPlotPoint2:       0.75,
	BeatClimax:           0.90,
}

// NarrativeBeat 表示检测到的一个叙事节拍
// 每种类型最多保留一个实例，按与规范位置的最小距离取胜
type NarrativeBeat struct {
	Type       BeatType `json:"beat_type"`
	Position   float64  `json:"position"`
	Confidence float64  `json:"confidence"`
	Excerpt    string   `json:"excerpt"`
}

// InputBeat 表示外部调用方提供的节拍描述
// TensionLevel 与 Position 缺省时由引擎推断
type InputBeat struct {
	Description  string   `json:"description"`
	Type         string   `json:"type"`
	TensionLevel *float64 `json:"tension_level,omitempty"`
	Position     *float64 `json:"position,omitempty"`
}

// BaseTension 返回节拍提供的基础张力，缺省为 0.5
func (b InputBeat) BaseTension() float64 {
	if b.TensionLevel != nil {
		return *b.TensionLevel
	}
	return 0.5
}
