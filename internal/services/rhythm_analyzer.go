// internal/services/rhythm_analyzer.go
package services

import (
	"math"
	"strings"

	"github.com/Corphon/StoryPulseMCP/internal/models"
)

// 节奏分类的理想占比
const (
	idealFastRatio     = 0.3
	idealSlowRatio     = 0.3
	idealBalancedRatio = 0.4

	idealCurveRange = 0.6
	idealCurveStdev = 0.2
)

// RhythmAnalyzer 将张力曲线分类为快/慢/均衡片段并评估节奏质量
type RhythmAnalyzer struct {
	fastVocabulary []string
	slowVocabulary []string
}

// NewRhythmAnalyzer 创建节奏分析器
func NewRhythmAnalyzer() *RhythmAnalyzer {
	return &RhythmAnalyzer{
		fastVocabulary: []string{
			"ran", "rush", "sudden", "quick", "fast", "burst", "slam",
			"sprint", "chase", "explode", "urgent", "instant", "race", "snap",
		},
		slowVocabulary: []string{
			"slowly", "linger", "quiet", "calm", "gazed", "ponder",
			"waited", "still", "gentle", "drift", "peaceful", "paused", "settled",
		},
	}
}

// Analyze 对节拍序列分类并计算节奏与变化质量分
func (r *RhythmAnalyzer) Analyze(beats []models.InputBeat, curve []float64) models.RhythmAnalysis {
	analysis := models.RhythmAnalysis{}

	for _, beat := range beats {
		switch r.classify(beat.Description) {
		case "fast":
			analysis.FastSections++
		case "slow":
			analysis.SlowSections++
		default:
			analysis.BalancedSections++
		}
	}

	analysis.RhythmScore = r.rhythmScore(analysis, len(beats))
	analysis.VariationScore = r.variationScore(curve)
	return analysis
}

// classify 按快慢词汇命中数分类; 平局与零命中均归为均衡
func (r *RhythmAnalyzer) classify(description string) string {
	words := strings.Fields(strings.ToLower(description))
	fast := countVocabularyHits(words, r.fastVocabulary)
	slow := countVocabularyHits(words, r.slowVocabulary)

	switch {
	case fast > slow:
		return "fast"
	case slow > fast:
		return "slow"
	default:
		return "balanced"
	}
}

// rhythmScore = 1 - 各分类实际占比与理想占比偏差的均值
func (r *RhythmAnalyzer) rhythmScore(analysis models.RhythmAnalysis, total int) float64 {
	if total == 0 {
		return 0.1
	}
	n := float64(total)
	deviation := (math.Abs(float64(analysis.FastSections)/n-idealFastRatio) +
		math.Abs(float64(analysis.SlowSections)/n-idealSlowRatio) +
		math.Abs(float64(analysis.BalancedSections)/n-idealBalancedRatio)) / 3.0

	return clamp(1.0-deviation, 0.1, 1.0)
}

// variationScore 融合曲线幅度与标准差各自对理想值的接近程度
func (r *RhythmAnalyzer) variationScore(curve []float64) float64 {
	lo, hi := minMax(curve)
	rangeCloseness := 1.0 - math.Abs((hi-lo)-idealCurveRange)/idealCurveRange
	stdevCloseness := 1.0 - math.Abs(stddev(curve)-idealCurveStdev)/idealCurveStdev

	return clamp((rangeCloseness+stdevCloseness)/2.0, 0.1, 1.0)
}
