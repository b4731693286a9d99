// internal/services/segmenter.go
package services

import (
	"regexp"
	"strings"
)

// Segment 表示一个带位置信息的文本单元
type Segment struct {
	Index    int
	Text     string
	Position float64 // 单元中心在全文中的归一化位置 [0,1]
}

// TextSegmenter 将原始文本切分为有序的文本单元供位置分析使用
type TextSegmenter struct {
	paragraphSplit *regexp.Regexp
	sentenceSplit  *regexp.Regexp
}

// NewTextSegmenter 创建文本切分器
func NewTextSegmenter() *TextSegmenter {
	return &TextSegmenter{
		paragraphSplit: regexp.MustCompile(`\n\s*\n`),
		sentenceSplit:  regexp.MustCompile(`[.!?]+`),
	}
}

// Segment 按空行切分段落；少于3段时退化为按句子边界切分
func (s *TextSegmenter) Segment(text string) []Segment {
	parts := s.split(s.paragraphSplit, text)
	if len(parts) < 3 {
		sentences := s.split(s.sentenceSplit, text)
		if len(sentences) > len(parts) {
			parts = sentences
		}
	}

	segments := make([]Segment, 0, len(parts))
	n := len(parts)
	for i, p := range parts {
		segments = append(segments, Segment{
			Index:    i,
			Text:     p,
			Position: (float64(i) + 0.5) / float64(n),
		})
	}
	return segments
}

func (s *TextSegmenter) split(re *regexp.Regexp, text string) []string {
	raw := re.Split(text, -1)
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
