// internal/services/genre_service.go
package services

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Corphon/StoryPulseMCP/internal/errors"
	"github.com/Corphon/StoryPulseMCP/internal/models"
	"github.com/Corphon/StoryPulseMCP/internal/utils"
)

// genreVocabulary 单一类型的固定词汇表
type genreVocabulary struct {
	keywords          []string
	characterPatterns []string
	plotPatterns      []string
	atmosphere        []string
}

// contentAnalysis 输入内容对类型词汇表的命中统计
type contentAnalysis struct {
	keywordMatches    int
	characterMatches  int
	plotMatches       int
	atmosphereMatches int

	keywordRatio    float64
	characterRatio  float64
	plotRatio       float64
	atmosphereScore float64
}

// conventionEvaluator 单条惯例的判定策略
type conventionEvaluator func(m *GenrePatternMatcher, conv models.Convention, tmpl *models.GenreTemplate, corpus string, characters []string, analysis contentAnalysis) bool

// conventionStrategy 按惯例名称匹配规则选择判定策略
type conventionStrategy struct {
	matches  func(name string) bool
	evaluate conventionEvaluator
}

// 惯例重要性对应的权重
var importanceWeights = map[models.ConventionImportance]float64{
	models.ImportanceEssential: 1.0,
	models.ImportanceTypical:   0.7,
	models.ImportanceOptional:  0.3,
}

const (
	unknownImportanceWeight = 0.5
	complianceThreshold     = 0.75
	maxImprovements         = 5
)

// GenrePatternMatcher 对照类型模板评估惯例符合度并提出真实性改进建议
// 词汇表与策略表在构造时装配一次，之后只读
type GenrePatternMatcher struct {
	vocabularies map[string]genreVocabulary
	strategies   []conventionStrategy
	genres       GenreResolver
	logger       *utils.Logger

	termExtract     *regexp.Regexp
	pacingWords     []string
	timeWords       []string
	romanceWords    []string
	horrorWords     []string
	comedyWords     []string
	stakesWords     []string
	beatSuggestions map[string]map[string]string
}

// NewGenrePatternMatcher 创建类型模式匹配器
func NewGenrePatternMatcher(genres GenreResolver) *GenrePatternMatcher {
	m := &GenrePatternMatcher{
		vocabularies: builtinVocabularies(),
		genres:       genres,
		logger:       utils.GetLogger(),
		termExtract:  regexp.MustCompile(`[a-zA-Z]{4,}`),
		pacingWords:  []string{"chase", "rush", "sprint", "race", "burst", "sudden", "frantic"},
		timeWords:    []string{"deadline", "countdown", "running out", "before it", "hours left", "clock", "too late"},
		romanceWords: []string{"love", "kiss", "heart", "romance", "longing", "embrace", "passion"},
		horrorWords:  []string{"ghost", "haunt", "demon", "curse", "fear", "terror", "shadow", "nightmare"},
		comedyWords:  []string{"laugh", "joke", "funny", "absurd", "witty", "ridiculous", "hilarious"},
		stakesWords:  []string{"death", "life", "world", "stakes", "fate", "everything"},
		beatSuggestions: map[string]map[string]string{
			string(models.BeatIncitingIncident): {
				"thriller": "Open the threat with immediate, personal danger",
				"romance":  "Make the first meeting memorable and charged",
				"horror":   "Seed an unexplained wrongness before the first scare",
			},
			string(models.BeatMidpoint): {
				"thriller": "Use the midpoint reveal to raise the cost of failure",
				"romance":  "Deepen intimacy or force a vulnerable confession here",
			},
			string(models.BeatClimax): {
				"thriller": "Raise the physical danger of the final confrontation",
				"romance":  "Let the climax hinge on an emotional choice, not circumstance",
				"horror":   "Confront the source of fear directly at the climax",
				"comedy":   "Stack the accumulated misunderstandings into one chaotic peak",
			},
		},
	}
	m.strategies = conventionStrategies()
	return m
}

// builtinVocabularies 五个内置类型的词汇表; 其余类型优雅降级为零命中
func builtinVocabularies() map[string]genreVocabulary {
	return map[string]genreVocabulary{
		"thriller": {
			keywords:          []string{"danger", "threat", "chase", "escape", "conspiracy", "deadline", "killer", "pursuit", "trap", "survive"},
			characterPatterns: []string{"detective", "assassin", "agent", "fugitive", "villain", "investigator"},
			plotPatterns:      []string{"cat and mouse", "ticking clock", "double cross", "race against", "hunted"},
			atmosphere:        []string{"tense", "paranoid", "urgent", "claustrophobic", "relentless"},
		},
		"romance": {
			keywords:          []string{"love", "heart", "kiss", "passion", "longing", "devotion", "attraction", "tenderness"},
			characterPatterns: []string{"lover", "suitor", "rival", "confidant", "soulmate"},
			plotPatterns:      []string{"meet cute", "forbidden love", "second chance", "love triangle", "grand gesture"},
			atmosphere:        []string{"intimate", "warm", "yearning", "bittersweet", "hopeful"},
		},
		"horror": {
			keywords:          []string{"fear", "scream", "ghost", "demon", "curse", "blood", "nightmare", "haunted", "darkness"},
			characterPatterns: []string{"victim", "monster", "survivor", "skeptic", "entity"},
			plotPatterns:      []string{"isolated location", "ancient evil", "final girl", "possession", "cursed object"},
			atmosphere:        []string{"dread", "ominous", "unsettling", "eerie", "oppressive"},
		},
		"comedy": {
			keywords:          []string{"laugh", "joke", "funny", "absurd", "witty", "ridiculous", "awkward", "mishap"},
			characterPatterns: []string{"fool", "straight man", "trickster", "bumbler", "wisecracker"},
			plotPatterns:      []string{"mistaken identity", "escalating lie", "fish out of water", "comic misunderstanding"},
			atmosphere:        []string{"lighthearted", "playful", "chaotic", "ironic", "farcical"},
		},
		"drama": {
			keywords:          []string{"family", "loss", "identity", "redemption", "betrayal", "grief", "forgiveness", "sacrifice"},
			characterPatterns: []string{"patriarch", "estranged", "prodigal", "confessor", "outsider"},
			plotPatterns:      []string{"buried secret", "moral dilemma", "reconciliation", "fall from grace", "coming of age"},
			atmosphere:        []string{"somber", "reflective", "charged", "melancholy", "cathartic"},
		},
	}
}

// conventionStrategies 惯例判定策略表，按声明顺序取第一个名称匹配的策略
func conventionStrategies() []conventionStrategy {
	contains := func(subs ...string) func(string) bool {
		return func(name string) bool {
			for _, sub := range subs {
				if !strings.Contains(name, sub) {
					return false
				}
			}
			return true
		}
	}
	containsAny := func(subs ...string) func(string) bool {
		return func(name string) bool {
			for _, sub := range subs {
				if strings.Contains(name, sub) {
					return true
				}
			}
			return false
		}
	}

	return []conventionStrategy{
		{
			matches: contains("high stakes"),
			evaluate: func(m *GenrePatternMatcher, _ models.Convention, _ *models.GenreTemplate, corpus string, _ []string, _ contentAnalysis) bool {
				return containsAnyWord(corpus, m.stakesWords)
			},
		},
		{
			matches: contains("fast", "pace"),
			evaluate: func(m *GenrePatternMatcher, _ models.Convention, _ *models.GenreTemplate, corpus string, _ []string, _ contentAnalysis) bool {
				return countCorpusHits(corpus, m.pacingWords) >= 2
			},
		},
		{
			matches: contains("race", "time"),
			evaluate: func(m *GenrePatternMatcher, _ models.Convention, _ *models.GenreTemplate, corpus string, _ []string, _ contentAnalysis) bool {
				return containsAnyWord(corpus, m.timeWords)
			},
		},
		{
			matches: containsAny("romantic", "love"),
			evaluate: func(m *GenrePatternMatcher, _ models.Convention, tmpl *models.GenreTemplate, corpus string, characters []string, _ contentAnalysis) bool {
				return matchesArchetype(characters, tmpl.CharacterArchetypes) || containsAnyWord(corpus, m.romanceWords)
			},
		},
		{
			matches: containsAny("supernatural", "fear"),
			evaluate: func(m *GenrePatternMatcher, _ models.Convention, _ *models.GenreTemplate, corpus string, _ []string, analysis contentAnalysis) bool {
				return containsAnyWord(corpus, m.horrorWords) || analysis.atmosphereScore >= 0.3
			},
		},
		{
			matches: containsAny("humor", "comic"),
			evaluate: func(m *GenrePatternMatcher, _ models.Convention, _ *models.GenreTemplate, corpus string, _ []string, _ contentAnalysis) bool {
				return countCorpusHits(corpus, m.comedyWords) >= 2
			},
		},
	}
}

// Analyze 对节拍与角色列表执行类型符合度评估
// 前置条件: genre 非空且可解析
func (m *GenrePatternMatcher) Analyze(beats []models.InputBeat, characters []string, genre string) (*models.GenreGuidance, error) {
	if strings.TrimSpace(genre) == "" {
		return nil, errors.WrapAnalysis("genre pattern analysis failed",
			errors.NewValidationError("genre must not be empty", nil))
	}
	tmpl, ok := m.genres.Resolve(genre)
	if !ok {
		return nil, errors.WrapAnalysis("genre pattern analysis failed",
			errors.NewLookupError(fmt.Sprintf("unknown genre: %q", genre), nil))
	}

	corpus := beatCorpus(beats)
	analysis := m.analyzeContent(corpus, characters, tmpl.ID)
	compliance := m.evaluateConventions(tmpl, corpus, characters, analysis)
	compliance.ConfidenceScore = m.complianceConfidence(len(beats), len(characters), analysis)

	guidance := &models.GenreGuidance{
		ConventionCompliance:     compliance,
		AuthenticityImprovements: m.improvements(tmpl, compliance, analysis),
		GenreSpecificBeats:       m.genreBeats(beats, tmpl),
	}

	m.logger.Debug("genre patterns analyzed", map[string]interface{}{
		"genre": tmpl.ID,
		"score": compliance.Score,
	})
	return guidance, nil
}

// analyzeContent 统计词汇表命中并换算为占比; 无内置词汇表的类型降级为零
func (m *GenrePatternMatcher) analyzeContent(corpus string, characters []string, genreID string) contentAnalysis {
	vocab, ok := m.vocabularies[genreID]
	if !ok {
		return contentAnalysis{}
	}

	analysis := contentAnalysis{
		keywordMatches:    countCorpusHits(corpus, vocab.keywords),
		plotMatches:       countCorpusHits(corpus, vocab.plotPatterns),
		atmosphereMatches: countCorpusHits(corpus, vocab.atmosphere),
	}

	lowered := make([]string, len(characters))
	for i, c := range characters {
		lowered[i] = strings.ToLower(c)
	}
	for _, pattern := range vocab.characterPatterns {
		for _, c := range lowered {
			if strings.Contains(c, pattern) || strings.Contains(pattern, c) {
				analysis.characterMatches++
				break
			}
		}
	}

	analysis.keywordRatio = ratioOf(analysis.keywordMatches, len(vocab.keywords))
	analysis.characterRatio = ratioOf(analysis.characterMatches, len(vocab.characterPatterns))
	analysis.plotRatio = ratioOf(analysis.plotMatches, len(vocab.plotPatterns))
	analysis.atmosphereScore = ratioOf(analysis.atmosphereMatches, len(vocab.atmosphere))
	return analysis
}

// evaluateConventions 按策略表逐条判定惯例并按重要性加权汇总
func (m *GenrePatternMatcher) evaluateConventions(tmpl *models.GenreTemplate, corpus string, characters []string, analysis contentAnalysis) models.ConventionCompliance {
	compliance := models.ConventionCompliance{
		MetConventions:     []string{},
		MissingConventions: []string{},
	}

	var totalWeight, metWeight float64
	for _, conv := range tmpl.Conventions {
		weight, ok := importanceWeights[conv.Importance]
		if !ok {
			weight = unknownImportanceWeight
		}
		totalWeight += weight

		if m.conventionMet(conv, tmpl, corpus, characters, analysis) {
			metWeight += weight
			compliance.MetConventions = append(compliance.MetConventions, conv.Name)
		} else {
			compliance.MissingConventions = append(compliance.MissingConventions, conv.Name)
		}
	}

	if totalWeight > 0 {
		compliance.Score = metWeight / totalWeight
	}
	compliance.MeetsThreshold = compliance.Score >= complianceThreshold
	return compliance
}

// conventionMet 选择第一个名称匹配的策略; 均不匹配时回退到描述词条判定
func (m *GenrePatternMatcher) conventionMet(conv models.Convention, tmpl *models.GenreTemplate, corpus string, characters []string, analysis contentAnalysis) bool {
	name := strings.ToLower(conv.Name)
	for _, strategy := range m.strategies {
		if strategy.matches(name) {
			return strategy.evaluate(m, conv, tmpl, corpus, characters, analysis)
		}
	}
	return m.defaultConventionMet(conv, corpus, analysis)
}

// defaultConventionMet 默认策略: 从惯例描述提取4字母以上词条，要求至少2个命中，
// 或整体关键词命中数达到3
func (m *GenrePatternMatcher) defaultConventionMet(conv models.Convention, corpus string, analysis contentAnalysis) bool {
	terms := m.termExtract.FindAllString(strings.ToLower(conv.Description), -1)
	matched := 0
	for _, term := range terms {
		if strings.Contains(corpus, term) {
			matched++
		}
	}
	return matched >= 2 || analysis.keywordMatches >= 3
}

// complianceConfidence 置信度: 基础0.7，按输入规模与命中占比加成
func (m *GenrePatternMatcher) complianceConfidence(beatCount, characterCount int, analysis contentAnalysis) float64 {
	confidence := 0.7
	if beatCount >= 5 {
		confidence += 0.1
	}
	if characterCount >= 3 {
		confidence += 0.1
	}
	if analysis.keywordRatio >= 0.3 {
		confidence += 0.1
	}
	if analysis.characterRatio >= 0.5 {
		confidence += 0.05
	}
	return clamp(confidence, 0.1, 0.95)
}

// improvements 有序生成真实性改进建议，最多5条:
// 缺失惯例 → 内容质量缺口 → 分数区间建议
func (m *GenrePatternMatcher) improvements(tmpl *models.GenreTemplate, compliance models.ConventionCompliance, analysis contentAnalysis) []string {
	recs := make([]string, 0, maxImprovements)
	add := func(msg string) {
		if len(recs) < maxImprovements {
			recs = append(recs, msg)
		}
	}

	for _, name := range compliance.MissingConventions {
		add(fmt.Sprintf("Strengthen the %q convention with scenes that demonstrate it directly", name))
	}

	if analysis.keywordMatches < 3 {
		add(fmt.Sprintf("Weave more %s vocabulary and imagery into beat descriptions", tmpl.ID))
	}
	if analysis.characterMatches < 2 {
		add(fmt.Sprintf("Include recognizable %s character roles among the cast", tmpl.ID))
	}
	if analysis.atmosphereScore < 0.3 {
		add(fmt.Sprintf("Build a stronger %s atmosphere through setting and mood details", tmpl.ID))
	}

	switch {
	case compliance.Score < 0.5:
		add("Rework the story structure around the genre's core conventions")
	case compliance.Score < complianceThreshold:
		add("Fine-tune individual beats to align more closely with genre expectations")
	}

	return recs
}

// genreBeats 逐节拍评估类型相关度; 规范节拍直接记为高相关，
// 其余按词汇命中数分级，低于阈值的节拍不纳入输出
func (m *GenrePatternMatcher) genreBeats(beats []models.InputBeat, tmpl *models.GenreTemplate) []models.GenreBeat {
	vocab := m.vocabularies[tmpl.ID]
	out := make([]models.GenreBeat, 0, len(beats))

	for _, beat := range beats {
		relevance := ""
		switch {
		case beat.Type != "" && tmpl.HasCommonBeat(beat.Type):
			relevance = "high"
		default:
			hits := countCorpusHits(strings.ToLower(beat.Description), vocab.keywords)
			switch {
			case hits >= 3:
				relevance = "high"
			case hits >= 1:
				relevance = "medium"
			}
		}
		if relevance == "" {
			continue
		}

		out = append(out, models.GenreBeat{
			Type:       beat.Type,
			Relevance:  relevance,
			Suggestion: m.beatSuggestion(beat.Type, tmpl.ID),
		})
	}
	return out
}

// beatSuggestion 先查类型+流派的专属建议，无则给通用兜底
func (m *GenrePatternMatcher) beatSuggestion(beatType, genreID string) string {
	if byGenre, ok := m.beatSuggestions[beatType]; ok {
		if s, ok := byGenre[genreID]; ok {
			return s
		}
	}
	return fmt.Sprintf("Enhance this beat with stronger %s elements", genreID)
}

// beatCorpus 将全部节拍描述拼为一个小写语料
func beatCorpus(beats []models.InputBeat) string {
	var b strings.Builder
	for i, beat := range beats {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(beat.Description)
	}
	return strings.ToLower(b.String())
}

// countCorpusHits 每个词汇项在语料中出现记一次命中
func countCorpusHits(corpus string, vocabulary []string) int {
	hits := 0
	for _, kw := range vocabulary {
		if strings.Contains(corpus, kw) {
			hits++
		}
	}
	return hits
}

func containsAnyWord(corpus string, vocabulary []string) bool {
	return countCorpusHits(corpus, vocabulary) > 0
}

// matchesArchetype 角色列表与模板原型互相包含即视为命中
func matchesArchetype(characters, archetypes []string) bool {
	for _, c := range characters {
		lc := strings.ToLower(c)
		for _, a := range archetypes {
			la := strings.ToLower(a)
			if strings.Contains(lc, la) || strings.Contains(la, lc) {
				return true
			}
		}
	}
	return false
}

func ratioOf(matches, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(matches) / float64(total)
}
