// internal/models/plotthread.go
package models

// ThreadType 表示情节线的类别
type ThreadType string

const (
	// ThreadMainPlot 主线情节
	ThreadMainPlot ThreadType = "main_plot"
	// ThreadSubplot 支线情节
	ThreadSubplot ThreadType = "subplot"
	// ThreadCharacterArc 角色成长线
	ThreadCharacterArc ThreadType = "character_arc"
)

// ThreadStatus 表示情节线的生命周期状态
type ThreadStatus string

const (
	// ThreadIntroduced 已引入但尚未展开
	ThreadIntroduced ThreadStatus = "introduced"
	// ThreadDeveloping 正在推进
	ThreadDeveloping ThreadStatus = "developing"
	// ThreadClimaxing 接近高潮但尚未收束
	ThreadClimaxing ThreadStatus = "climaxing"
	// ThreadResolved 已收束
	ThreadResolved ThreadStatus = "resolved"
)

// PlotThread 表示从文本中提取的一条情节线
type PlotThread struct {
	ID           string       `json:"id"`
	Type         ThreadType   `json:"type"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Status       ThreadStatus `json:"status"`
	Characters   []string     `json:"characters,omitempty"`
	FirstMention float64      `json:"first_mention"`
	LastMention  float64      `json:"last_mention"`
	Coverage     float64      `json:"coverage"`
	Confidence   float64      `json:"confidence"`
	KeyMoments   []string     `json:"key_moments,omitempty"`
}

// ThreadInteraction 表示两条情节线之间的交叉
type ThreadInteraction struct {
	ThreadA          string   `json:"thread_a"`
	ThreadB          string   `json:"thread_b"`
	InteractionType  string   `json:"interaction_type"`
	SharedCharacters []string `json:"shared_characters"`
	Strength         float64  `json:"strength"`
}

// ThreadLifecycle 表示全部情节线的生命周期分布
type ThreadLifecycle struct {
	Stages         map[string][]string `json:"stages"`
	CompletionRate float64             `json:"completion_rate"`
	ActiveThreads  int                 `json:"active_threads"`
	BalanceScore   float64             `json:"balance_score"`
}

// CharacterArc 表示一个角色的发展轨迹
type CharacterArc struct {
	Name       string       `json:"name"`
	ArcType    string       `json:"arc_type"`
	Stage      ThreadStatus `json:"stage"`
	KeyMoments []string     `json:"key_moments,omitempty"`
}

// ThreadReport 表示一次 track_plot_threads 分析的完整结果
type ThreadReport struct {
	ThreadFocus     string              `json:"thread_focus"`
	Threads         []PlotThread        `json:"threads"`
	CharacterArcs   []CharacterArc      `json:"character_arcs"`
	Interactions    []ThreadInteraction `json:"interactions"`
	Lifecycle       ThreadLifecycle     `json:"lifecycle"`
	Recommendations []string            `json:"recommendations"`
	Confidence      float64             `json:"confidence"`
}
