// internal/api/websocket.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/Corphon/StoryPulseMCP/internal/models"
	"github.com/Corphon/StoryPulseMCP/internal/utils"
)

// WebSocket 升级器配置
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 在生产环境中应该进行更严格的检查
		return true
	},
}

const wsWriteTimeout = 10 * time.Second

// WSAnalyzeRequest WebSocket分析请求
// 每条消息携带一个工具名与对应的载荷字段
type WSAnalyzeRequest struct {
	Tool           string               `json:"tool"`
	StoryContent   string               `json:"story_content,omitempty"`
	Genre          string               `json:"genre,omitempty"`
	NarrativeBeats []models.InputBeat   `json:"narrative_beats,omitempty"`
	StoryBeats     []models.InputBeat   `json:"story_beats,omitempty"`
	CharacterTypes []string             `json:"character_types,omitempty"`
	StoryElements  models.StoryElements `json:"story_elements,omitempty"`
	ThreadFocus    string               `json:"thread_focus,omitempty"`
	ProjectID      string               `json:"project_id,omitempty"`
}

// WSMessage WebSocket下行消息
type WSMessage struct {
	Type  string      `json:"type"` // status / result / error
	Tool  string      `json:"tool,omitempty"`
	Stage string      `json:"stage,omitempty"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// AnalyzeWebSocket 流式分析端点
// 客户端在一条连接上串行提交分析请求，服务端推送阶段状态与最终结果
func (h *Handler) AnalyzeWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.GetLogger().Error("websocket upgrade failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}
	defer conn.Close()

	logger := utils.GetLogger()
	for {
		var req WSAnalyzeRequest
		if err := conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Warn("websocket closed unexpectedly", map[string]interface{}{
					"error": err.Error(),
				})
			}
			return
		}

		if err := h.runStreamedAnalysis(conn, req); err != nil {
			return
		}
	}
}

// runStreamedAnalysis 执行单个请求并推送 status->result/error 序列
func (h *Handler) runStreamedAnalysis(conn *websocket.Conn, req WSAnalyzeRequest) error {
	if err := writeWS(conn, WSMessage{Type: "status", Tool: req.Tool, Stage: "started"}); err != nil {
		return err
	}

	start := time.Now()
	var result interface{}
	var err error

	switch req.Tool {
	case "analyze_story_structure":
		result, err = h.StructureAnalyzer.Analyze(req.StoryContent, req.Genre)
	case "calculate_pacing":
		result, err = h.TensionEngine.Calculate(req.NarrativeBeats, req.Genre)
	case "apply_genre_patterns":
		result, err = h.GenreMatcher.Analyze(req.StoryBeats, req.CharacterTypes, req.Genre)
	case "validate_consistency":
		result, err = h.Consistency.Validate(&req.StoryElements)
	case "track_plot_threads":
		result, err = h.PlotTracker.Track(req.StoryContent, req.ThreadFocus)
	default:
		return writeWS(conn, WSMessage{Type: "error", Tool: req.Tool, Error: "unknown tool: " + req.Tool})
	}
	h.Metrics.RecordAnalysis(req.Tool, time.Since(start), err)

	if err != nil {
		return writeWS(conn, WSMessage{Type: "error", Tool: req.Tool, Error: err.Error()})
	}

	h.saveResult(req.ProjectID, req.Tool, result)
	return writeWS(conn, WSMessage{Type: "result", Tool: req.Tool, Data: result})
}

func writeWS(conn *websocket.Conn, msg WSMessage) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(msg)
}
