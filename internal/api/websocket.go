// internal/api/websocket.go
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// WebSocket 升级器配置
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 生产环境应做更严格的来源检查
		return true
	},
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 45 * time.Second
)

// ProgressWebSocket 订阅后台阶段运行的进度推送
// 任务结束后推送最终状态并关闭连接
func (h *Handler) ProgressWebSocket(c *gin.Context) {
	taskID := c.Param("taskID")
	tracker, exists := h.progress.GetTracker(taskID)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "任务不存在: " + taskID})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket升级失败", map[string]interface{}{"error": err.Error()})
		return
	}
	defer conn.Close()

	subscriber := tracker.Subscribe()
	defer tracker.Unsubscribe(subscriber)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// 丢弃客户端消息，仅用于探测连接关闭
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case update, ok := <-subscriber:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(update); err != nil {
				return
			}
			if update.Status == "completed" || update.Status == "failed" {
				return
			}
		case <-tracker.Done:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type previewRequest struct {
	SystemPrompt string `json:"system_prompt"`
	Prompt       string `json:"prompt"`
}

type previewChunk struct {
	Text  string `json:"text,omitempty"`
	Done  bool   `json:"done"`
	Error string `json:"error,omitempty"`
}

// PreviewWebSocket 流式生成预览
// 客户端发送一条JSON请求，服务端把模型输出逐块推回
func (h *Handler) PreviewWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket升级失败", map[string]interface{}{"error": err.Error()})
		return
	}
	defer conn.Close()

	var req previewRequest
	conn.SetReadDeadline(time.Now().Add(pongWait))
	if err := conn.ReadJSON(&req); err != nil {
		conn.WriteJSON(previewChunk{Done: true, Error: "请求解析失败: " + err.Error()})
		return
	}
	if req.Prompt == "" {
		conn.WriteJSON(previewChunk{Done: true, Error: "缺少 prompt 字段"})
		return
	}

	ctx := c.Request.Context()
	stream, err := h.llm.GenerateStream(ctx, req.SystemPrompt, req.Prompt)
	if err != nil {
		conn.WriteJSON(previewChunk{Done: true, Error: err.Error()})
		return
	}

	for chunk := range stream {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if chunk.Done {
			conn.WriteJSON(previewChunk{Done: true})
			return
		}
		if err := conn.WriteJSON(previewChunk{Text: chunk.Text}); err != nil {
			return
		}
	}

	conn.WriteJSON(previewChunk{Done: true})
}
