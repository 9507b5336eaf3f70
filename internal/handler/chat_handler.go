package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/pr-poehali-dev/tour-booking-platform/internal/action"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin проверяет CORS на уровне маршрутизатора.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type sendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// ListMessages обработчик для GET /api/bookings/:id/messages.
func (h *Handler) ListMessages(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	list, err := h.Chat.Messages(c.Request.Context(), id, currentUser(c).ID)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": list})
}

// SendMessage обработчик для POST /api/bookings/:id/messages.
func (h *Handler) SendMessage(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	list, err := h.Chat.Send(c.Request.Context(), id, currentUser(c).ID, req.Message)
	if err != nil {
		h.respondError(c, err, nil)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"messages": list})
}

// chatCommand представляет сообщение клиента в WebSocket: изменение черновика или отправка.
type chatCommand struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ChatStream обработчик для GET /api/bookings/:id/chat - окно чата по WebSocket.
// Опрос сообщений живёт, пока открыто соединение.
func (h *Handler) ChatStream(c *gin.Context) {
	id, ok := intParam(c, "id")
	if !ok {
		return
	}
	user := currentUser(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	room := h.Chat.Open(ctx, id, user.ID)
	defer room.Close()

	errs := make(chan string, 1)
	go func() {
		defer cancel()
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			var cmd chatCommand
			if err := conn.ReadJSON(&cmd); err != nil {
				return
			}
			switch cmd.Type {
			case "draft":
				room.SetDraft(cmd.Text)
			case "send":
				room.SetDraft(cmd.Text)
				if err := room.Submit(ctx); err != nil && !errors.Is(err, action.ErrInFlight) {
					select {
					case errs <- err.Error():
					default:
					}
				}
			}
		}
	}()

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-room.Updates():
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(gin.H{"type": "snapshot", "chat": snap}); err != nil {
				return
			}
		case msg := <-errs:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(gin.H{"type": "error", "error": msg}); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
