package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/princeprakhar/roomies-backend/internal/services"
	"github.com/princeprakhar/roomies-backend/internal/utils"
	"github.com/princeprakhar/roomies-backend/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxInboundSize = 512
)

type ChatHandler struct {
	chatService *services.ChatService
	upgrader    websocket.Upgrader
}

// NewChatHandler accepts websocket upgrades from allowedOrigins; an empty
// list or "*" accepts any origin.
func NewChatHandler(chatService *services.ChatService, allowedOrigins []string) *ChatHandler {
	origins := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		origins[origin] = true
	}
	return &ChatHandler{
		chatService: chatService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(origins) == 0 || origins["*"] || origins[origin]
			},
		},
	}
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req services.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data")
		return
	}

	response, err := h.chatService.SendMessage(c.Request.Context(), currentUser(c), req)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendCreated(c, "Message sent", response)
}

func (h *ChatHandler) ListChats(c *gin.Context) {
	chats, err := h.chatService.ListChats(c.Request.Context(), currentUser(c))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Chats retrieved successfully", gin.H{"chats": chats})
}

func (h *ChatHandler) GetChat(c *gin.Context) {
	chat, err := h.chatService.GetChat(c.Request.Context(), currentUser(c), c.Param("chat_id"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Chat retrieved successfully", chat)
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	updated, err := h.chatService.MarkRead(c.Request.Context(), currentUser(c), c.Param("chat_id"))
	if err != nil {
		utils.SendAppError(c, err)
		return
	}

	utils.SendSuccess(c, "Messages marked as read", gin.H{"updated": updated})
}

// Stream relays new messages of a chat over a websocket. The connection is
// receive-only; messages are sent through SendMessage.
func (h *ChatHandler) Stream(c *gin.Context) {
	username := currentUser(c)
	chatID := c.Param("chat_id")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages, unsubscribe, err := h.chatService.Subscribe(ctx, username, chatID)
	if err != nil {
		utils.SendAppError(c, err)
		return
	}
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		logger.WithFields(logger.Fields{"user": username, "chat_id": chatID}).WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()

	log := logger.WithFields(logger.Fields{"user": username, "chat_id": chatID})
	log.Debug("chat stream opened")

	go readUntilClosed(conn, cancel)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-messages:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(msg); err != nil {
				log.WithError(err).Debug("chat stream write failed")
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			log.Debug("chat stream closed")
			return
		}
	}
}

// readUntilClosed drains client frames so pongs and close frames are
// processed, and cancels the stream once the client goes away.
func readUntilClosed(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	conn.SetReadLimit(maxInboundSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Warnf("chat stream read error: %v", err)
			}
			return
		}
	}
}
