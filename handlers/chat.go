package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cardsavvy/api/logger"
	"cardsavvy/api/middleware"
	"cardsavvy/api/sse"
	"cardsavvy/api/worker"
)

// HandleGetChat returns the caller's message history, seeding the welcome
// message on first contact.
func (a *API) HandleGetChat(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	msgs, err := a.assistant.History(c.Request.Context(), userID)
	if err != nil {
		logger.Get().Error("failed to load chat history", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, msgs)
}

type sendChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// HandleSendChat processes one user turn. With ?stream=true the turn is
// queued on the worker pool and the reply arrives over the SSE stream;
// otherwise the reply is generated inline and returned in the response.
func (a *API) HandleSendChat(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	var req sendChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if c.Query("stream") == "true" {
		a.pool.Submit(worker.ChatJob{UserID: userID, Text: req.Message})
		c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
		return
	}

	msg, cls, err := a.assistant.Send(c.Request.Context(), userID, req.Message)
	if err != nil {
		logger.Get().Error("chat turn failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "classification": cls})
}

// HandleClearChat wipes the history and returns the fresh welcome message.
func (a *API) HandleClearChat(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	welcome, err := a.assistant.Clear(c.Request.Context(), userID)
	if err != nil {
		logger.Get().Error("failed to clear chat", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, []any{welcome})
}

// HandleChatTitle returns a short title for the conversation.
func (a *API) HandleChatTitle(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)
	title, err := a.assistant.Title(c.Request.Context(), userID)
	if err != nil {
		logger.Get().Error("failed to generate chat title", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"title": title})
}

// HandleChatStream holds an SSE connection open and relays assistant reply
// chunks produced by the worker pool. One stream per user; a new connection
// replaces the old one.
func (a *API) HandleChatStream(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	stream := sse.Register(userID)
	defer sse.Unregister(userID)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.String(http.StatusInternalServerError, "streaming unsupported")
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	logger.Get().Info("sse stream opened", zap.String("user_id", userID))
	defer logger.Get().Info("sse stream closed", zap.String("user_id", userID))

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-stream.Messages:
			if !ok {
				return false
			}
			c.Writer.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()
			return true
		case <-stream.Done:
			return false
		case <-c.Request.Context().Done():
			return false
		}
	})
}
