package handler

import (
	"net/http"

	"github.com/damoang/angple-chat/internal/common"
	"github.com/damoang/angple-chat/internal/domain"
	"github.com/damoang/angple-chat/internal/middleware"
	"github.com/damoang/angple-chat/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ChatHandler handles conversation and message requests
type ChatHandler struct {
	users    service.UserService
	chats    service.ChatService
	messages service.MessageService
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(users service.UserService, chats service.ChatService, messages service.MessageService) *ChatHandler {
	return &ChatHandler{
		users:    users,
		chats:    chats,
		messages: messages,
	}
}

// Contacts handles GET /api/chat/contacts
// @Summary 연락처 목록
// @Description 나를 제외한 전체 사용자
// @Tags chat
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/chat/contacts [get]
func (h *ChatHandler) Contacts(c *gin.Context) {
	contacts, err := h.users.Contacts(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		common.ServiceError(c, "Failed to load contacts", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contacts": contacts})
}

// ResolveOrCreate handles POST /api/chat/new
// 201 when the chat was created, 200 when it already existed
// @Summary 1:1 대화 열기
// @Tags chat
// @Accept json
// @Produce json
// @Param request body domain.NewChatRequest true "상대 사용자"
// @Success 200 {object} map[string]interface{}
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/chat/new [post]
func (h *ChatHandler) ResolveOrCreate(c *gin.Context) {
	var req domain.NewChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	chat, created, err := h.chats.ResolveOrCreate(c.Request.Context(), middleware.GetUserID(c), req.UserID)
	if err != nil {
		common.ServiceError(c, serviceMessage(err, "Could not open chat"), err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"chat": chat})
}

// MyChats handles GET /api/chat/user
// @Summary 내 대화 목록
// @Description 최근 활동 순
// @Tags chat
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/chat/user [get]
func (h *ChatHandler) MyChats(c *gin.Context) {
	chats, err := h.chats.ListForUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		common.ServiceError(c, "Failed to load chats", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// History handles GET /api/chat/:chatId/messages
// @Summary 메시지 기록
// @Description 오래된 순. 참여자만 조회 가능
// @Tags chat
// @Produce json
// @Param chatId path string true "대화 ID"
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/chat/{chatId}/messages [get]
func (h *ChatHandler) History(c *gin.Context) {
	chatID := c.Param("chatId")
	if _, err := uuid.Parse(chatID); err != nil {
		common.ErrorResponse(c, http.StatusNotFound, "Chat not found", common.ErrNotFound)
		return
	}
	if !h.requireParticipant(c, chatID) {
		return
	}

	messages, err := h.messages.History(c.Request.Context(), chatID)
	if err != nil {
		common.ServiceError(c, serviceMessage(err, "Failed to load messages"), err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

// Send handles POST /api/chat/:chatId/message
// @Summary 메시지 전송
// @Tags chat
// @Accept json
// @Produce json
// @Param chatId path string true "대화 ID"
// @Param request body domain.SendMessageRequest true "메시지"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Security BearerAuth
// @Router /api/chat/{chatId}/message [post]
func (h *ChatHandler) Send(c *gin.Context) {
	chatID := c.Param("chatId")

	var req domain.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	msg, err := h.messages.Append(c.Request.Context(), chatID, middleware.GetUserID(c), req.Content)
	if err != nil {
		common.ServiceError(c, serviceMessage(err, "Failed to send message"), err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"messageData": msg})
}

// requireParticipant writes 403 and returns false unless the caller belongs to chatID
func (h *ChatHandler) requireParticipant(c *gin.Context, chatID string) bool {
	ok, err := h.chats.IsParticipant(c.Request.Context(), chatID, middleware.GetUserID(c))
	if err != nil {
		common.ServiceError(c, "Failed to load chat", err)
		return false
	}
	if !ok {
		common.ErrorResponse(c, http.StatusForbidden, "You are not a participant of this chat", common.ErrForbidden)
		return false
	}
	return true
}
