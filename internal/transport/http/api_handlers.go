package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/talkline/talkline-server/internal/auth"
	"github.com/talkline/talkline-server/internal/core"
	"github.com/talkline/talkline-server/internal/proto"
	"github.com/talkline/talkline-server/internal/service/chats"
	"github.com/talkline/talkline-server/internal/service/reads"
	"github.com/talkline/talkline-server/internal/store"
)

// APIHandlers provides HTTP handlers for REST API endpoints.
type APIHandlers struct {
	authService *auth.Service
	resolver    *chats.Resolver
	reads       *reads.Calculator
	store       store.Store
	log         *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(authService *auth.Service, resolver *chats.Resolver, calc *reads.Calculator, st store.Store, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		authService: authService,
		resolver:    resolver,
		reads:       calc,
		store:       st,
		log:         logger,
	}
}

// RegisterRequest represents the registration request body.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=64"`
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents the authentication response body.
type AuthResponse struct {
	Token string `json:"token"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Avatar   string `json:"avatar,omitempty"`
	Status   string `json:"status"`
	LastSeen int64  `json:"last_seen,omitempty"`
}

// ChatResponse describes a chat created or resolved via the API.
type ChatResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
	Kind string `json:"kind"`
}

// SummaryResponse is one entry of the conversation list.
type SummaryResponse struct {
	ChatID        int64  `json:"chat_id"`
	DisplayName   string `json:"display_name"`
	Kind          string `json:"kind"`
	Icon          string `json:"icon,omitempty"`
	LastMessage   string `json:"last_message,omitempty"`
	LastSender    string `json:"last_sender,omitempty"`
	LastMessageAt int64  `json:"last_message_at,omitempty"`
	UnreadCount   int    `json:"unread_count"`
}

// ResolveChatRequest asks for the individual chat with another user.
type ResolveChatRequest struct {
	UserID int64 `json:"user_id" binding:"required"`
}

// CreateGroupRequest creates a named group chat.
type CreateGroupRequest struct {
	Name      string  `json:"name" binding:"required,min=1,max=64"`
	MemberIDs []int64 `json:"member_ids" binding:"required"`
}

// Register handles user registration.
// POST /api/register
func (h *APIHandlers) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid register request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.authService.Register(c.Request.Context(), req.Name, req.Phone, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			c.JSON(http.StatusConflict, ErrorResponse{Error: "user already exists"})
			return
		}
		if errors.Is(err, auth.ErrInvalidName) || errors.Is(err, auth.ErrInvalidPassword) {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
		h.log.Error().Err(err).Str("phone", req.Phone).Msg("failed to register user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("phone", req.Phone).Msg("user registered successfully")
	c.JSON(http.StatusCreated, AuthResponse{Token: token})
}

// Login handles user login.
// POST /api/login
func (h *APIHandlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid login request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	token, err := h.authService.Login(c.Request.Context(), req.Phone, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
			return
		}
		h.log.Error().Err(err).Str("phone", req.Phone).Msg("failed to login user")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: token})
}

// ListUsers returns the user directory.
// GET /api/users
func (h *APIHandlers) ListUsers(c *gin.Context) {
	users, err := h.store.ListUsers(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, userResponse(u))
	}
	c.JSON(http.StatusOK, resp)
}

// ResolveChat finds or creates the individual chat between the caller and
// another user.
// POST /api/chats/resolve
func (h *APIHandlers) ResolveChat(c *gin.Context) {
	var req ResolveChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	chat, err := h.resolver.ResolveIndividual(c.Request.Context(), currentUserID(c), req.UserID)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, ChatResponse{ID: chat.ID, Name: chat.Name, Kind: string(chat.Kind)})
}

// CreateGroup creates a group chat with the caller as admin.
// POST /api/groups
func (h *APIHandlers) CreateGroup(c *gin.Context) {
	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	chat, err := h.resolver.CreateGroup(c.Request.Context(), currentUserID(c), req.Name, req.MemberIDs)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ChatResponse{ID: chat.ID, Name: chat.Name, Kind: string(chat.Kind)})
}

// ListChats returns the caller's conversation list ordered by recent activity.
// GET /api/chats
func (h *APIHandlers) ListChats(c *gin.Context) {
	summaries, err := h.reads.Summaries(c.Request.Context(), currentUserID(c))
	if err != nil {
		h.writeDomainError(c, err)
		return
	}

	resp := make([]SummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		entry := SummaryResponse{
			ChatID:      s.ChatID,
			DisplayName: s.DisplayName,
			Kind:        string(s.Kind),
			Icon:        s.Icon,
			LastMessage: s.LastMessage,
			LastSender:  s.LastSender,
			UnreadCount: s.UnreadCount,
		}
		if s.LastMessageAt != nil {
			entry.LastMessageAt = s.LastMessageAt.Unix()
		}
		resp = append(resp, entry)
	}
	c.JSON(http.StatusOK, resp)
}

// ChatHistory returns the chat's messages in conversation order.
// GET /api/chats/:chatID/messages
func (h *APIHandlers) ChatHistory(c *gin.Context) {
	chatID, err := strconv.ParseInt(c.Param("chatID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid chat id"})
		return
	}

	history, err := h.reads.History(c.Request.Context(), currentUserID(c), chatID)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}

	messages := make([]proto.EventMessage, 0, len(history))
	for _, m := range history {
		messages = append(messages, messageFromPayload(m))
	}
	c.JSON(http.StatusOK, messages)
}

// MarkChatRead marks every message in the chat as read by the caller.
// POST /api/chats/:chatID/mark-read
func (h *APIHandlers) MarkChatRead(c *gin.Context) {
	chatID, err := strconv.ParseInt(c.Param("chatID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid chat id"})
		return
	}

	created, err := h.reads.MarkRead(c.Request.Context(), currentUserID(c), chatID)
	if err != nil {
		h.writeDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"marked": created})
}

func (h *APIHandlers) writeDomainError(c *gin.Context, err error) {
	ce := core.ErrorFrom(err)
	status := http.StatusBadRequest
	switch ce.Code {
	case core.ErrCodeNotAParticipant:
		status = http.StatusForbidden
	case core.ErrCodeChatNotFound:
		status = http.StatusNotFound
	case core.ErrCodeResolutionConflict:
		status = http.StatusConflict
	case core.ErrCodeStoreUnavailable:
		status = http.StatusInternalServerError
		h.log.Error().Err(err).Msg("request failed")
	}
	c.JSON(status, ErrorResponse{Error: ce.Message, Code: ce.Code})
}

func userResponse(u *store.User) UserResponse {
	resp := UserResponse{
		ID:     u.ID,
		Name:   u.Name,
		Phone:  u.Phone,
		Avatar: u.Avatar,
		Status: string(u.Status),
	}
	if !u.LastSeen.IsZero() {
		resp.LastSeen = u.LastSeen.Unix()
	}
	return resp
}
