package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/http/response"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
	"github.com/yungbote/interview-brief-backend/internal/services"
)

type SessionHandler struct {
	log      *logger.Logger
	sessions services.SessionService
}

func NewSessionHandler(log *logger.Logger, sessions services.SessionService) *SessionHandler {
	return &SessionHandler{log: log.With("handler", "SessionHandler"), sessions: sessions}
}

func sessionID(c *gin.Context) (string, bool) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		response.RespondAPIError(c, domain.ValidationError("session_id", "session id is required"))
		return "", false
	}
	return id, true
}

func actor(c *gin.Context) (services.Actor, bool) {
	a, err := services.ActorFromContext(c.Request.Context())
	if err != nil {
		response.RespondAPIError(c, err)
		return services.Actor{}, false
	}
	return a, true
}

// bindOptionalJSON decodes the body into dst; an empty body leaves dst zero.
func bindOptionalJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil && !errors.Is(err, io.EOF) {
		response.RespondAPIError(c, domain.ValidationError("decode_body", "invalid JSON body"))
		return false
	}
	return true
}

// POST /api/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	var req services.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondAPIError(c, domain.ValidationError("create_session", "invalid JSON body"))
		return
	}
	res, err := h.sessions.CreateSession(c.Request.Context(), a, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondCreated(c, res)
}

// GET /api/sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	list, err := h.sessions.ListSessions(c.Request.Context(), a)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	if list == nil {
		list = []*domain.Session{}
	}
	response.RespondOK(c, gin.H{"sessions": list})
}

// GET /api/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := sessionID(c)
	if !ok {
		return
	}
	view, err := h.sessions.GetSession(c.Request.Context(), a, id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, view)
}

// POST /api/sessions/:id/pipeline
func (h *SessionHandler) StartPipeline(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if err := h.sessions.StartPipeline(c.Request.Context(), a, id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"sessionId": id, "message": "Pipeline started"})
}

// POST /api/sessions/:id/send-packet
// body: { "deliveryMethod": "email" | "manual" }
func (h *SessionHandler) SendPacket(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var req services.SendPacketRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	res, err := h.sessions.SendPacket(c.Request.Context(), a, id, req)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/sessions/:id/corrections (public)
func (h *SessionHandler) SubmitCorrections(c *gin.Context) {
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var sub services.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		response.RespondAPIError(c, domain.ValidationError("submit_corrections", "invalid JSON body"))
		return
	}
	res, err := h.sessions.SubmitCorrections(c.Request.Context(), id, sub)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/sessions/:id/update-brief
func (h *SessionHandler) UpdateBrief(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := sessionID(c)
	if !ok {
		return
	}
	res, err := h.sessions.UpdateBrief(c.Request.Context(), a, id)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/sessions/:id/synthesis
// body: interview notes
func (h *SessionHandler) Synthesize(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := sessionID(c)
	if !ok {
		return
	}
	var notes domain.Notes
	if err := c.ShouldBindJSON(&notes); err != nil {
		response.RespondAPIError(c, domain.ValidationError("synthesize", "invalid JSON body"))
		return
	}
	res, err := h.sessions.Synthesize(c.Request.Context(), a, id, notes)
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, res)
}

// POST /api/sessions/:id/abort
func (h *SessionHandler) Abort(c *gin.Context) {
	a, ok := actor(c)
	if !ok {
		return
	}
	id, ok := sessionID(c)
	if !ok {
		return
	}
	if err := h.sessions.Abort(c.Request.Context(), a, id); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sessionId": id, "status": domain.StatusAborted})
}
