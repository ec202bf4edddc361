package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/session"
)

// CreateSessionRequest starts a new interview
type CreateSessionRequest struct {
	ParticipantName string `json:"participant_name"`
}

// PostMessageRequest carries one candidate reply
type PostMessageRequest struct {
	Message string `json:"message" binding:"required"`
}

// CreateSession creates a session and returns the greeting
func (s *Server) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	sess := s.sessions.Create(req.ParticipantName)
	greeting, err := sess.Start(c.Request.Context())
	if err != nil {
		s.logger.Error("session start failed", "error", err)
		_ = s.sessions.Delete(sess.ID())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start interview"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"session_id": sess.ID(),
		"greeting":   greeting,
	})
}

// GetSession returns a snapshot of the session state
func (s *Server) GetSession(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	state := sess.State()
	if state == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "session not started"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id":       sess.ID(),
		"participant_name": state.ParticipantName,
		"current_turn":     state.CurrentTurn,
		"difficulty":       state.CurrentDifficulty.String(),
		"is_active":        state.IsActive,
		"covered_topics":   state.CoveredTopics,
	})
}

// PostMessage processes one candidate reply
func (s *Server) PostMessage(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	reply, done, err := sess.Process(c.Request.Context(), req.Message)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrFinished):
			c.JSON(http.StatusConflict, gin.H{"error": "interview is over"})
		case errors.Is(err, session.ErrNotStarted):
			c.JSON(http.StatusConflict, gin.H{"error": "session not started"})
		default:
			s.logger.Error("turn processing failed", "session_id", sess.ID(), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process message"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"reply": reply,
		"done":  done,
	})
}

// FinishSession produces the final feedback
func (s *Server) FinishSession(c *gin.Context) {
	sess, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	feedback, summaryPath, detailedPath, err := sess.Finish(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, session.ErrFinished):
			c.JSON(http.StatusConflict, gin.H{"error": "interview already finished"})
		case errors.Is(err, session.ErrNotStarted):
			c.JSON(http.StatusConflict, gin.H{"error": "session not started"})
		default:
			s.logger.Error("finish failed", "session_id", sess.ID(), "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to finish interview"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feedback":           feedback,
		"feedback_formatted": feedback.FormatString(),
		"summary_log":        summaryPath,
		"detailed_log":       detailedPath,
	})
}

// DeleteSession closes and removes a session
func (s *Server) DeleteSession(c *gin.Context) {
	if err := s.sessions.Delete(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

// ListModels returns the models the LM endpoint serves, cached
func (s *Server) ListModels(c *gin.Context) {
	models, err := s.modelCache.Models(c.Request.Context(), s.models.ListModels)
	if err != nil {
		s.logger.Error("model discovery failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "model discovery failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": models})
}
