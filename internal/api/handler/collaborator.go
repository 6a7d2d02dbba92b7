package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/jon4hz/gradeboard/internal/dashboard"
	"github.com/jon4hz/gradeboard/internal/extract"
	"github.com/jon4hz/gradeboard/internal/session"
)

// remoteSource names imports pushed by the extraction collaborator.
const remoteSource = "collaborator"

type setLoadingRequest struct {
	Loading *bool `json:"loading" binding:"required"`
}

// SetLoading is called by the collaborator when it starts and finishes extracting.
func (h *Handler) SetLoading(c *gin.Context) {
	var req setLoadingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}
	_ = h.update(c, c.Param("id"), func(s *dashboard.Store) error {
		s.SetLoading(*req.Loading)
		return nil
	})
}

// SetUsers replaces the session's users with the extracted records.
func (h *Handler) SetUsers(c *gin.Context) {
	users, err := extract.NewJSON().Extract(c.Request.Context(), c.Request.Body)
	if err != nil {
		h.badRequest(c, err.Error())
		return
	}

	id := c.Param("id")
	if !session.ValidID(id) {
		h.badRequest(c, "Invalid session id")
		return
	}
	run := h.startRun(c.Request.Context(), id, remoteSource, "remote")
	err = h.update(c, id, func(s *dashboard.Store) error {
		s.SetUsers(users)
		return nil
	})
	h.completeRun(c.Request.Context(), run, len(users), err)
}

type setErrorRequest struct {
	Message string `json:"message" binding:"required"`
}

// SetError reports a failed extraction. The session's users are cleared.
func (h *Handler) SetError(c *gin.Context) {
	var req setErrorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}

	id := c.Param("id")
	if !session.ValidID(id) {
		h.badRequest(c, "Invalid session id")
		return
	}
	run := h.startRun(c.Request.Context(), id, remoteSource, "remote")
	if err := h.update(c, id, func(s *dashboard.Store) error {
		s.SetError(req.Message)
		return nil
	}); err != nil {
		h.completeRun(c.Request.Context(), run, 0, err)
		return
	}
	h.completeRun(c.Request.Context(), run, 0, errors.New(req.Message))
}
