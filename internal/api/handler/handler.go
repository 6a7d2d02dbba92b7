package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/gradeboard/internal/api/auth"
	"github.com/jon4hz/gradeboard/internal/api/models"
	"github.com/jon4hz/gradeboard/internal/cache"
	"github.com/jon4hz/gradeboard/internal/dashboard"
	"github.com/jon4hz/gradeboard/internal/database"
	"github.com/jon4hz/gradeboard/internal/extract"
	"github.com/jon4hz/gradeboard/internal/scheduler"
	"github.com/jon4hz/gradeboard/internal/session"
)

// Handler serves the dashboard API.
type Handler struct {
	registry      *session.Registry
	db            database.DB
	cache         *cache.SessionCache
	scheduler     *scheduler.Scheduler
	maxUploadSize int64
}

// New creates a new Handler. The scheduler may be nil.
func New(registry *session.Registry, db database.DB, c *cache.SessionCache, sched *scheduler.Scheduler, maxUploadSize int64) *Handler {
	return &Handler{
		registry:      registry,
		db:            db,
		cache:         c,
		scheduler:     sched,
		maxUploadSize: maxUploadSize,
	}
}

// State returns the session's full state with its derived views.
func (h *Handler) State(c *gin.Context) {
	store, ok := h.load(c, auth.SessionID(c))
	if !ok {
		return
	}
	h.respondState(c, http.StatusOK, store)
}

// Grades returns the unique grades and the number of users per grade.
func (h *Handler) Grades(c *gin.Context) {
	store, ok := h.load(c, auth.SessionID(c))
	if !ok {
		return
	}
	summary := models.ToGradeSummary(store.View())
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"uniqueGrades": summary.UniqueGrades,
		"gradeCounts":  summary.GradeCounts,
	})
}

// Users returns the users matching the selected grade chip.
func (h *Handler) Users(c *gin.Context) {
	store, ok := h.load(c, auth.SessionID(c))
	if !ok {
		return
	}
	view := store.View()
	c.JSON(http.StatusOK, gin.H{
		"success":              true,
		"selectedGradeForChip": view.SelectedGradeForChip,
		"users":                models.ToUserItems(view.UsersBySelectedGrade),
	})
}

type selectUserRequest struct {
	ID *string `json:"id"`
}

// SelectUser selects a user by id. A null or empty id clears the selection.
func (h *Handler) SelectUser(c *gin.Context) {
	var req selectUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}
	id := ""
	if req.ID != nil {
		id = *req.ID
	}
	_ = h.update(c, auth.SessionID(c), func(s *dashboard.Store) error {
		s.SetSelectedUser(id)
		return nil
	})
}

type selectGradeRequest struct {
	Grade *int `json:"grade"`
}

// SelectGrade sets or clears the grade chip filter.
func (h *Handler) SelectGrade(c *gin.Context) {
	var req selectGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "Invalid request body")
		return
	}
	_ = h.update(c, auth.SessionID(c), func(s *dashboard.Store) error {
		s.SetSelectedGradeForChip(req.Grade)
		return nil
	})
}

// Import loads an uploaded file into the session's store.
func (h *Handler) Import(c *gin.Context) {
	sessionID := auth.SessionID(c)
	ctx := c.Request.Context()

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)
	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"success": false,
				"error":   fmt.Sprintf("Upload exceeds the limit of %s", h.humanSize(h.maxUploadSize)),
			})
			return
		}
		h.badRequest(c, "Missing file")
		return
	}

	extractor, err := extract.ForFilename(file.Filename)
	if err != nil {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	f, err := file.Open()
	if err != nil {
		log.Error("Failed to open upload", "file", file.Filename, "error", err)
		h.internalError(c, "Failed to read upload")
		return
	}
	defer f.Close()

	run := h.startRun(ctx, sessionID, file.Filename, extractor.String())

	target := h.registry.Target(ctx, sessionID)
	result := dashboard.Import(ctx, target, extractor, f)
	h.completeRun(ctx, run, result.Records, result.Err)

	if err := target.Err(); err != nil {
		h.internalError(c, "Failed to store import")
		return
	}
	store, ok := h.load(c, sessionID)
	if !ok {
		return
	}

	resp := models.ImportResponse{
		Success:  result.Succeeded(),
		Source:   file.Filename,
		Size:     h.humanSize(file.Size),
		Records:  result.Records,
		Duration: result.Duration.Round(time.Millisecond).String(),
		State:    models.ToDashboardState(store.View()),
	}
	status := http.StatusOK
	if !result.Succeeded() {
		resp.Error = result.Err.Error()
		status = http.StatusBadRequest
	}
	c.JSON(status, resp)
}

// DeleteSession discards the session's store and cookie.
func (h *Handler) DeleteSession(c *gin.Context) {
	if err := h.registry.Delete(c.Request.Context(), auth.SessionID(c)); err != nil {
		log.Error("Failed to delete session", "error", err)
		h.internalError(c, "Failed to delete session")
		return
	}
	if err := auth.ForgetSession(c); err != nil {
		log.Error("Failed to clear session cookie", "error", err)
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Health reports that the server is up.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) load(c *gin.Context, id string) (*dashboard.Store, bool) {
	store, err := h.registry.Load(c.Request.Context(), id)
	if err != nil {
		h.registryError(c, err)
		return nil, false
	}
	return store, true
}

func (h *Handler) update(c *gin.Context, id string, fn func(*dashboard.Store) error) error {
	store, err := h.registry.Update(c.Request.Context(), id, fn)
	if err != nil {
		h.registryError(c, err)
		return err
	}
	h.respondState(c, http.StatusOK, store)
	return nil
}

func (h *Handler) respondState(c *gin.Context, status int, store *dashboard.Store) {
	c.JSON(status, gin.H{
		"success": true,
		"state":   models.ToDashboardState(store.View()),
	})
}

func (h *Handler) registryError(c *gin.Context, err error) {
	if errors.Is(err, session.ErrInvalidID) {
		h.badRequest(c, "Invalid session id")
		return
	}
	log.Error("Session store failure", "error", err)
	h.internalError(c, "Failed to access session")
}

func (h *Handler) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": msg})
}

func (h *Handler) internalError(c *gin.Context, msg string) {
	c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": msg})
}

func (h *Handler) humanSize(n int64) string {
	size, err := safecast.ToUint64(n)
	if err != nil {
		return "0 B"
	}
	return humanize.Bytes(size)
}

// startRun records the start of an import. Audit failures never block an import.
func (h *Handler) startRun(ctx context.Context, sessionID, source, extractor string) *database.ImportRun {
	run, err := h.db.StartImportRun(ctx, sessionID, source, extractor)
	if err != nil {
		log.Warn("Import will not be audited", "session", sessionID, "error", err)
		return nil
	}
	return run
}

func (h *Handler) completeRun(ctx context.Context, run *database.ImportRun, records int, importErr error) {
	if run == nil {
		return
	}
	msg := ""
	if importErr != nil {
		msg = importErr.Error()
	}
	if err := h.db.CompleteImportRun(context.WithoutCancel(ctx), run.ID, records, msg); err != nil {
		log.Warn("Failed to complete import run", "run", run.ID, "error", err)
	}
}
