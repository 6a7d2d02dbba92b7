package handler

import (
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/jon4hz/gradeboard/internal/api/models"
	"github.com/jon4hz/gradeboard/internal/scheduler"
)

const defaultHistoryLimit = 20

// ImportHistory returns the most recent import runs and overall statistics.
func (h *Handler) ImportHistory(c *gin.Context) {
	limit, err := queryInt(c, "limit", defaultHistoryLimit)
	if err != nil || limit <= 0 {
		h.badRequest(c, "Invalid limit")
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		h.badRequest(c, "Invalid offset")
		return
	}

	ctx := c.Request.Context()
	runs, err := h.db.GetImportRunHistory(ctx, limit, offset)
	if err != nil {
		log.Error("Failed to get import history", "error", err)
		h.internalError(c, "Failed to get import history")
		return
	}
	stats, err := h.db.GetImportStats(ctx)
	if err != nil {
		log.Error("Failed to get import stats", "error", err)
		h.internalError(c, "Failed to get import stats")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"runs":    models.ToImportRunItems(runs),
		"stats":   models.ToImportStatsItem(stats),
	})
}

// CacheStats returns the hit/miss statistics of the session cache.
func (h *Handler) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"caches":  h.cache.GetStats(),
	})
}

// ClearCache drops every stored session.
func (h *Handler) ClearCache(c *gin.Context) {
	h.cache.ClearAll(c.Request.Context())
	log.Info("Session cache cleared")
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Jobs lists the background jobs.
func (h *Handler) Jobs(c *gin.Context) {
	jobs := []scheduler.JobInfo{}
	if h.scheduler != nil {
		jobs = h.scheduler.GetJobs()
	}
	slices.SortFunc(jobs, func(a, b scheduler.JobInfo) int { return strings.Compare(a.ID, b.ID) })
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"jobs":    jobs,
	})
}

// RunJob triggers a background job immediately.
func (h *Handler) RunJob(c *gin.Context) {
	id := c.Param("id")
	if h.scheduler == nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Job not found"})
		return
	}
	if _, ok := h.scheduler.GetJob(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Job not found"})
		return
	}
	if err := h.scheduler.RunJobNow(id); err != nil {
		log.Error("Failed to run job", "job", id, "error", err)
		h.internalError(c, "Failed to run job")
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"success": true})
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
