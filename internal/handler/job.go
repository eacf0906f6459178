package handler

import (
	"net/http"
	"strconv"

	"gigchat/internal/repository"

	"github.com/gin-gonic/gin"
)

// JobHandler handles single-posting lookups.
type JobHandler struct {
	repo *repository.JobRepository
}

// NewJobHandler creates a new job handler.
func NewJobHandler(repo *repository.JobRepository) *JobHandler {
	return &JobHandler{repo: repo}
}

// Get handles GET /jobs/:id.
func (h *JobHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, respError(CodeNotOK, "invalid job id"))
		return
	}

	job, err := h.repo.GetJob(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, respError(CodeNotOK, MsgNotOK))
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, respError(CodeNotFound, MsgNotFound))
		return
	}

	c.JSON(http.StatusOK, respOK(job))
}
