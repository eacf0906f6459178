package handler

import (
	"log"
	"net/http"

	"gigchat/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes the embedding backfill jobs, one per vector column.
type AdminHandler struct {
	backfill768  *service.BackfillJob
	backfill1536 *service.BackfillJob
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(backfill768, backfill1536 *service.BackfillJob) *AdminHandler {
	return &AdminHandler{
		backfill768:  backfill768,
		backfill1536: backfill1536,
	}
}

// UpdateEmbeddings768 handles POST /admin/update_embeddings768.
func (h *AdminHandler) UpdateEmbeddings768(c *gin.Context) {
	h.runBackfill(c, h.backfill768)
}

// UpdateEmbeddings1536 handles POST /admin/update_embeddings1536.
func (h *AdminHandler) UpdateEmbeddings1536(c *gin.Context) {
	h.runBackfill(c, h.backfill1536)
}

func (h *AdminHandler) runBackfill(c *gin.Context, job *service.BackfillJob) {
	report, err := job.Run(c.Request.Context())
	if err != nil {
		log.Printf("[admin] backfill failed: %v", err)
		c.JSON(http.StatusInternalServerError, respError(CodeNotOK, MsgNotOK))
		return
	}
	c.JSON(http.StatusOK, respOK(report))
}
