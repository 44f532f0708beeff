package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mlevchik/mnemo/internal/database/notes"
)

type HealthController struct {
	repo *notes.Repository
}

func NewHealthController(repo *notes.Repository) *HealthController {
	return &HealthController{repo: repo}
}

// Health reports liveness and basic collection stats; a failing stats
// query means the database is unreachable.
func (h *HealthController) Health(c *gin.Context) {
	totalNotes, totalCards, err := h.repo.Stats()
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"notes":  totalNotes,
		"cards":  totalCards,
	})
}
