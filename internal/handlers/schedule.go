package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// TriggerCleanup runs the unused-image sweep on demand, outside its
// cron schedule.
func (h HandlerSet) TriggerCleanup(c *gin.Context) {
	if err := h.cleanup.SweepUnused(c.Request.Context()); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
