package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/segmentio/kafka-go"
)

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
	Broker   string `json:"broker"`
}

func (h HandlerSet) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	dbStatus := "ok"
	if err := h.db.Ping(ctx); err != nil {
		dbStatus = "error"
		h.log.Error().Err(err).Msg("database ping failed")
	}

	cacheStatus := "ok"
	if h.cache != nil {
		if err := h.cache.Ping(ctx).Err(); err != nil {
			cacheStatus = "error"
			h.log.Error().Err(err).Msg("redis ping failed")
		}
	}

	brokerStatus := "ok"
	if len(h.cfg.Kafka.Brokers) > 0 {
		conn, err := kafka.DialContext(ctx, "tcp", h.cfg.Kafka.Brokers[0])
		if err != nil {
			brokerStatus = "error"
			h.log.Error().Err(err).Msg("broker dial failed")
		} else {
			conn.Close()
		}
	}

	status := "ok"
	code := http.StatusOK
	if dbStatus != "ok" || cacheStatus != "ok" || brokerStatus != "ok" {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, healthResponse{
		Status:   status,
		Database: dbStatus,
		Cache:    cacheStatus,
		Broker:   brokerStatus,
	})
}
