package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

// PoolStats is the pool snapshot attached to the database health response.
type PoolStats struct {
	TotalConns     int32  `json:"totalConns"`
	IdleConns      int32  `json:"idleConns"`
	AcquiredConns  int32  `json:"acquiredConns"`
	MaxConns       int32  `json:"maxConns"`
	AcquireCount   int64  `json:"acquireCount"`
	AcquireLatency string `json:"acquireLatency"`
}

// GetPoolStats reads the current pool counters.
func GetPoolStats(pool *pgxpool.Pool) PoolStats {
	stat := pool.Stat()
	return PoolStats{
		TotalConns:     stat.TotalConns(),
		IdleConns:      stat.IdleConns(),
		AcquiredConns:  stat.AcquiredConns(),
		MaxConns:       stat.MaxConns(),
		AcquireCount:   stat.AcquireCount(),
		AcquireLatency: stat.AcquireDuration().String(),
	}
}

// HealthHandler pings the database with a short deadline and reports the
// outcome alongside the pool counters. A failed ping answers 503 so the
// record stores' storage layer shows up degraded on probes.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		stats := GetPoolStats(pool)
		if err := pool.Ping(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{
				"status": "degraded",
				"error":  err.Error(),
				"pool":   stats,
			})
		}

		return c.JSON(http.StatusOK, map[string]interface{}{
			"status": "ok",
			"pool":   stats,
		})
	}
}
