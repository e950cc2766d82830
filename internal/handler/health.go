package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type healthStatus struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
	Service  string `json:"service"`
}

// Health probes Postgres and Redis with a short deadline so a hung
// dependency degrades the check instead of blocking it.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		resp := healthStatus{Status: "up", Database: "up", Redis: "up", Service: "vetcare"}

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			resp.Database = "down"
		}
		if rdb.Ping(ctx).Err() != nil {
			resp.Redis = "down"
		}

		code := http.StatusOK
		if resp.Database == "down" || resp.Redis == "down" {
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, resp)
	}
}
