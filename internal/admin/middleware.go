package admin

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/VadimVthvPro/PRO-pitashka/internal/metrics"
	"github.com/VadimVthvPro/PRO-pitashka/pkg/utils"
	"github.com/gin-gonic/gin"
)

// AuthMiddleware - проверка заголовка X-Admin-Key. Пустой ключ закрывает доступ полностью.
func AuthMiddleware(key string) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminKey := c.GetHeader("X-Admin-Key")
		if key == "" || subtle.ConstantTimeCompare([]byte(adminKey), []byte(key)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		c.Next()
	}
}

// RequestLogger - строка лога на запрос и счётчик ошибок 5xx
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		if status >= http.StatusInternalServerError {
			metrics.ErrorsTotal.WithLabelValues("admin").Inc()
		}
		utils.Log.Debugf("[admin] %s %s -> %d (%s)", c.Request.Method, c.FullPath(), status, time.Since(start))
	}
}
