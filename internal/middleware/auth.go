package middleware

import (
	"strings"

	"blueprep_backend/internal/util"
	"blueprep_backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if tokenString == "" {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := util.ParseJWT(tokenString, secret)
		if err != nil {
			logger.Log.Debug("JWT parse failed", zap.Error(err))
			util.Unauthorized(c)
			c.Abort()
			return
		}

		c.Set("user", claims)
		c.Next()
	}
}

type OperatorChecker interface {
	IsOperator(id int64) bool
}

// OperatorMiddleware admits only callers on the operator allow-list. The role
// claim is not trusted for this.
func OperatorMiddleware(ops OperatorChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := util.GetUserFromContext(c)
		if user == nil {
			util.Unauthorized(c)
			c.Abort()
			return
		}

		if !ops.IsOperator(user.UserID) {
			logger.Log.Warn("Operator route denied", zap.Int64("user_id", user.UserID), zap.String("path", c.FullPath()))
			util.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
