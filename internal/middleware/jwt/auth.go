package jwt

import (
	"strings"

	"CareLink/pkg/back"
	"CareLink/pkg/util/myjwt"
	"CareLink/pkg/xerr"

	"github.com/gin-gonic/gin"
)

func Auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			back.Error(c, xerr.Unauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := myjwt.ParseToken(tokenString)
		if err != nil {
			back.Error(c, xerr.Unauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set("id", claims.Id)
		c.Set("role", claims.Role)
		c.Set("department", claims.Department)
		c.Next()
	}
}

// AdminOnly 放在 Auth 之后,只放行管理员凭证
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != myjwt.RoleAdmin {
			back.Error(c, xerr.Forbidden, "admin only")
			c.Abort()
			return
		}
		c.Next()
	}
}
