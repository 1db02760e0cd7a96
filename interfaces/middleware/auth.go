package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt"

	"pego/domain/dto"
	"pego/domain/model"
	"pego/domain/repository"
)

// Auth validates the Bearer token and loads the caller into the gin context
// under "user_id", "username" and "is_admin". Banned accounts are rejected
// even when their token is still valid.
func Auth(userRepository repository.IUser, secretKey string) gin.HandlerFunc {
	unauthorized := dto.Res{ResponseCode: "401", ResponseMessage: "Unauthorized"}

	return func(ctx *gin.Context) {
		authorization := ctx.Request.Header.Get("Authorization")
		if authorization == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, unauthorized)
			return
		}
		parts := strings.Split(authorization, "Bearer ")
		if len(parts) != 2 || parts[1] == "" {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, unauthorized)
			return
		}

		claims, token, err := parseClaims(parts[1], secretKey)
		if err != nil || !token.Valid {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, unauthorized)
			return
		}

		user, err := userRepository.GetByID(ctx.Request.Context(), claims.UserID)
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, unauthorized)
			return
		}
		if !user.IsActive || user.BannedAt != nil {
			ctx.AbortWithStatusJSON(http.StatusForbidden, dto.Res{ResponseCode: "403", ResponseMessage: "Account banned"})
			return
		}

		ctx.Set("user_id", user.ID)
		ctx.Set("username", user.Username)
		ctx.Set("is_admin", user.IsAdmin)
		ctx.Next()
	}
}

// AdminOnly runs after Auth and rejects non-admin callers.
func AdminOnly() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		isAdmin, ok := ctx.Get("is_admin")
		if !ok || isAdmin != true {
			ctx.AbortWithStatusJSON(http.StatusForbidden, dto.Res{ResponseCode: "403", ResponseMessage: "Admin only"})
			return
		}
		ctx.Next()
	}
}

func parseClaims(tokenString, secretKey string) (model.UserClaims, *jwt.Token, error) {
	var claims model.UserClaims
	token, err := jwt.ParseWithClaims(
		tokenString,
		&claims,
		func(token *jwt.Token) (interface{}, error) {
			return []byte(secretKey), nil
		},
	)
	return claims, token, err
}
