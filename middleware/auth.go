package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/maiaai/blog/policy"
	"github.com/maiaai/blog/utils"
)

const (
	// ContextUserIDKey is the key used to store the authenticated user ID in Gin context.
	ContextUserIDKey = "user_id"
	// ContextEmailKey stores the email inside Gin context.
	ContextEmailKey = "email"
	// ContextStaffKey stores the staff flag inside Gin context.
	ContextStaffKey = "staff"
)

// AuthRequired ensures the request carries a valid JWT.
func AuthRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims, errCode, errMsg := claimsFromHeader(ctx)
		if claims == nil {
			utils.Error(ctx, http.StatusUnauthorized, errCode, errMsg)
			ctx.Abort()
			return
		}
		setIdentity(ctx, claims)
		ctx.Next()
	}
}

// AuthOptional resolves the requester identity when a bearer token is present
// and otherwise lets the request through as anonymous, so the policy layer can
// decide per action. A token that is present but invalid is still rejected.
func AuthOptional() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if strings.TrimSpace(ctx.GetHeader("Authorization")) == "" {
			ctx.Next()
			return
		}
		claims, errCode, errMsg := claimsFromHeader(ctx)
		if claims == nil {
			utils.Error(ctx, http.StatusUnauthorized, errCode, errMsg)
			ctx.Abort()
			return
		}
		setIdentity(ctx, claims)
		ctx.Next()
	}
}

// Actor reconstructs the policy actor for the current request. Requests that
// carried no credentials map to the anonymous actor.
func Actor(ctx *gin.Context) policy.Actor {
	value, exists := ctx.Get(ContextUserIDKey)
	if !exists {
		return policy.Anonymous
	}
	userID, ok := value.(uint)
	if !ok {
		return policy.Anonymous
	}
	return policy.Actor{
		ID:            userID,
		Staff:         ctx.GetBool(ContextStaffKey),
		Authenticated: true,
	}
}

func setIdentity(ctx *gin.Context, claims *utils.Claims) {
	ctx.Set(ContextUserIDKey, claims.UserID)
	ctx.Set(ContextEmailKey, claims.Email)
	ctx.Set(ContextStaffKey, claims.Staff)
}

func claimsFromHeader(ctx *gin.Context) (*utils.Claims, int, string) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader == "" {
		return nil, 40101, "authorization header missing"
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return nil, 40102, "invalid authorization header format"
	}

	tokenString := strings.TrimSpace(parts[1])
	if tokenString == "" {
		return nil, 40103, "empty bearer token"
	}

	if utils.IsTokenBlacklisted(tokenString) {
		return nil, 40104, "token revoked"
	}

	claims, err := utils.ParseToken(tokenString)
	if err != nil {
		return nil, 40105, "invalid token"
	}
	return claims, 0, ""
}
