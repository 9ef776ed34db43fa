package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/blogicum/blogicum/config"
	"github.com/blogicum/blogicum/models"
	"github.com/blogicum/blogicum/utils"
)

const (
	// ContextUserKey stores the authenticated *models.User inside Gin context.
	ContextUserKey = "user"
	// ContextClaimsKey stores the parsed session claims.
	ContextClaimsKey = "claims"
	// LoginURL is where anonymous users are sent.
	LoginURL = "/auth/login/"
)

// UserLoader resolves a session's user id.
type UserLoader interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// Session attaches the user behind a valid session cookie or bearer token.
// Missing, invalid or revoked tokens leave the request anonymous.
func Session(users UserLoader) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := SessionToken(ctx)
		if token == "" {
			ctx.Next()
			return
		}
		claims, err := utils.ParseToken(token)
		if err != nil || utils.IsTokenBlacklisted(claims.ID) {
			ctx.Next()
			return
		}
		user, err := users.GetByID(ctx.Request.Context(), claims.UserID)
		if err != nil {
			utils.Sugar.Debugf("session user %d not loaded: %v", claims.UserID, err)
			ctx.Next()
			return
		}
		ctx.Set(ContextUserKey, user)
		ctx.Set(ContextClaimsKey, claims)
		ctx.Next()
	}
}

// SessionToken returns the raw token from the session cookie or the Authorization header.
func SessionToken(ctx *gin.Context) string {
	if c, err := ctx.Cookie(config.Get().CookieName); err == nil && c != "" {
		return c
	}
	parts := strings.SplitN(ctx.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// CurrentUser returns the logged-in user or nil.
func CurrentUser(ctx *gin.Context) *models.User {
	if v, ok := ctx.Get(ContextUserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// CurrentClaims returns the session claims or nil.
func CurrentClaims(ctx *gin.Context) *utils.Claims {
	if v, ok := ctx.Get(ContextClaimsKey); ok {
		if c, ok := v.(*utils.Claims); ok {
			return c
		}
	}
	return nil
}

// LoginRequired redirects anonymous users to the login page, remembering where they were going.
func LoginRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if CurrentUser(ctx) == nil {
			ctx.Redirect(http.StatusFound, LoginRedirect(ctx.Request.URL.RequestURI()))
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

// LoginRedirect builds the login URL with a next parameter.
func LoginRedirect(next string) string {
	return LoginURL + "?next=" + url.QueryEscape(next)
}

// SafeNext accepts only local absolute paths as post-login targets.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, "\\") {
		return ""
	}
	return next
}
