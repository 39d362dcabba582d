package server

import (
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/invoicely/internal/observability/context"
	"github.com/smallbiznis/invoicely/internal/observability/logger"
	"github.com/smallbiznis/invoicely/internal/ratelimit"
	"github.com/smallbiznis/invoicely/internal/usercontext"
	"go.uber.org/zap"
)

const contextUserIDKey = "user_id"

// AuthRequired resolves the session cookie and scopes the request to its
// user. API callers get a 401 instead of a redirect.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authenticate(c); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// WebAuthRequired sends anonymous page loads to the login screen.
func (s *Server) WebAuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.authenticate(c); err != nil {
			target := "/login?redirectTo=" + url.QueryEscape(c.Request.URL.RequestURI())
			c.Redirect(http.StatusFound, target)
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) redirectIfLoggedIn() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := s.userIDFromSession(c); ok {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (s *Server) authenticate(c *gin.Context) error {
	token, ok := s.sessions.ReadToken(c)
	if !ok {
		return ErrUnauthorized
	}

	sess, err := s.authsvc.Authenticate(c.Request.Context(), token)
	if err != nil {
		return err
	}

	userID := sess.UserID.String()
	ctx := usercontext.WithUserID(c.Request.Context(), sess.UserID)
	ctx = obscontext.WithUserID(ctx, userID)
	c.Request = c.Request.WithContext(ctx)
	c.Set(contextUserIDKey, userID)
	return nil
}

func (s *Server) userIDFromSession(c *gin.Context) (snowflake.ID, bool) {
	if userID, ok := usercontext.UserIDFromContext(c.Request.Context()); ok {
		return userID, true
	}
	token, ok := s.sessions.ReadToken(c)
	if !ok {
		return 0, false
	}
	sess, err := s.authsvc.Authenticate(c.Request.Context(), token)
	if err != nil || sess == nil {
		return 0, false
	}
	return sess.UserID, true
}

// authorize checks the signed-in user's role against object and action.
func (s *Server) authorize(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := usercontext.UserIDFromContext(c.Request.Context())
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if s.authzSvc == nil {
			AbortWithError(c, ErrForbidden)
			return
		}
		actor := "user:" + userID.String()
		if err := s.authzSvc.Authorize(c.Request.Context(), actor, strings.TrimSpace(object), strings.TrimSpace(action)); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// AuthRateLimit throttles credential endpoints per client IP.
func (s *Server) AuthRateLimit(endpoint string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.authLimiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		result := s.authLimiter.Allow(ctx, endpoint, c.ClientIP())
		if result.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.Itoa(result.Limit))
			c.Header("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
		}
		if result.Allowed {
			c.Next()
			return
		}

		logger.FromContext(ctx).Warn("auth rate limit exceeded", zap.String("endpoint", endpoint))
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(result)))
		AbortWithError(c, ErrRateLimited)
	}
}

func retryAfterSeconds(result *ratelimit.RateLimitResult) int {
	secs := int(math.Ceil(result.RetryAfter.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
