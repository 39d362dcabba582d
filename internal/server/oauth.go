package server

import (
	"crypto/hmac"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/invoicely/internal/auth/domain"
	authoauth "github.com/smallbiznis/invoicely/internal/auth/oauth"
	"go.uber.org/zap"
)

const (
	oauthStateCookie     = "oauth_state"
	oauthVerifierCookie  = "oauth_code_verifier"
	oauthRedirectCookie  = "oauth_redirect_to"
	oauthStateTTL        = 10 * time.Minute
	oauthErrorRedirectTo = "/login?error=oauth_login"
)

// OAuthLogin starts the provider flow when no code is present and completes
// it otherwise. Apple posts its callback as a form, everyone else uses the
// query string.
func (s *Server) OAuthLogin(c *gin.Context) {
	provider := strings.ToLower(strings.TrimSpace(c.Param("name")))
	if provider == "" {
		AbortWithError(c, ErrNotFound)
		return
	}

	if oauthParam(c, "error") != "" {
		s.logOAuthError(c, provider)
		s.clearOAuthCookies(c)
		redirectToOAuthError(c)
		return
	}

	code := oauthParam(c, "code")
	if code == "" {
		if c.Request.Method != http.MethodGet {
			AbortWithError(c, ErrInvalidRequest)
			return
		}
		if err := s.startOAuthLogin(c, provider); err != nil {
			s.handleOAuthError(c, provider, err)
		}
		return
	}

	if err := s.handleOAuthCallback(c, provider, code); err != nil {
		s.handleOAuthError(c, provider, err)
	}
}

func (s *Server) startOAuthLogin(c *gin.Context, provider string) error {
	result, err := s.oauthsvc.RedirectURL(c.Request.Context(), provider, authoauth.RedirectRequest{
		RedirectURI: s.oauthRedirectURI(c, provider),
	})
	if err != nil {
		return err
	}

	s.sessions.SetFlow(c, oauthStateCookie, result.State, oauthStateTTL)
	if strings.TrimSpace(result.CodeVerifier) != "" {
		s.sessions.SetFlow(c, oauthVerifierCookie, result.CodeVerifier, oauthStateTTL)
	}

	redirectTarget := sanitizeRedirectPath(firstNonEmpty(c.Query("redirectTo"), c.Query("redirect_to")))
	if redirectTarget != "" {
		s.sessions.SetFlow(c, oauthRedirectCookie, redirectTarget, oauthStateTTL)
	}

	c.Redirect(http.StatusFound, result.URL)
	return nil
}

func (s *Server) handleOAuthCallback(c *gin.Context, provider string, code string) error {
	state := oauthParam(c, "state")
	storedState, ok := s.sessions.Read(c, oauthStateCookie)
	if !ok || state == "" || !hmac.Equal([]byte(state), []byte(storedState)) {
		s.clearOAuthCookies(c)
		return ErrUnauthorized
	}

	verifier, _ := s.sessions.Read(c, oauthVerifierCookie)
	redirectTarget, _ := s.sessions.Read(c, oauthRedirectCookie)
	s.clearOAuthCookies(c)

	ctx := c.Request.Context()
	result, err := s.oauthsvc.Login(ctx, provider, authoauth.LoginRequest{
		Code:         code,
		RedirectURI:  s.oauthRedirectURI(c, provider),
		CodeVerifier: verifier,
		User:         oauthParam(c, "user"),
	})
	if err != nil {
		return err
	}

	login, err := s.authsvc.LoginWithIdentity(ctx, authdomain.IdentityLoginRequest{
		Provider:    result.ProviderName,
		ExternalID:  result.Identity.ExternalID,
		Email:       result.Identity.Email,
		DisplayName: result.Identity.DisplayName,
		AllowSignUp: result.AllowSignUp && s.cfg.AuthAllowSignup,
		UserAgent:   c.Request.UserAgent(),
		IPAddress:   c.ClientIP(),
	})
	if err != nil {
		return err
	}
	s.sessions.Set(c, login.RawToken, login.ExpiresAt)

	redirectTarget = sanitizeRedirectPath(redirectTarget)
	if redirectTarget == "" {
		redirectTarget = "/"
	}
	c.Redirect(http.StatusFound, redirectTarget)
	return nil
}

func oauthParam(c *gin.Context, key string) string {
	if c.Request.Method == http.MethodPost {
		if value := strings.TrimSpace(c.PostForm(key)); value != "" {
			return value
		}
	}
	return strings.TrimSpace(c.Query(key))
}

func (s *Server) oauthRedirectURI(c *gin.Context, provider string) string {
	base := requestBaseURL(c)
	return fmt.Sprintf("%s/login/%s", base, url.PathEscape(provider))
}

func requestBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := firstHeaderValue(c.GetHeader("X-Forwarded-Proto")); proto != "" {
		scheme = strings.ToLower(proto)
	}
	host := c.Request.Host
	if forwarded := firstHeaderValue(c.GetHeader("X-Forwarded-Host")); forwarded != "" {
		host = forwarded
	}
	return scheme + "://" + host
}

func (s *Server) handleOAuthError(c *gin.Context, provider string, err error) {
	if err == nil {
		return
	}
	switch {
	case errors.Is(err, authoauth.ErrProviderNotFound):
		AbortWithError(c, ErrNotFound)
	default:
		s.log.Warn("oauth login failed", zap.String("provider", provider), zap.Error(err))
		redirectToOAuthError(c)
	}
}

func (s *Server) logOAuthError(c *gin.Context, provider string) {
	s.log.Warn("oauth provider returned an error",
		zap.String("provider", provider),
		zap.String("error", oauthParam(c, "error")),
		zap.String("description", oauthParam(c, "error_description")),
	)
}

func redirectToOAuthError(c *gin.Context) {
	c.Redirect(http.StatusFound, oauthErrorRedirectTo)
}

func (s *Server) clearOAuthCookies(c *gin.Context) {
	s.sessions.ClearFlow(c, oauthStateCookie)
	s.sessions.ClearFlow(c, oauthVerifierCookie)
	s.sessions.ClearFlow(c, oauthRedirectCookie)
}

func firstHeaderValue(value string) string {
	if value == "" {
		return ""
	}
	if idx := strings.Index(value, ","); idx >= 0 {
		value = value[:idx]
	}
	return strings.TrimSpace(value)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func sanitizeRedirectPath(raw string) string {
	value := strings.TrimSpace(raw)
	if value == "" {
		return ""
	}
	if strings.HasPrefix(value, "//") || strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return ""
	}
	if !strings.HasPrefix(value, "/") {
		return ""
	}
	return value
}
