package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/invoicely/internal/config"
)

const DefaultCookieName = "_sid"

// Manager manages auth session cookies and the short-lived cookies that
// carry OAuth state between redirect and callback.
type Manager struct {
	cookieName string
	secure     bool
}

func NewManager(cfg config.Config) *Manager {
	return &Manager{
		cookieName: DefaultCookieName,
		secure:     cfg.AuthCookieSecure,
	}
}

func (m *Manager) CookieName() string {
	return m.cookieName
}

func (m *Manager) ReadToken(c *gin.Context) (string, bool) {
	return m.Read(c, m.cookieName)
}

func (m *Manager) Set(c *gin.Context, value string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.cookieName, value, maxAge, "/", "", m.secure, true)
}

func (m *Manager) Clear(c *gin.Context) {
	m.ClearFlow(c, m.cookieName)
}

func (m *Manager) Read(c *gin.Context, name string) (string, bool) {
	value, err := c.Cookie(name)
	if err != nil || strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}

// SetFlow stores an OAuth flow value. Apple returns with a cross-site
// form POST, which only carries SameSite=None cookies, so secure
// deployments use None and plain HTTP falls back to Lax.
func (m *Manager) SetFlow(c *gin.Context, name, value string, ttl time.Duration) {
	maxAge := int(ttl.Seconds())
	if maxAge < 0 {
		maxAge = 0
	}
	c.SetSameSite(m.flowSameSite())
	c.SetCookie(name, value, maxAge, "/", "", m.secure, true)
}

func (m *Manager) ClearFlow(c *gin.Context, name string) {
	c.SetSameSite(m.flowSameSite())
	c.SetCookie(name, "", -1, "/", "", m.secure, true)
}

func (m *Manager) flowSameSite() http.SameSite {
	if m.secure {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}
