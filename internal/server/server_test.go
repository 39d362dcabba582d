package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	authconfig "github.com/smallbiznis/invoicely/internal/auth/config"
	authdomain "github.com/smallbiznis/invoicely/internal/auth/domain"
	authoauth "github.com/smallbiznis/invoicely/internal/auth/oauth"
	"github.com/smallbiznis/invoicely/internal/auth/session"
	"github.com/smallbiznis/invoicely/internal/authorization"
	"github.com/smallbiznis/invoicely/internal/config"
	"github.com/smallbiznis/invoicely/internal/invoice/live"
	"github.com/smallbiznis/invoicely/internal/invoice/logo"
	"github.com/smallbiznis/invoicely/internal/invoice/mocks"
	"github.com/smallbiznis/invoicely/internal/invoice/render"
	"github.com/smallbiznis/invoicely/internal/observability"
	"github.com/smallbiznis/invoicely/internal/providers/pdf"
	"github.com/smallbiznis/invoicely/internal/ratelimit"
	"go.uber.org/zap"
)

const (
	testToken  = "session-token"
	testUserID = snowflake.ID(42)
)

type fakeAuthService struct {
	logoutCalls int
	logoutErr   error
	identity    *authdomain.IdentityLoginRequest
}

func (f *fakeAuthService) CreateUser(ctx context.Context, req authdomain.CreateUserRequest) (*authdomain.User, error) {
	_ = ctx
	if req.Email == "taken@example.com" {
		return nil, authdomain.ErrUserExists
	}
	return &authdomain.User{ID: testUserID, Email: req.Email, DisplayName: req.DisplayName}, nil
}

func (f *fakeAuthService) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.LoginResult, error) {
	_ = ctx
	if req.Password != "correct horse" {
		return nil, authdomain.ErrInvalidCredentials
	}
	return &authdomain.LoginResult{
		User:      &authdomain.User{ID: testUserID, Email: req.Email},
		RawToken:  testToken,
		ExpiresAt: time.Now().Add(time.Hour),
		SessionID: snowflake.ID(300),
	}, nil
}

func (f *fakeAuthService) LoginWithIdentity(ctx context.Context, req authdomain.IdentityLoginRequest) (*authdomain.LoginResult, error) {
	_ = ctx
	f.identity = &req
	return &authdomain.LoginResult{
		User:      &authdomain.User{ID: testUserID, Email: req.Email},
		RawToken:  testToken,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeAuthService) Logout(ctx context.Context, rawToken string) error {
	_ = ctx
	_ = rawToken
	f.logoutCalls++
	return f.logoutErr
}

func (f *fakeAuthService) Authenticate(ctx context.Context, rawToken string) (*authdomain.Session, error) {
	_ = ctx
	if rawToken != testToken {
		return nil, authdomain.ErrInvalidSession
	}
	return &authdomain.Session{ID: snowflake.ID(300), UserID: testUserID}, nil
}

func (f *fakeAuthService) CurrentUser(ctx context.Context) (*authdomain.User, error) {
	_ = ctx
	return &authdomain.User{ID: testUserID, Email: "owner@example.com", DisplayName: "Owner"}, nil
}

type fakeOAuthService struct {
	login *authoauth.LoginRequest
}

func (f *fakeOAuthService) RedirectURL(ctx context.Context, providerName string, req authoauth.RedirectRequest) (*authoauth.RedirectResult, error) {
	_ = ctx
	if providerName != "github" {
		return nil, authoauth.ErrProviderNotFound
	}
	return &authoauth.RedirectResult{
		URL:          "https://github.example/authorize?redirect_uri=" + req.RedirectURI,
		State:        "state-1",
		CodeVerifier: "verifier-1",
	}, nil
}

func (f *fakeOAuthService) Login(ctx context.Context, providerName string, req authoauth.LoginRequest) (*authoauth.LoginResult, error) {
	_ = ctx
	f.login = &req
	return &authoauth.LoginResult{
		ProviderName: providerName,
		AllowSignUp:  true,
		Identity: authoauth.Identity{
			ExternalID:  "gh-1",
			Email:       "owner@example.com",
			DisplayName: "Owner",
		},
	}, nil
}

// fakeAuthorizer denies the listed actions and allows everything else.
type fakeAuthorizer struct {
	denied map[string]bool
	actors []string
}

func (f *fakeAuthorizer) Authorize(ctx context.Context, actor, object, action string) error {
	_ = ctx
	_ = object
	f.actors = append(f.actors, actor)
	if f.denied[action] {
		return authorization.ErrForbidden
	}
	return nil
}

type testServer struct {
	srv      *Server
	invoices *mocks.MockService
	auth     *fakeAuthService
	oauth    *fakeOAuthService
	authz    *fakeAuthorizer
	hub      *live.Hub
}

type testOption func(*ServerParams)

func withLimiter(l *ratelimit.AuthLimiter) testOption {
	return func(p *ServerParams) { p.AuthLimiter = l }
}

func newTestServer(t *testing.T, opts ...testOption) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	ctrl := gomock.NewController(t)
	ts := &testServer{
		invoices: mocks.NewMockService(ctrl),
		auth:     &fakeAuthService{},
		oauth:    &fakeOAuthService{},
		authz:    &fakeAuthorizer{denied: map[string]bool{}},
		hub:      live.NewHub(),
	}

	cfg := config.Config{AuthAllowSignup: true, PublicDir: t.TempDir()}
	invoicing := config.NewStaticInvoicingConfigHolder(config.DefaultInvoicingConfig())
	params := ServerParams{
		Gin:        NewEngine(observability.Config{}, nil),
		Cfg:        cfg,
		Invoicing:  invoicing,
		Log:        zap.NewNop(),
		Authsvc:    ts.auth,
		OAuthsvc:   ts.oauth,
		Providers:  authconfig.AuthProviderRegistry{Active: map[string]authconfig.AuthProviderConfig{}},
		Sessions:   session.NewManager(cfg),
		AuthzSvc:   ts.authz,
		InvoiceSvc: ts.invoices,
		Renderer:   render.NewRenderer(),
		PDF:        pdf.New(zap.NewNop()),
		Logos:      logo.NewProcessor(invoicing),
		Hub:        ts.hub,
	}
	for _, opt := range opts {
		opt(&params)
	}
	ts.srv = NewServer(params)
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.srv.Engine().ServeHTTP(w, req)
	return w
}

func authed(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: testToken})
	return req
}

func findCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
