package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/smallbiznis/invoicely/internal/auth/domain"
	"github.com/smallbiznis/invoicely/internal/auth/password"
	"github.com/smallbiznis/invoicely/internal/clock"
	"github.com/smallbiznis/invoicely/internal/config"
	"github.com/smallbiznis/invoicely/internal/usercontext"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	sessionTokenBytes = 32
	sessionTTL        = 7 * 24 * time.Hour
)

type Params struct {
	fx.In

	Log         *zap.Logger
	Config      config.Config
	Repo        domain.Repository
	SessionRepo domain.SessionRepository
	GenID       *snowflake.Node
	Clock       clock.Clock
}

type Service struct {
	log         *zap.Logger
	repo        domain.Repository
	sessionRepo domain.SessionRepository
	genID       *snowflake.Node
	clock       clock.Clock

	allowSignup bool
	defaultRole string
}

func New(p Params) domain.Service {
	role := strings.TrimSpace(p.Config.AuthDefaultRole)
	if role == "" {
		role = "member"
	}
	return &Service{
		log:         p.Log.Named("auth.service"),
		repo:        p.Repo,
		sessionRepo: p.SessionRepo,
		genID:       p.GenID,
		clock:       p.Clock,
		allowSignup: p.Config.AuthAllowSignup,
		defaultRole: role,
	}
}

func (s *Service) CreateUser(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if !s.allowSignup {
		return nil, domain.ErrSignupDisabled
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidEmail
	}
	if !password.Acceptable(req.Password) {
		return nil, domain.ErrWeakPassword
	}

	if _, err := s.repo.FindOne(ctx, domain.User{
		Email:    email,
		Provider: domain.ProviderLocal,
	}); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = defaultDisplayName(email)
	}
	now := s.clock.Now()
	user := &domain.User{
		ID:           s.genID.Generate(),
		ExternalID:   uuid.NewString(),
		Provider:     domain.ProviderLocal,
		DisplayName:  displayName,
		Email:        email,
		PasswordHash: &hashed,
		Role:         s.defaultRole,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.log.Info("user created", zap.String("user_id", user.ID.String()), zap.String("provider", user.Provider))
	return user, nil
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.LoginResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if strings.TrimSpace(req.Password) == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindOne(ctx, domain.User{
		Email:    email,
		Provider: domain.ProviderLocal,
	})
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == nil {
		return nil, domain.ErrInvalidCredentials
	}
	ok, stale := password.Check(req.Password, *user.PasswordHash)
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	if stale {
		s.rehash(ctx, user, req.Password)
	}

	return s.startSession(ctx, user, req.UserAgent, req.IPAddress)
}

// rehash upgrades a hash made with older cost settings. Failure only costs
// another attempt on the next login.
func (s *Service) rehash(ctx context.Context, user *domain.User, plain string) {
	hashed, err := password.Hash(plain)
	if err == nil {
		err = s.repo.UpdateFields(ctx, user.ID, map[string]any{"password_hash": hashed})
	}
	if err != nil {
		s.log.Warn("password rehash failed", zap.String("user_id", user.ID.String()), zap.Error(err))
		return
	}
	user.PasswordHash = &hashed
}

// LoginWithIdentity finds the user behind an OAuth identity, creating it when
// sign-up is allowed, and opens a session for it.
func (s *Service) LoginWithIdentity(ctx context.Context, req domain.IdentityLoginRequest) (*domain.LoginResult, error) {
	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	externalID := strings.TrimSpace(req.ExternalID)
	if provider == "" || provider == domain.ProviderLocal || externalID == "" {
		return nil, domain.ErrInvalidIdentity
	}
	email, _ := normalizeEmail(req.Email)
	displayName := strings.TrimSpace(req.DisplayName)

	user, err := s.repo.FindByExternalID(ctx, provider, externalID)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		if !req.AllowSignUp || !s.allowSignup {
			return nil, domain.ErrSignupDisabled
		}
		if email == "" {
			return nil, domain.ErrInvalidIdentity
		}
		if displayName == "" {
			displayName = defaultDisplayName(email)
		}
		now := s.clock.Now()
		user = &domain.User{
			ID:          s.genID.Generate(),
			ExternalID:  externalID,
			Provider:    provider,
			DisplayName: displayName,
			Email:       email,
			Role:        s.defaultRole,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.Create(ctx, user); err != nil {
			return nil, err
		}
		s.log.Info("user created", zap.String("user_id", user.ID.String()), zap.String("provider", provider))
	case err != nil:
		return nil, err
	default:
		// Apple sends the name only on the first sign-in, so blanks never overwrite.
		updates := map[string]any{}
		if email != "" && email != user.Email {
			updates["email"] = email
			user.Email = email
		}
		if displayName != "" && displayName != user.DisplayName {
			updates["display_name"] = displayName
			user.DisplayName = displayName
		}
		if len(updates) > 0 {
			updates["updated_at"] = s.clock.Now()
			if err := s.repo.UpdateFields(ctx, user.ID, updates); err != nil {
				return nil, err
			}
		}
	}

	return s.startSession(ctx, user, req.UserAgent, req.IPAddress)
}

func (s *Service) Logout(ctx context.Context, rawToken string) error {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return domain.ErrInvalidSession
	}

	session, err := s.sessionRepo.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return domain.ErrInvalidSession
		}
		return err
	}
	if session.RevokedAt != nil {
		return nil
	}
	return s.sessionRepo.RevokeSession(ctx, session.ID, s.clock.Now())
}

func (s *Service) Authenticate(ctx context.Context, rawToken string) (*domain.Session, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return nil, domain.ErrInvalidSession
	}

	session, err := s.sessionRepo.GetSessionByTokenHash(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, domain.ErrInvalidSession
		}
		return nil, err
	}

	now := s.clock.Now()
	if session.RevokedAt != nil {
		return nil, domain.ErrSessionRevoked
	}
	if now.After(session.ExpiresAt) {
		return nil, domain.ErrSessionExpired
	}

	if err := s.sessionRepo.UpdateLastSeen(ctx, session.ID, now); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *Service) CurrentUser(ctx context.Context) (*domain.User, error) {
	userID, ok := usercontext.UserIDFromContext(ctx)
	if !ok {
		return nil, domain.ErrInvalidSession
	}
	return s.repo.FindByID(ctx, userID)
}

func (s *Service) startSession(ctx context.Context, user *domain.User, userAgent, ipAddress string) (*domain.LoginResult, error) {
	rawToken, err := newSessionToken()
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	session := &domain.Session{
		ID:               s.genID.Generate(),
		UserID:           user.ID,
		SessionTokenHash: hashToken(rawToken),
		UserAgent:        strings.TrimSpace(userAgent),
		IPAddress:        strings.TrimSpace(ipAddress),
		ExpiresAt:        now.Add(sessionTTL),
		CreatedAt:        now,
		LastSeenAt:       now,
	}
	if err := s.sessionRepo.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	return &domain.LoginResult{
		User:      user,
		RawToken:  rawToken,
		ExpiresAt: session.ExpiresAt,
		SessionID: session.ID,
	}, nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(addr.Address)), nil
}

func defaultDisplayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if strings.TrimSpace(local) != "" {
		return strings.TrimSpace(local)
	}
	return email
}

func newSessionToken() (string, error) {
	buf := make([]byte, sessionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
