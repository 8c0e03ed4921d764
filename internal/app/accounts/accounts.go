// Package accounts manages staff logins and signed session tokens.
//
// The admin account lives in configuration as a bcrypt hash; worker
// accounts live in the users table. Authorization is a capability check
// the HTTP layer performs before calling the ledger.
package accounts

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/waflora/waflora/internal/domain"
)

// Config controls authentication.
type Config struct {
	AdminUsername     string
	AdminPasswordHash string // empty disables admin login
	SessionSecret     []byte // empty = random per process
	SessionTTL        time.Duration
	BcryptCost        int
}

// DefaultConfig returns safe defaults. Admin login stays disabled until a
// hash is configured.
func DefaultConfig() Config {
	return Config{
		AdminUsername: "admin",
		SessionTTL:    12 * time.Hour,
		BcryptCost:    bcrypt.DefaultCost,
	}
}

// Service authenticates users and manages worker accounts.
type Service struct {
	store  domain.WorkerStore
	cfg    Config
	now    func() time.Time
	logger zerolog.Logger
}

// New creates an accounts service. Without a configured session secret a
// random one is generated.
func New(store domain.WorkerStore, cfg Config) (*Service, error) {
	if len(cfg.SessionSecret) == 0 {
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("generate session secret: %w", err)
		}
		cfg.SessionSecret = secret
		log.Warn().Str("component", "accounts").
			Msg("no session secret configured; sessions will not survive a restart")
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = bcrypt.DefaultCost
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultConfig().SessionTTL
	}
	return &Service{
		store:  store,
		cfg:    cfg,
		now:    time.Now,
		logger: log.With().Str("component", "accounts").Logger(),
	}, nil
}

// HashPassword returns a bcrypt hash suitable for the admin config.
func HashPassword(password string, cost int) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is required", domain.ErrValidation)
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// ─── Workers ────────────────────────────────────────────────────────────────

// AddWorker creates a worker account with a hashed password.
func (s *Service) AddWorker(ctx context.Context, username, password string) (*domain.Worker, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}
	if strings.EqualFold(username, s.cfg.AdminUsername) {
		return nil, fmt.Errorf("username %q: %w", username, domain.ErrConflict)
	}
	hash, err := HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, err
	}
	w := &domain.Worker{
		Username:     username,
		PasswordHash: hash,
		Role:         domain.RoleWorker,
		CreatedAt:    s.now(),
	}
	if err := s.store.InsertWorker(ctx, w); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("worker_id", w.ID).Str("username", username).Msg("worker added")
	return w, nil
}

// DeleteWorker removes a worker account.
func (s *Service) DeleteWorker(ctx context.Context, id int64) error {
	if err := s.store.DeleteWorker(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("worker_id", id).Msg("worker deleted")
	return nil
}

// ListWorkers returns all worker accounts.
func (s *Service) ListWorkers(ctx context.Context) ([]domain.Worker, error) {
	return s.store.ListWorkers(ctx)
}

// ─── Authentication ─────────────────────────────────────────────────────────

// Authenticate checks the admin credential first, then the worker table.
// Every mismatch returns domain.ErrUnauthorized.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*domain.Principal, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, domain.ErrUnauthorized
	}

	if username == s.cfg.AdminUsername && s.cfg.AdminPasswordHash != "" {
		if bcrypt.CompareHashAndPassword([]byte(s.cfg.AdminPasswordHash), []byte(password)) != nil {
			return nil, domain.ErrUnauthorized
		}
		return &domain.Principal{UserID: 0, Username: username, Role: domain.RoleAdmin}, nil
	}

	w, err := s.store.GetWorkerByUsername(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(w.PasswordHash), []byte(password)) != nil {
		return nil, domain.ErrUnauthorized
	}
	return &domain.Principal{UserID: w.ID, Username: w.Username, Role: w.Role}, nil
}

// ─── Session Tokens ─────────────────────────────────────────────────────────

type sessionClaims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs a session token for p and returns it with its expiry.
func (s *Service) IssueToken(p domain.Principal) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.cfg.SessionTTL)
	claims := sessionClaims{
		UserID:   p.UserID,
		Username: p.Username,
		Role:     string(p.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   p.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.SessionSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session: %w", err)
	}
	return token, exp, nil
}

// ParseToken verifies a session token and returns its principal.
func (s *Service) ParseToken(token string) (*domain.Principal, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.cfg.SessionSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, domain.ErrUnauthorized
	}
	role := domain.Role(claims.Role)
	if role != domain.RoleAdmin && role != domain.RoleWorker {
		return nil, domain.ErrUnauthorized
	}
	return &domain.Principal{UserID: claims.UserID, Username: claims.Username, Role: role}, nil
}
