package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"crm_backend/internal/auth/repository"
	"crm_backend/internal/auth/token"
	"crm_backend/internal/auth/transport"
	"crm_backend/platform/apperr"
	"crm_backend/platform/config"
	"crm_backend/platform/logger"
)

const (
	defaultRole        = "user"
	invalidCredentials = "invalid credentials"
)

// dummyHash is compared against when the username is unknown so both
// failure paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("crm-placeholder-pw1"), bcrypt.DefaultCost)

type Service struct {
	repo repository.AuthRepository
	cfg  config.AuthServiceConfig
	log  *logger.Logger
	cost int
	now  func() time.Time
}

func New(repo repository.AuthRepository, cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{
		repo: repo,
		cfg:  cfg,
		log:  log,
		cost: bcrypt.DefaultCost,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WithCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

func (s *Service) Register(ctx context.Context, req transport.RegisterRequest) (transport.ProfileResponse, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return transport.ProfileResponse{}, apperr.Internal("hash password", err)
	}

	user := repository.User{
		ID:           uuid.New(),
		Username:     strings.ToLower(strings.TrimSpace(req.Username)),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hash),
		Role:         defaultRole,
		CreatedAt:    s.now(),
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return transport.ProfileResponse{}, err
	}

	s.log.WithContext(ctx).Info("user registered", "userId", user.ID, "username", user.Username)
	return toProfile(user), nil
}

func (s *Service) Login(ctx context.Context, req transport.LoginRequest) (transport.AuthResponse, error) {
	user, err := s.repo.GetUserByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(req.Password))
			s.log.AuthEvent("login", req.Username, false, "unknown user")
			return transport.AuthResponse{}, apperr.Unauthorized(invalidCredentials)
		}
		return transport.AuthResponse{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.log.AuthEvent("login", user.Username, false, "password mismatch")
		return transport.AuthResponse{}, apperr.Unauthorized(invalidCredentials)
	}

	now := s.now()
	ttl := s.cfg.GetAccessTokenTTL()
	signed, err := token.SignAccess(s.cfg.GetJWTAccessSecret(), user.ID, []string{user.Role}, ttl, now)
	if err != nil {
		return transport.AuthResponse{}, apperr.Internal("sign access token", err)
	}

	s.log.AuthEvent("login", user.Username, true, "")
	return transport.AuthResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresAt:   now.Add(ttl),
	}, nil
}

func (s *Service) GetMe(ctx context.Context, userID uuid.UUID) (transport.ProfileResponse, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return transport.ProfileResponse{}, err
	}
	return toProfile(user), nil
}

func (s *Service) ListUsers(ctx context.Context) ([]transport.ProfileResponse, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.ProfileResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toProfile(u))
	}
	return out, nil
}

func toProfile(u repository.User) transport.ProfileResponse {
	return transport.ProfileResponse{
		ID:        u.ID.String(),
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
