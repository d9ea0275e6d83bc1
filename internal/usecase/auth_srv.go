package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"stadium-ticketing/internal/clock"
	"stadium-ticketing/internal/data/entity"
	"stadium-ticketing/internal/data/repository"
	"stadium-ticketing/internal/domain"
	"stadium-ticketing/internal/dto/request"
	"stadium-ticketing/internal/dto/response"
	"stadium-ticketing/pkg/utils"

	"go.uber.org/zap"
)

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest) (*response.UserResponse, error)
	Login(ctx context.Context, req *request.LoginRequest) (*response.TokenResponse, error)
}

type authService struct {
	users  repository.UserRepository
	config *utils.Config
	clock  clock.Clock
	log    *zap.Logger
}

func NewAuthService(users repository.UserRepository, config *utils.Config, clk clock.Clock, log *zap.Logger) AuthService {
	return &authService{
		users:  users,
		config: config,
		clock:  clk,
		log:    log.With(zap.String("service", "auth")),
	}
}

func (s *authService) Register(ctx context.Context, req *request.RegisterRequest) (*response.UserResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	if err := validate(req, "invalid registration"); err != nil {
		s.log.Warn("Register validation failed", zap.Error(err))
		return nil, err
	}

	existing, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if existing != nil {
		return nil, domain.ErrEmailTaken
	}

	hash, err := utils.HashPassword(req.Password, s.config.Bcrypt.Cost)
	if err != nil {
		s.log.Error("Failed to hash password", zap.Error(err))
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entity.User{
		Email:        req.Email,
		PasswordHash: hash,
		Name:         req.Name,
		Role:         domain.RoleCustomer,
	}
	// unique index still decides when two registrations race
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info("User registered", zap.Int64("user_id", user.ID))

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (*response.TokenResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := validate(req, "invalid login"); err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	if user == nil || !utils.VerifyPassword(user.PasswordHash, req.Password) {
		s.log.Warn("Login failed", zap.String("email", req.Email))
		return nil, domain.ErrInvalidCredentials
	}

	ttl := time.Duration(s.config.JWT.ExpiryHours) * time.Hour
	token, err := utils.NewAccessToken(s.config.JWT.Secret, user.ID, user.Role, ttl, s.clock.Now())
	if err != nil {
		s.log.Error("Failed to issue token", zap.Error(err), zap.Int64("user_id", user.ID))
		return nil, err
	}

	s.log.Info("User logged in", zap.Int64("user_id", user.ID))

	return &response.TokenResponse{AccessToken: token.Token, ExpiresAt: token.ExpiresAt}, nil
}
