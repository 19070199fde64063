package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/DJ-LIFE/feedback-tool/internal/auth"
	"github.com/DJ-LIFE/feedback-tool/internal/domain"
	"github.com/DJ-LIFE/feedback-tool/internal/repository"
	apperrors "github.com/DJ-LIFE/feedback-tool/pkg/errors"
	"github.com/DJ-LIFE/feedback-tool/pkg/middleware"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 10

// minPasswordLength is the minimum password length required.
const minPasswordLength = 6

// RegisterInput holds the parameters for registering a new admin.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// LoginInput holds the parameters for admin login. Identifier is either the
// username or the email.
type LoginInput struct {
	Identifier string
	Password   string
}

// AdminService implements admin registration, login and token checks.
type AdminService struct {
	repo       repository.AdminRepository
	jwtManager *auth.JWTManager
	logger     *slog.Logger
}

// NewAdminService creates a new admin service.
func NewAdminService(repo repository.AdminRepository, jwtManager *auth.JWTManager, logger *slog.Logger) *AdminService {
	return &AdminService{
		repo:       repo,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// Register creates a new admin account and returns it with a token.
func (s *AdminService) Register(ctx context.Context, input RegisterInput) (*domain.AuthResult, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if username == "" {
		return nil, apperrors.InvalidInput("username is required")
	}
	if email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	exists, err := s.repo.Exists(ctx, username, email)
	if err != nil {
		return nil, apperrors.StorageUnavailable("register admin", err)
	}
	if exists {
		return nil, apperrors.AlreadyExists("admin", "username or email", username)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	admin := &domain.Admin{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(ctx, admin); err != nil {
		if errors.Is(err, apperrors.ErrAlreadyExists) {
			return nil, err
		}
		return nil, apperrors.StorageUnavailable("register admin", err)
	}

	token, err := s.jwtManager.GenerateToken(admin.ID, admin.Email)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.logger.InfoContext(ctx, "admin registered",
		slog.String("admin_id", admin.ID),
		slog.String("username", admin.Username),
	)

	return &domain.AuthResult{Admin: admin, Token: token}, nil
}

// Login authenticates an admin by username or email and password.
func (s *AdminService) Login(ctx context.Context, input LoginInput) (*domain.AuthResult, error) {
	identifier := strings.TrimSpace(input.Identifier)
	if identifier == "" {
		return nil, apperrors.InvalidInput("username or email is required")
	}
	if input.Password == "" {
		return nil, apperrors.InvalidInput("password is required")
	}

	admin, err := s.repo.FindByUsernameOrEmail(ctx, identifier)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid credentials")
		}
		return nil, apperrors.StorageUnavailable("log in", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperrors.Unauthorized("invalid credentials")
	}

	token, err := s.jwtManager.GenerateToken(admin.ID, admin.Email)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	s.logger.InfoContext(ctx, "admin logged in",
		slog.String("admin_id", admin.ID),
	)

	return &domain.AuthResult{Admin: admin, Token: token}, nil
}

// ValidateToken accepts a bearer token only if it is a valid admin token and
// its admin still exists. It satisfies middleware.TokenValidator.
func (s *AdminService) ValidateToken(ctx context.Context, token string) (*middleware.Claims, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	admin, err := s.repo.GetByID(ctx, claims.AdminID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("admin no longer exists")
		}
		return nil, apperrors.StorageUnavailable("verify admin", err)
	}

	return &middleware.Claims{AdminID: admin.ID, Email: admin.Email}, nil
}
