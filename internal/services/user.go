package service

import (
	"context"
	"database/sql"
	goerrors "errors"
	"log/slog"
	"time"

	"github.com/kunalverma25/flash-sale-backend/internal/api/middleware"
	"github.com/kunalverma25/flash-sale-backend/internal/config"
	"github.com/kunalverma25/flash-sale-backend/internal/errors"
	"github.com/kunalverma25/flash-sale-backend/internal/models"
	repository "github.com/kunalverma25/flash-sale-backend/internal/repositories"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	Profile(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

type userService struct {
	userRepo    repository.UserRepository
	rateLimiter repository.RateLimitRepository
	security    *config.Security
}

func NewUserService(userRepo repository.UserRepository, rateLimiter repository.RateLimitRepository, security *config.Security) UserService {
	return &userService{
		userRepo:    userRepo,
		rateLimiter: rateLimiter,
		security:    security,
	}
}

func (s *userService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {

	logger := middleware.LoggerFromContext(ctx)

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.InternalError("Failed to process password").WithError(err)
	}

	user := &models.User{
		ID:       uuid.New(),
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
	}

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if goerrors.Is(err, repository.ErrDuplicateEmail) {
			return nil, errors.DuplicateEntryError("Email is already registered")
		}
		return nil, errors.DatabaseError("Failed to create user").WithError(err)
	}

	logger.Info("User registered", slog.String("userId", user.ID.String()))

	return user, nil
}

func (s *userService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {

	logger := middleware.LoggerFromContext(ctx)

	// The limiter counts every attempt, successful or not, so stolen
	// credentials cannot be validated at full speed either.
	allowed, remaining, retryAfter, err := s.rateLimiter.CheckLoginRateLimit(ctx, req.Email)
	if err != nil {
		return nil, errors.InternalError("Failed to check rate limit").WithError(err)
	}

	if !allowed {
		return &models.LoginResponse{
			Success:    false,
			RetryAfter: retryAfter,
			Message:    "Too many login attempts, please try again later",
		}, errors.TooManyRequestsError("Too many login attempts")
	}

	user, err := s.userRepo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, errors.UnauthorizedError("Invalid email or password")
		}
		return nil, errors.DatabaseError("Failed to look up user").WithError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		logger.Warn("Failed login attempt", slog.String("email", req.Email), slog.Int("remainingTries", remaining))
		return nil, errors.UnauthorizedError("Invalid email or password")
	}

	token, err := s.issueToken(user)
	if err != nil {
		return nil, errors.InternalError("Failed to issue token").WithError(err)
	}

	return &models.LoginResponse{
		Success:        true,
		Token:          token,
		ExpiresIn:      int(s.security.TokenExpiry.Seconds()),
		RemainingTries: remaining,
	}, nil
}

func (s *userService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if goerrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFoundError("User not found")
		}
		return nil, errors.DatabaseError("Failed to load user").WithError(err)
	}

	return user, nil
}

func (s *userService) issueToken(user *models.User) (string, error) {

	now := time.Now()

	claims := models.Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.security.TokenExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(s.security.JWTKey))
}
