package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	"github.com/Temutjin2k/fieldtrack/pkg/logger"
	wrap "github.com/Temutjin2k/fieldtrack/pkg/logger/wrapper"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const ExpoTokenPrefix = "ExponentPushToken"

type AuthService struct {
	userRepo     UserRepo
	tokenService TokenProvider
	log          logger.Logger
}

func NewAuthService(userRepo UserRepo, tokenService TokenProvider, log logger.Logger) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		tokenService: tokenService,
		log:          log,
	}
}

// HashPassword returns the bcrypt hash stored in users.password_hash.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Register creates a worker account. The email is stored lower-cased.
func (s *AuthService) Register(ctx context.Context, in models.Registration) (*models.User, error) {
	ctx = wrap.WithAction(ctx, "register")

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("hash password: %w", err))
	}

	user := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hash,
		Role:         in.Role,
		Transport:    in.Transport,
		Region:       in.Region,
	}

	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if !created {
		return nil, types.ErrEmailTaken
	}

	ctx = wrap.WithUserID(ctx, user.ID.String())
	s.log.Info(ctx, "user registered", "role", user.Role, "region", user.Region)
	return user, nil
}

// Login checks the credentials and issues an access token.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.AccessToken, *models.User, error) {
	ctx = wrap.WithAction(ctx, "login")

	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, types.ErrUserNotFound) {
			return nil, nil, types.ErrInvalidCredentials
		}
		return nil, nil, wrap.Error(ctx, err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, types.ErrInvalidCredentials
	}

	ctx = wrap.WithUserID(ctx, user.ID.String())
	token, err := s.tokenService.Generate(ctx, user)
	if err != nil {
		return nil, nil, wrap.Error(ctx, err)
	}

	s.log.Info(ctx, "user logged in", "role", user.Role)
	return token, user, nil
}

// RoleCheck resolves the user behind an access token.
func (s *AuthService) RoleCheck(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokenService.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, types.ErrUserNotFound) {
			return nil, types.ErrInvalidToken
		}
		return nil, err
	}

	return user, nil
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// SavePushToken stores the Expo push token used by the start-of-day reminder.
func (s *AuthService) SavePushToken(ctx context.Context, userID uuid.UUID, token string) error {
	ctx = wrap.WithAction(wrap.WithUserID(ctx, userID.String()), "save_push_token")

	token = strings.TrimSpace(token)
	if !strings.HasPrefix(token, ExpoTokenPrefix) {
		return types.ErrInvalidPushToken
	}

	if err := s.userRepo.SetPushToken(ctx, userID, token); err != nil {
		return wrap.Error(ctx, err)
	}

	s.log.Debug(ctx, "push token saved")
	return nil
}
