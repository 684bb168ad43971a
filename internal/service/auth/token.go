package auth

import (
	"context"
	"errors"
	"time"

	"github.com/Temutjin2k/fieldtrack/internal/domain/models"
	"github.com/Temutjin2k/fieldtrack/internal/domain/types"
	wrap "github.com/Temutjin2k/fieldtrack/pkg/logger/wrapper"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "fieldtrack"

type TokenService struct {
	AccessTTL time.Duration
	secret    []byte
	now       func() time.Time
}

func NewTokenService(secret string, accessTTL time.Duration) *TokenService {
	return &TokenService{
		AccessTTL: accessTTL,
		secret:    []byte(secret),
		now:       time.Now,
	}
}

// Generate signs an HS256 access token for user.
func (s *TokenService) Generate(ctx context.Context, user *models.User) (*models.AccessToken, error) {
	ctx = wrap.WithAction(ctx, "generate_token")
	if user == nil {
		return nil, wrap.Error(ctx, errors.New("user is nil"))
	}

	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.AccessTTL)

	claims := models.CustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	return &models.AccessToken{Token: signed, ExpiresAt: expiresAt}, nil
}

// Validate parses token and returns its claims. Expired tokens yield ErrExpiredToken,
// anything else unusable yields ErrInvalidToken.
func (s *TokenService) Validate(ctx context.Context, token string) (*models.CustomClaims, error) {
	ctx = wrap.WithAction(ctx, "validate_token")

	claims := &models.CustomClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, wrap.Error(ctx, types.ErrExpiredToken)
		}
		return nil, wrap.Error(ctx, types.ErrInvalidToken)
	}
	if !parsed.Valid || claims.UserID == uuid.Nil {
		return nil, wrap.Error(ctx, types.ErrInvalidToken)
	}

	return claims, nil
}
