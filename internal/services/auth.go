package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	types "github.com/yungbote/rentalchat-backend/internal/domain"
	"github.com/yungbote/rentalchat-backend/internal/platform/ctxutil"
	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
)

const DefaultAccessTTL = 24 * time.Hour

// AuthService verifies the bearer tokens issued by the marketplace. Accounts
// and sessions live upstream; the chat core only trusts the signed claims.
type AuthService interface {
	IssueToken(userID uuid.UUID, role string, ttl time.Duration) (string, error)
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
}

type JWTClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type authService struct {
	log          *logger.Logger
	jwtSecretKey string
	now          Clock
}

func NewAuthService(log *logger.Logger, jwtSecretKey string, clock Clock) AuthService {
	if clock == nil {
		clock = systemClock
	}
	return &authService{
		log:          log.With("service", "AuthService"),
		jwtSecretKey: jwtSecretKey,
		now:          clock,
	}
}

func (as *authService) IssueToken(userID uuid.UUID, role string, ttl time.Duration) (string, error) {
	if userID == uuid.Nil {
		return "", fmt.Errorf("user id required")
	}
	if strings.TrimSpace(as.jwtSecretKey) == "" {
		return "", fmt.Errorf("jwt secret not configured")
	}
	if ttl <= 0 {
		ttl = DefaultAccessTTL
	}
	now := as.now()
	claims := JWTClaims{
		Role: string(types.NormalizeRole(role)),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, fmt.Errorf("token required")
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(as.now),
	)
	if err != nil {
		return ctx, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, fmt.Errorf("invalid or expired token")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, fmt.Errorf("invalid user id in token: %w", err)
	}
	rd := &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		Role:        string(types.NormalizeRole(claims.Role)),
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

// IdentityFromContext reads the caller resolved by the auth middleware.
func IdentityFromContext(ctx context.Context) Identity {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil {
		return Identity{}
	}
	return Identity{UserID: rd.UserID, Role: types.NormalizeRole(rd.Role)}
}
