package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/platform/ctxutil"
	"github.com/yungbote/interview-brief-backend/internal/platform/envutil"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

// AuthService verifies interviewer bearer tokens. Tokens are HS256 with the
// interviewer id in "sub" and a required "email" claim.
type AuthService interface {
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	// IssueToken signs a token for local tooling and tests.
	IssueToken(interviewerID, email string, ttl time.Duration) (string, error)
}

type AuthConfig struct {
	SecretKey string
	Issuer    string
}

func AuthConfigFromEnv() AuthConfig {
	return AuthConfig{
		SecretKey: envutil.String("JWT_SECRET_KEY", ""),
		Issuer:    envutil.String("JWT_ISSUER", ""),
	}
}

type interviewerClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type authService struct {
	log    *logger.Logger
	secret []byte
	issuer string
}

func NewAuthService(baseLog *logger.Logger, cfg AuthConfig) (AuthService, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("missing JWT_SECRET_KEY")
	}
	return &authService{
		log:    baseLog.With("service", "AuthService"),
		secret: []byte(cfg.SecretKey),
		issuer: strings.TrimSpace(cfg.Issuer),
	}, nil
}

func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	const op = "verify_token"
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if as.issuer != "" {
		opts = append(opts, jwt.WithIssuer(as.issuer))
	}
	claims := &interviewerClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return as.secret, nil
	}, opts...)
	if err != nil || !token.Valid {
		as.log.Debug("Token rejected", "error", err)
		return ctx, domain.NewError(domain.CodeAuthorization, op, "invalid token", err)
	}
	rd := &ctxutil.RequestData{
		TokenString:   tokenString,
		InterviewerID: strings.TrimSpace(claims.Subject),
		Email:         strings.TrimSpace(claims.Email),
	}
	if !rd.Authenticated() {
		return ctx, domain.NewError(domain.CodeAuthorization, op, "token lacks subject or email", nil)
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) IssueToken(interviewerID, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := interviewerClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   interviewerID,
			Issuer:    as.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(as.secret)
}
