package services

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yungbote/interview-brief-backend/internal/domain"
	"github.com/yungbote/interview-brief-backend/internal/platform/logger"
)

func TestAuthServiceRoundTrip(t *testing.T) {
	as, err := NewAuthService(logger.Nop(), AuthConfig{SecretKey: "s3cret", Issuer: "brief"})
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	tok, err := as.IssueToken("int-1", "a@example.com", time.Hour)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	ctx, err := as.SetContextFromToken(context.Background(), tok)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	actor, err := ActorFromContext(ctx)
	if err != nil {
		t.Fatalf("ActorFromContext: %v", err)
	}
	if actor.ID != "int-1" || actor.Email != "a@example.com" {
		t.Fatalf("actor: got=%+v", actor)
	}
}

func TestAuthServiceRejects(t *testing.T) {
	as, _ := NewAuthService(logger.Nop(), AuthConfig{SecretKey: "s3cret", Issuer: "brief"})
	other, _ := NewAuthService(logger.Nop(), AuthConfig{SecretKey: "other", Issuer: "brief"})

	forged, _ := other.IssueToken("int-1", "a@example.com", time.Hour)
	if _, err := as.SetContextFromToken(context.Background(), forged); !domain.IsCode(err, domain.CodeAuthorization) {
		t.Fatalf("wrong key: want authorization got=%v", err)
	}
	expired, _ := as.IssueToken("int-1", "a@example.com", -time.Minute)
	if _, err := as.SetContextFromToken(context.Background(), expired); err == nil {
		t.Fatalf("expired token accepted")
	}
	noEmail, _ := as.IssueToken("int-1", "", time.Hour)
	if _, err := as.SetContextFromToken(context.Background(), noEmail); !domain.IsCode(err, domain.CodeAuthorization) {
		t.Fatalf("missing email: want authorization got=%v", err)
	}

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "int-1", "email": "a@example.com", "iss": "brief"})
	raw, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := as.SetContextFromToken(context.Background(), raw); err == nil {
		t.Fatalf("alg=none accepted")
	}

	if _, err := NewAuthService(logger.Nop(), AuthConfig{}); err == nil {
		t.Fatalf("empty secret: want error")
	}
}

func TestActorFromContextRequiresIdentity(t *testing.T) {
	if _, err := ActorFromContext(context.Background()); !domain.IsCode(err, domain.CodeAuthorization) {
		t.Fatalf("anonymous: want authorization got=%v", err)
	}
}
