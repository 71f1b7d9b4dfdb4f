package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func signed(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestStatic(t *testing.T) {
	id, err := Static(" u1 ").UserID(context.Background())
	if err != nil || id != "u1" {
		t.Errorf("UserID() = %q, %v, want u1, nil", id, err)
	}

	if _, err := Static("").UserID(context.Background()); !errors.Is(err, ErrNoIdentity) {
		t.Errorf("empty Static error = %v, want ErrNoIdentity", err)
	}
}

func TestTokenProvider(t *testing.T) {
	future := time.Now().Add(time.Hour).Unix()
	past := time.Now().Add(-time.Hour).Unix()

	tests := []struct {
		name    string
		token   string
		secret  string
		want    string
		wantErr bool
	}{
		{
			name:   "sub claim verified",
			token:  signed(t, jwt.MapClaims{"sub": "u1", "exp": future}, "k"),
			secret: "k",
			want:   "u1",
		},
		{
			name:  "user_id claim unverified",
			token: signed(t, jwt.MapClaims{"user_id": "u2"}, "other"),
			want:  "u2",
		},
		{
			name:  "userId claim with bearer prefix",
			token: "Bearer " + signed(t, jwt.MapClaims{"userId": "u3"}, "k"),
			want:  "u3",
		},
		{
			name:    "wrong secret",
			token:   signed(t, jwt.MapClaims{"sub": "u1"}, "k"),
			secret:  "nope",
			wantErr: true,
		},
		{
			name:    "expired verified",
			token:   signed(t, jwt.MapClaims{"sub": "u1", "exp": past}, "k"),
			secret:  "k",
			wantErr: true,
		},
		{
			name:    "expired unverified",
			token:   signed(t, jwt.MapClaims{"sub": "u1", "exp": past}, "k"),
			wantErr: true,
		},
		{
			name:    "no user claim",
			token:   signed(t, jwt.MapClaims{"role": "admin"}, "k"),
			wantErr: true,
		},
		{
			name:    "garbage",
			token:   "not.a.token",
			wantErr: true,
		},
		{
			name:    "empty",
			token:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewTokenProvider(tt.token, []byte(tt.secret))
			got, err := p.UserID(context.Background())
			if tt.wantErr {
				if !errors.Is(err, ErrNoIdentity) {
					t.Errorf("UserID() error = %v, want ErrNoIdentity", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("UserID() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("UserID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTokenProvider_FollowsTokenChanges(t *testing.T) {
	token := ""
	p := &TokenProvider{Token: func() string { return token }}

	if _, err := p.UserID(context.Background()); !errors.Is(err, ErrNoIdentity) {
		t.Fatalf("UserID() error = %v, want ErrNoIdentity before login", err)
	}

	token = signed(t, jwt.MapClaims{"sub": "after-login"}, "k")
	got, err := p.UserID(context.Background())
	if err != nil || got != "after-login" {
		t.Errorf("UserID() = %q, %v, want after-login", got, err)
	}
}
