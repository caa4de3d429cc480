package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-study/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "test-secret-that-is-long-enough-for-testing"
	wrongSecret = "wrong-secret-that-is-long-enough-for-testing"
)

var fixedTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, secret string, at time.Time) *hmacJWTService {
	t.Helper()
	svc, err := newHMACJWTService(config.AuthConfig{
		JWTSecret:            secret,
		TokenLifetimeMinutes: 60,
	}, func() time.Time { return at })
	require.NoError(t, err)
	return svc
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     config.AuthConfig
		wantErr bool
	}{
		{"valid", config.AuthConfig{JWTSecret: testSecret, TokenLifetimeMinutes: 60}, false},
		{"short secret", config.AuthConfig{JWTSecret: "short", TokenLifetimeMinutes: 60}, true},
		{"zero lifetime", config.AuthConfig{JWTSecret: testSecret}, true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc, err := NewJWTService(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, svc)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, svc)
		})
	}
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, testSecret, fixedTime)
	learnerID := uuid.New()

	token, err := svc.GenerateToken(context.Background(), learnerID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, learnerID, claims.LearnerID)
	assert.Equal(t, learnerID.String(), claims.Subject)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)

	_, err = svc.GenerateToken(context.Background(), uuid.Nil)
	assert.ErrorIs(t, err, ErrInvalidLearnerID)
}

func signRaw(t *testing.T, claims jwtCustomClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func TestValidateToken(t *testing.T) {
	t.Parallel()

	learnerID := uuid.New()
	issue := func(t *testing.T, secret string, at time.Time) string {
		token, err := newTestService(t, secret, at).GenerateToken(context.Background(), learnerID)
		require.NoError(t, err)
		return token
	}

	tests := []struct {
		name    string
		token   func(t *testing.T) string
		at      time.Time
		wantErr error
	}{
		{
			name:  "valid token",
			token: func(t *testing.T) string { return issue(t, testSecret, fixedTime) },
			at:    fixedTime,
		},
		{
			name:  "within clock skew after expiry",
			token: func(t *testing.T) string { return issue(t, testSecret, fixedTime) },
			at:    fixedTime.Add(time.Hour + time.Minute),
		},
		{
			name:    "expired token",
			token:   func(t *testing.T) string { return issue(t, testSecret, fixedTime) },
			at:      fixedTime.Add(2 * time.Hour),
			wantErr: ErrExpiredToken,
		},
		{
			name: "not yet valid",
			token: func(t *testing.T) string {
				return signRaw(t, jwtCustomClaims{
					LearnerID: learnerID,
					TokenType: TokenTypeAccess,
					RegisteredClaims: jwt.RegisteredClaims{
						NotBefore: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
						ExpiresAt: jwt.NewNumericDate(fixedTime.Add(2 * time.Hour)),
					},
				})
			},
			at:      fixedTime,
			wantErr: ErrTokenNotYetValid,
		},
		{
			name:    "invalid signature",
			token:   func(t *testing.T) string { return issue(t, wrongSecret, fixedTime) },
			at:      fixedTime,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "malformed token",
			token:   func(t *testing.T) string { return "this.is.not.a.valid.jwt.token" },
			at:      fixedTime,
			wantErr: ErrInvalidToken,
		},
		{
			name:    "empty token",
			token:   func(t *testing.T) string { return "" },
			at:      fixedTime,
			wantErr: ErrMissingToken,
		},
		{
			name: "wrong token type",
			token: func(t *testing.T) string {
				return signRaw(t, jwtCustomClaims{
					LearnerID: learnerID,
					TokenType: "refresh",
					RegisteredClaims: jwt.RegisteredClaims{
						ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
					},
				})
			},
			at:      fixedTime,
			wantErr: ErrWrongTokenType,
		},
		{
			name: "missing learner",
			token: func(t *testing.T) string {
				return signRaw(t, jwtCustomClaims{
					TokenType: TokenTypeAccess,
					RegisteredClaims: jwt.RegisteredClaims{
						ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
					},
				})
			},
			at:      fixedTime,
			wantErr: ErrInvalidLearnerID,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			token := tt.token(t)
			claims, err := newTestService(t, testSecret, tt.at).ValidateToken(context.Background(), token)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, learnerID, claims.LearnerID)
		})
	}
}
