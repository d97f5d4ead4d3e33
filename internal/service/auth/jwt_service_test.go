package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/scry-scheduler/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret  = "test-secret-that-is-long-enough-for-testing"
	wrongSecret = "wrong-secret-that-is-long-enough-for-testing"
)

var fixedTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, secret string, now time.Time) *hmacJWTService {
	t.Helper()
	svc, err := newJWTService(config.AuthConfig{
		JWTSecret:     secret,
		Issuer:        "scry",
		TokenLifetime: time.Hour,
	}, func() time.Time { return now })
	require.NoError(t, err)
	return svc
}

func TestNewJWTServiceRejectsShortSecret(t *testing.T) {
	t.Parallel()
	_, err := NewJWTService(config.AuthConfig{JWTSecret: "short"})
	assert.Error(t, err)
}

func TestGenerateToken(t *testing.T) {
	t.Parallel()
	svc := newTestService(t, testSecret, fixedTime)
	userID := uuid.New()

	token, err := svc.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.ValidateToken(context.Background(), token)
	require.NoError(t, err)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, "scry", claims.Issuer)
	assert.Equal(t, tokenTypeAccess, claims.TokenType)
	assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
	assert.Equal(t, fixedTime.Add(time.Hour).Unix(), claims.ExpiresAt.Unix())
	assert.NotEmpty(t, claims.ID)
}

func TestValidateToken(t *testing.T) {
	t.Parallel()
	userID := uuid.New()

	signed := func(t *testing.T, claims jwtCustomClaims, method jwt.SigningMethod, key any) string {
		token, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return token
	}
	baseClaims := func(tokenType string) jwtCustomClaims {
		return jwtCustomClaims{
			UserID:    userID,
			TokenType: tokenType,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   userID.String(),
				Issuer:    "scry",
				IssuedAt:  jwt.NewNumericDate(fixedTime),
				ExpiresAt: jwt.NewNumericDate(fixedTime.Add(time.Hour)),
			},
		}
	}

	tests := []struct {
		name    string
		now     time.Time
		token   func(t *testing.T) string
		wantErr error
	}{
		{
			name: "valid token",
			now:  fixedTime,
			token: func(t *testing.T) string {
				return signed(t, baseClaims(tokenTypeAccess), jwt.SigningMethodHS256, []byte(testSecret))
			},
		},
		{
			name: "within clock skew after expiry",
			now:  fixedTime.Add(time.Hour + time.Minute),
			token: func(t *testing.T) string {
				return signed(t, baseClaims(tokenTypeAccess), jwt.SigningMethodHS256, []byte(testSecret))
			},
		},
		{
			name: "expired token",
			now:  fixedTime.Add(2 * time.Hour),
			token: func(t *testing.T) string {
				return signed(t, baseClaims(tokenTypeAccess), jwt.SigningMethodHS256, []byte(testSecret))
			},
			wantErr: ErrExpiredToken,
		},
		{
			name: "wrong signature",
			now:  fixedTime,
			token: func(t *testing.T) string {
				return signed(t, baseClaims(tokenTypeAccess), jwt.SigningMethodHS256, []byte(wrongSecret))
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "wrong signing method",
			now:  fixedTime,
			token: func(t *testing.T) string {
				return signed(t, baseClaims(tokenTypeAccess), jwt.SigningMethodHS512, []byte(testSecret))
			},
			wantErr: ErrInvalidToken,
		},
		{
			name: "refresh token rejected",
			now:  fixedTime,
			token: func(t *testing.T) string {
				return signed(t, baseClaims("refresh"), jwt.SigningMethodHS256, []byte(testSecret))
			},
			wantErr: ErrWrongTokenType,
		},
		{
			name: "foreign issuer",
			now:  fixedTime,
			token: func(t *testing.T) string {
				c := baseClaims(tokenTypeAccess)
				c.Issuer = "elsewhere"
				return signed(t, c, jwt.SigningMethodHS256, []byte(testSecret))
			},
			wantErr: ErrInvalidToken,
		},
		{
			name:    "malformed token",
			now:     fixedTime,
			token:   func(*testing.T) string { return "not.a.token" },
			wantErr: ErrInvalidToken,
		},
		{
			name: "issued in the future",
			now:  fixedTime.Add(-10 * time.Minute),
			token: func(t *testing.T) string {
				c := baseClaims(tokenTypeAccess)
				c.NotBefore = jwt.NewNumericDate(fixedTime)
				return signed(t, c, jwt.SigningMethodHS256, []byte(testSecret))
			},
			wantErr: ErrTokenNotYetValid,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			svc := newTestService(t, testSecret, tc.now)

			claims, err := svc.ValidateToken(context.Background(), tc.token(t))
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, userID, claims.UserID)
		})
	}
}
