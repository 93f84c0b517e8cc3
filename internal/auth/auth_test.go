package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345"

func testPrincipal(role Role) Principal {
	gymID := uuid.New()
	return Principal{ID: uuid.New(), Role: role, GymID: &gymID}
}

func TestHashPassword(t *testing.T) {
	t.Run("Successfully hash password", func(t *testing.T) {
		password := "mySecurePassword123"
		hashed, err := HashPassword(password)

		assert.NoError(t, err)
		assert.NotEmpty(t, hashed)
		assert.NotEqual(t, password, hashed)
	})

	t.Run("Different hashes for same password", func(t *testing.T) {
		hash1, _ := HashPassword("samePassword")
		hash2, _ := HashPassword("samePassword")

		assert.NotEqual(t, hash1, hash2)
	})
}

func TestCheckPassword(t *testing.T) {
	hashed, _ := HashPassword("correctPassword")

	assert.True(t, CheckPassword(hashed, "correctPassword"))
	assert.False(t, CheckPassword(hashed, "wrongPassword"))
	assert.False(t, CheckPassword(hashed, ""))
}

func TestGenerateAndValidateAccessToken(t *testing.T) {
	p := testPrincipal(RoleStudent)

	token, err := GenerateAccessToken(p, "student@example.com", testSecret)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)

	assert.Equal(t, p.ID.String(), claims.Subject)
	assert.Equal(t, RoleStudent, claims.Role)
	assert.Equal(t, p.GymID.String(), claims.GymID)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, "student@example.com", claims.Email)

	got, err := claims.Principal()
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, *p.GymID, *got.GymID)
}

func TestGenerateTokenWithoutGym(t *testing.T) {
	p := Principal{ID: uuid.New(), Role: RoleSuperAdmin}

	token, err := GenerateAccessToken(p, "root@example.com", testSecret)
	require.NoError(t, err)

	claims, err := ValidateToken(token, testSecret)
	require.NoError(t, err)
	assert.Empty(t, claims.GymID)

	got, err := claims.Principal()
	require.NoError(t, err)
	assert.Nil(t, got.GymID)
}

func TestGenerateTokens(t *testing.T) {
	p := testPrincipal(RoleTeacher)

	access, refresh, err := GenerateTokens(p, "t@example.com", testSecret, "refresh-secret")
	require.NoError(t, err)
	assert.NotEqual(t, access, refresh)

	refreshClaims, err := ValidateToken(refresh, "refresh-secret")
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refreshClaims.TokenType)

	_, err = ValidateToken(refresh, testSecret)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestGenerateTokenEmptySecret(t *testing.T) {
	_, err := GenerateAccessToken(testPrincipal(RoleStudent), "x@example.com", "")
	assert.ErrorIs(t, err, ErrEmptyJWTSecret)

	_, err = ValidateToken("whatever", "")
	assert.ErrorIs(t, err, ErrEmptyJWTSecret)
}

func TestValidateToken(t *testing.T) {
	t.Run("Malformed token", func(t *testing.T) {
		_, err := ValidateToken("not.a.token", testSecret)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		token, _ := GenerateAccessToken(testPrincipal(RoleStudent), "a@example.com", testSecret)
		_, err := ValidateToken(token, "other-secret")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Expired token", func(t *testing.T) {
		claims := &JWTClaims{
			Role:      RoleStudent,
			TokenType: TokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   uuid.NewString(),
				Issuer:    jwtIssuer,
				Audience:  []string{jwtAudience},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)

		_, err = ValidateToken(token, testSecret)
		assert.ErrorIs(t, err, ErrTokenExpired)
	})

	t.Run("Wrong issuer", func(t *testing.T) {
		claims := &JWTClaims{
			Role:      RoleStudent,
			TokenType: TokenTypeAccess,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   uuid.NewString(),
				Issuer:    "someone-else",
				Audience:  []string{jwtAudience},
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
			},
		}
		token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))

		_, err := ValidateToken(token, testSecret)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestClaimsPrincipalRejectsBadClaims(t *testing.T) {
	tests := []struct {
		name   string
		claims JWTClaims
	}{
		{"bad subject", JWTClaims{Role: RoleStudent, RegisteredClaims: jwt.RegisteredClaims{Subject: "42"}}},
		{"unknown role", JWTClaims{Role: "OWNER_GYM", RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()}}},
		{"bad gym", JWTClaims{Role: RoleStudent, GymID: "gym-1", RegisteredClaims: jwt.RegisteredClaims{Subject: uuid.NewString()}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.claims.Principal()
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestPrincipalHelpers(t *testing.T) {
	p := testPrincipal(RoleGymAdmin)

	assert.True(t, p.HasRole(RoleSuperAdmin, RoleGymAdmin))
	assert.False(t, p.HasRole(RoleStudent))
	assert.True(t, p.InGym(*p.GymID))
	assert.False(t, p.InGym(uuid.New()))
	assert.False(t, p.IsSuperAdmin())
	assert.True(t, Role("TEACHER").Valid())
	assert.False(t, Role("ADMIN").Valid())
}
