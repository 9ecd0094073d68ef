package token

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParseJWT(t *testing.T) {
	tk, err := GenerateJWT("member-1", string(RoleMember), "member_service")
	require.NoError(t, err)

	t.Run("raw token", func(t *testing.T) {
		claims, err := ParseJWT(tk)
		require.NoError(t, err)
		assert.Equal(t, "member-1", claims.MemberID)
		assert.Equal(t, string(RoleMember), claims.Role)
		assert.Equal(t, "member_service", claims.Issuer)
		assert.WithinDuration(t, time.Now().Add(TokenExpiration), claims.ExpiresAt.Time, time.Minute)
	})

	t.Run("bearer prefix", func(t *testing.T) {
		claims, err := ParseJWT("Bearer " + tk)
		require.NoError(t, err)
		assert.Equal(t, "member-1", claims.MemberID)
	})
}

func TestParseJWTRejects(t *testing.T) {
	t.Run("garbage", func(t *testing.T) {
		_, err := ParseJWT("not-a-token")
		assert.Error(t, err)
	})

	t.Run("expired", func(t *testing.T) {
		claims := Claims{
			MemberID: "member-1",
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		}
		tk, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(JWTSecret)
		require.NoError(t, err)

		_, err = ParseJWT(tk)
		assert.Error(t, err)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tk, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{MemberID: "member-1"}).SignedString([]byte("other"))
		require.NoError(t, err)

		_, err = ParseJWT(tk)
		assert.Error(t, err)
	})

	t.Run("missing member id", func(t *testing.T) {
		tk, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{Role: "member"}).SignedString(JWTSecret)
		require.NoError(t, err)

		_, err = ParseJWT(tk)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestWrappersUseSwappableFuncs(t *testing.T) {
	origGen, origParse := GenerateJWTFunc, ParseJWTFunc
	defer func() { GenerateJWTFunc, ParseJWTFunc = origGen, origParse }()

	GenerateJWTFunc = func(memberID, role, issuer string) (string, error) { return "fixed:" + memberID, nil }
	ParseJWTFunc = func(t string) (*Claims, error) { return &Claims{MemberID: t}, nil }

	tk, err := GenerateJWTWrapper("m-9", "member")
	require.NoError(t, err)
	assert.Equal(t, "fixed:m-9", tk)

	c, err := ParseJWTWrapper("m-9")
	require.NoError(t, err)
	assert.Equal(t, "m-9", c.MemberID)
}

func TestStripBearer(t *testing.T) {
	assert.Equal(t, "abc", StripBearer("Bearer abc"))
	assert.Equal(t, "abc", StripBearer("bearer abc"))
	assert.Equal(t, "abc", StripBearer("abc"))
}
