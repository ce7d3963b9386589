package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func TestFromHeader(t *testing.T) {
	tests := []struct {
		header string
		token  string
		err    error
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", nil},
		{"bearer   abc ", "abc", nil},
		{"", "", ErrMissingToken},
		{"Basic dXNlcjpwYXNz", "", ErrInvalidToken},
		{"Bearer", "", ErrInvalidToken},
		{"Bearer    ", "", ErrInvalidToken},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			token, err := FromHeader(tt.header)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.token, token)
		})
	}
}

func TestVerifier_RoundTrip(t *testing.T) {
	v := NewVerifier("shared", "https://id.example.com", "sessionhub")
	want := Identity{ExternalID: "user_123", Name: "Ada", Email: "ada@example.com", Image: "https://img/ada"}

	token, err := v.Issue(want, time.Minute)
	require.NoError(t, err)

	got, err := v.Verify(token)
	require.NoError(t, err)
	require.Equal(t, want, *got)
}

func TestVerifier_Rejects(t *testing.T) {
	v := NewVerifier("shared", "https://id.example.com", "sessionhub")
	sign := func(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
		t.Helper()
		token, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return token
	}
	valid := func() *Claims {
		return &Claims{RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user_123",
			Issuer:    "https://id.example.com",
			Audience:  jwt.ClaimStrings{"sessionhub"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		}}
	}

	tests := map[string]func(t *testing.T) string{
		"empty":   func(t *testing.T) string { return "" },
		"garbage": func(t *testing.T) string { return "not-a-jwt" },
		"wrong secret": func(t *testing.T) string {
			return sign(t, jwt.SigningMethodHS256, []byte("other"), valid())
		},
		"wrong algorithm": func(t *testing.T) string {
			return sign(t, jwt.SigningMethodHS512, []byte("shared"), valid())
		},
		"expired beyond leeway": func(t *testing.T) string {
			c := valid()
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
			return sign(t, jwt.SigningMethodHS256, []byte("shared"), c)
		},
		"no expiry": func(t *testing.T) string {
			c := valid()
			c.ExpiresAt = nil
			return sign(t, jwt.SigningMethodHS256, []byte("shared"), c)
		},
		"wrong issuer": func(t *testing.T) string {
			c := valid()
			c.Issuer = "https://evil.example.com"
			return sign(t, jwt.SigningMethodHS256, []byte("shared"), c)
		},
		"wrong audience": func(t *testing.T) string {
			c := valid()
			c.Audience = jwt.ClaimStrings{"someone-else"}
			return sign(t, jwt.SigningMethodHS256, []byte("shared"), c)
		},
		"no subject": func(t *testing.T) string {
			c := valid()
			c.Subject = ""
			return sign(t, jwt.SigningMethodHS256, []byte("shared"), c)
		},
	}

	for name, build := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := v.Verify(build(t))
			require.Error(t, err)
		})
	}
}

func TestVerifier_LeewayAcceptsSmallSkew(t *testing.T) {
	v := NewVerifier("shared", "", "")
	claims := &Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   "user_123",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-5 * time.Second)),
	}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("shared"))
	require.NoError(t, err)

	id, err := v.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "user_123", id.ExternalID)
}
