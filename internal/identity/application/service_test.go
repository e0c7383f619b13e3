package application_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Lavanya13-S/StreetFood-Connect/internal/access"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/identity/application"
	"github.com/Lavanya13-S/StreetFood-Connect/internal/identity/infrastructure/memory"
	"github.com/Lavanya13-S/StreetFood-Connect/pkg/apperr"
)

const secret = "test-secret"

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newService(t *testing.T) (*application.Service, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := application.NewService(log, memory.NewRepository(), application.NewTokens(secret, 30*time.Minute),
		application.WithHashCost(bcrypt.MinCost), application.WithClock(c.now))
	return svc, c
}

func register(t *testing.T, svc *application.Service, email, role string) {
	t.Helper()
	_, err := svc.Register(context.Background(), application.RegisterInput{
		Email: email, Password: "s3cret", Name: "Test " + role, Role: role,
		GSTNumber: "29ABCDE1234F1Z5", BusinessName: "Chaat Corner",
	})
	require.NoError(t, err)
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, application.RegisterInput{
		Email: "Ravi@Example.com", Password: "s3cret", Name: "Ravi", Role: "vendor",
		GSTNumber: "ignored", BusinessName: "Ravi Chaat",
	})
	require.NoError(t, err)
	assert.Equal(t, "ravi@example.com", u.Email)
	assert.Equal(t, access.RoleVendor, u.Role)
	assert.Equal(t, "Ravi Chaat", u.BusinessName)
	assert.Empty(t, u.GSTNumber)
	assert.NotEqual(t, "s3cret", u.PasswordHash)

	sess, err := svc.Login(ctx, "ravi@example.com", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, sess.User.ID)
	assert.Equal(t, time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC), sess.ExpiresAt.UTC())

	p, err := svc.Authenticate(ctx, sess.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, access.Principal{UserID: u.ID, Role: access.RoleVendor}, p)
}

func TestRegisterRejects(t *testing.T) {
	svc, _ := newService(t)
	register(t, svc, "dup@example.com", "supplier")

	cases := []struct {
		name string
		in   application.RegisterInput
		want error
	}{
		{"duplicate email", application.RegisterInput{Email: "DUP@example.com", Password: "x", Name: "n", Role: "vendor"}, apperr.ErrConflict},
		{"unknown role", application.RegisterInput{Email: "a@example.com", Password: "x", Name: "n", Role: "admin"}, apperr.ErrInvalidInput},
		{"bad email", application.RegisterInput{Email: "not-an-email", Password: "x", Name: "n", Role: "vendor"}, apperr.ErrInvalidInput},
		{"no password", application.RegisterInput{Email: "b@example.com", Name: "n", Role: "vendor"}, apperr.ErrInvalidInput},
		{"no name", application.RegisterInput{Email: "c@example.com", Password: "x", Role: "vendor"}, apperr.ErrInvalidInput},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoginBadCredentials(t *testing.T) {
	svc, _ := newService(t)
	register(t, svc, "s@example.com", "supplier")

	_, err := svc.Login(context.Background(), "s@example.com", "wrong")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	_, err = svc.Login(context.Background(), "nobody@example.com", "s3cret")
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestTokenExpiry(t *testing.T) {
	svc, c := newService(t)
	register(t, svc, "s@example.com", "supplier")
	sess, err := svc.Login(context.Background(), "s@example.com", "s3cret")
	require.NoError(t, err)

	c.t = c.t.Add(31 * time.Minute)
	_, err = svc.Authenticate(context.Background(), sess.AccessToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
}

func TestTokenVerifyRejects(t *testing.T) {
	tokens := application.NewTokens(secret, time.Hour)
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "role": "vendor", "exp": future}).
		SignedString([]byte("other-secret"))
	require.NoError(t, err)
	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "role": "admin", "exp": future}).
		SignedString([]byte(secret))
	require.NoError(t, err)
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1", "role": "vendor"}).
		SignedString([]byte(secret))
	require.NoError(t, err)
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u1", "role": "vendor", "exp": future}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for name, tok := range map[string]string{"forged": forged, "bad role": badRole, "no exp": noExp, "alg none": unsigned, "garbage": "abc"} {
		t.Run(name, func(t *testing.T) {
			_, err := tokens.Verify(tok)
			assert.ErrorIs(t, err, apperr.ErrUnauthorized)
		})
	}
}

func TestSuppliersDirectory(t *testing.T) {
	svc, _ := newService(t)
	register(t, svc, "s1@example.com", "supplier")
	register(t, svc, "s2@example.com", "supplier")
	register(t, svc, "v1@example.com", "vendor")

	list, err := svc.Suppliers(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2)
	for _, u := range list {
		assert.Equal(t, access.RoleSupplier, u.Role)
		assert.Equal(t, "29ABCDE1234F1Z5", u.GSTNumber)
	}
}
