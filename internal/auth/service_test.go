package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mhsadiq/cartrace-backend/internal/users"
	pkgAuth "github.com/mhsadiq/cartrace-backend/pkg/auth"
	"github.com/mhsadiq/cartrace-backend/pkg/config"
	pkgerrors "github.com/mhsadiq/cartrace-backend/pkg/errors"
)

func setupAuthService(t *testing.T) Service {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	usersTable := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(usersTable).Error)

	svc, err := NewService(ServiceParams{
		UserRepo: users.NewRepository(db),
		JWTConfig: config.JWTConfig{
			Secret:            "test-secret",
			Issuer:            "cartrace",
			ExpirationMinutes: 30,
		},
		PasswordConfig: config.PasswordConfig{
			ArgonMemoryKB:    8,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
	})
	require.NoError(t, err)
	return svc
}

func TestRegisterAndLogin(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterRequest{
		Username: "line-operator",
		Email:    "Operator@Example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, registered.AccessToken)
	assert.Equal(t, "operator@example.com", registered.User.Email)

	response, err := svc.Login(ctx, LoginRequest{
		Email:    "operator@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, response.AccessToken)
	assert.NotNil(t, response.User.LastLoginAt)

	claims, err := pkgAuth.ParseAccessToken(config.JWTConfig{
		Secret: "test-secret",
		Issuer: "cartrace",
	}, response.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)
	assert.Equal(t, "line-operator", claims.Username)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		Username: "operator-one",
		Email:    "one@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{
		Username: "operator-two",
		Email:    "one@example.com",
		Password: "another password",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())

	_, err = svc.Register(ctx, RegisterRequest{
		Username: "operator-one",
		Email:    "two@example.com",
		Password: "another password",
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := setupAuthService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		Username: "operator",
		Email:    "operator@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginRequest{Email: "operator@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())

	_, err = svc.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: "whatever"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())

	_, err = svc.Login(ctx, LoginRequest{Email: "", Password: "whatever"})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}
