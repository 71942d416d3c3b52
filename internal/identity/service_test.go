package identity_test

import (
	"context"
	"testing"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/freshconcept/gms-ordering/internal/identity"
)

type mockUserRepository struct {
	createFunc        func(ctx context.Context, u *identity.User) (uuid.UUID, error)
	getByIDFunc       func(ctx context.Context, id uuid.UUID) (*identity.User, error)
	getByUsernameFunc func(ctx context.Context, username string) (*identity.User, error)
}

func (m *mockUserRepository) Create(ctx context.Context, u *identity.User) (uuid.UUID, error) {
	return m.createFunc(ctx, u)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	return m.getByIDFunc(ctx, id)
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*identity.User, error) {
	return m.getByUsernameFunc(ctx, username)
}

func TestRegister(t *testing.T) {
	t.Run("hashes_password", func(t *testing.T) {
		var stored *identity.User
		repo := &mockUserRepository{
			createFunc: func(ctx context.Context, u *identity.User) (uuid.UUID, error) {
				stored = u
				return uuid.Must(uuid.NewV4()), nil
			},
		}

		svc := identity.NewService(repo)
		u := &identity.User{Username: "gms1", Email: "gms1@example.be", Role: identity.RoleCustomer}
		_, err := svc.Register(context.Background(), u, "s3cretpass")
		require.NoError(t, err)

		require.NotNil(t, stored)
		assert.NotEqual(t, "s3cretpass", stored.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cretpass")))
	})

	t.Run("empty_password", func(t *testing.T) {
		svc := identity.NewService(&mockUserRepository{})
		_, err := svc.Register(context.Background(), &identity.User{Role: identity.RoleCustomer}, "")
		assert.Error(t, err)
	})

	t.Run("unknown_role", func(t *testing.T) {
		svc := identity.NewService(&mockUserRepository{})
		_, err := svc.Register(context.Background(), &identity.User{Role: identity.Role("superuser")}, "s3cretpass")
		assert.Error(t, err)
	})
}

func TestAuthenticate(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cretpass"), bcrypt.DefaultCost)
	require.NoError(t, err)

	repo := &mockUserRepository{
		getByUsernameFunc: func(ctx context.Context, username string) (*identity.User, error) {
			if username != "gms1" {
				return nil, identity.ErrUserNotFound
			}
			return &identity.User{Username: "gms1", PasswordHash: string(hash), Role: identity.RoleCustomer}, nil
		},
	}
	svc := identity.NewService(repo)

	t.Run("valid_credentials", func(t *testing.T) {
		u, err := svc.Authenticate(context.Background(), "gms1", "s3cretpass")
		require.NoError(t, err)
		assert.Equal(t, identity.RoleCustomer, u.Role)
	})

	t.Run("wrong_password", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "gms1", "wrong")
		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	})

	t.Run("unknown_user", func(t *testing.T) {
		_, err := svc.Authenticate(context.Background(), "nobody", "s3cretpass")
		assert.ErrorIs(t, err, identity.ErrInvalidCredentials)
	})
}

func TestRoles(t *testing.T) {
	role, err := identity.ParseRole("employee")
	require.NoError(t, err)
	assert.True(t, role.CanManageBackOffice())

	_, err = identity.ParseRole("root")
	assert.Error(t, err)

	assert.False(t, identity.RoleCustomer.CanManageBackOffice())
	assert.Equal(t, "/orders/bulk", identity.LandingPath(identity.RoleCustomer))
	assert.Equal(t, "/dashboard", identity.LandingPath(identity.RoleEmployee))
	assert.Equal(t, "/admin", identity.LandingPath(identity.RoleAdmin))
}
