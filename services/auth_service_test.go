package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService(t *testing.T) {
	ctx := context.Background()

	newService := func() (AuthService, *fakeUserRepo) {
		repo := newFakeUserRepo()
		return NewAuthService(repo), repo
	}

	t.Run("register and login", func(t *testing.T) {
		service, _ := newService()

		user, err := service.Register(ctx, RegisterInput{
			Name:     "Pedro",
			Email:    "  Pedro@Example.com ",
			Password: "segredo-forte",
		})
		require.NoError(t, err)
		assert.Equal(t, "pedro@example.com", user.Email)
		assert.NotEqual(t, "segredo-forte", user.PasswordHash)

		logged, err := service.Login(ctx, LoginInput{
			Email:    "pedro@example.com",
			Password: "segredo-forte",
		})
		require.NoError(t, err)
		assert.Equal(t, user.ID, logged.ID)
		assert.Empty(t, logged.PasswordHash)
	})

	t.Run("short password rejected", func(t *testing.T) {
		service, _ := newService()

		_, err := service.Register(ctx, RegisterInput{
			Name:     "Pedro",
			Email:    "pedro@example.com",
			Password: "curta",
		})
		require.ErrorIs(t, err, ErrPasswordTooShort)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		service, _ := newService()

		_, err := service.Register(ctx, RegisterInput{Name: "Pedro", Email: "pedro@example.com", Password: "segredo-forte"})
		require.NoError(t, err)

		_, err = service.Register(ctx, RegisterInput{Name: "Outro", Email: "PEDRO@example.com", Password: "outra-senha"})
		require.ErrorIs(t, err, ErrEmailConflict)
	})

	t.Run("wrong password", func(t *testing.T) {
		service, _ := newService()

		_, err := service.Register(ctx, RegisterInput{Name: "Pedro", Email: "pedro@example.com", Password: "segredo-forte"})
		require.NoError(t, err)

		_, err = service.Login(ctx, LoginInput{Email: "pedro@example.com", Password: "senha-errada"})
		require.ErrorIs(t, err, ErrInvalidCredentials)

		_, err = service.Login(ctx, LoginInput{Email: "ninguem@example.com", Password: "segredo-forte"})
		require.ErrorIs(t, err, ErrInvalidCredentials)
	})
}
