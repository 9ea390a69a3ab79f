package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/empresasbrasil/internal/auth"
)

var userRowColumns = []string{"id", "email", "password", "name", "plan", "created_at"}

func TestUserStoreByEmail(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery("FROM simple_users WHERE email = \\$1").
		WithArgs("test@test.com").
		WillReturnRows(pgxmock.NewRows(userRowColumns).AddRow(int64(1), "test@test.com", "hash", "Teste", "", created))
	mock.ExpectQuery("FROM simple_users WHERE email = \\$1").
		WithArgs("nobody@test.com").
		WillReturnRows(pgxmock.NewRows(userRowColumns))

	store := NewUserStore(mock)
	u, err := store.ByEmail(context.Background(), "Test@Test.com")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)
	assert.Equal(t, created, u.CreatedAt)

	_, err = store.ByEmail(context.Background(), "nobody@test.com")
	require.ErrorIs(t, err, auth.ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStoreCreateMapsUniqueViolation(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO simple_users").
		WithArgs("novo@test.com", "hash", "Novo").
		WillReturnRows(pgxmock.NewRows(userRowColumns).AddRow(int64(2), "novo@test.com", "hash", "Novo", "", time.Now()))
	mock.ExpectQuery("INSERT INTO simple_users").
		WithArgs("novo@test.com", "hash", "Novo").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})

	store := NewUserStore(mock)
	u, err := store.Create(context.Background(), auth.User{Email: "novo@test.com", PasswordHash: "hash", Name: "Novo"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), u.ID)

	_, err = store.Create(context.Background(), auth.User{Email: "novo@test.com", PasswordHash: "hash", Name: "Novo"})
	require.ErrorIs(t, err, auth.ErrEmailTaken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserStoreUpdates(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("UPDATE simple_users SET password").
		WithArgs("newhash", int64(1)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE simple_users SET plan").
		WithArgs("pro", int64(9)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	store := NewUserStore(mock)
	require.NoError(t, store.UpdatePassword(context.Background(), 1, "newhash"))
	require.ErrorIs(t, store.SetPlan(context.Background(), 9, "pro"), auth.ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}
