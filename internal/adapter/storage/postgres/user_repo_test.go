package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userColumns() []string {
	return []string{"id", "email", "referred_by", "has_invested", "referral_invested_count",
		"total_funded", "total_invested", "created_at", "updated_at"}
}

func TestUserRepo_GetByID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	id := uuid.New()
	referrer := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .+ FROM users WHERE id").
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(userColumns()).AddRow(
			id, "ada@example.com", &referrer, false, int64(0),
			int64(1000000), int64(0), now, now,
		))

	user, err := repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "ada@example.com", user.Email)
	require.NotNil(t, user.ReferredBy)
	assert.Equal(t, referrer, *user.ReferredBy)
	assert.False(t, user.HasInvested)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_MarkFirstInvestment(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET has_invested").
		WithArgs(userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	first, err := repo.MarkFirstInvestment(context.Background(), dbTx, userID)
	assert.NoError(t, err)
	assert.True(t, first)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_MarkFirstInvestment_AlreadySet(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET has_invested").
		WithArgs(userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	first, err := repo.MarkFirstInvestment(context.Background(), dbTx, userID)
	assert.NoError(t, err)
	assert.False(t, first)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_AddTotalFunded(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewUserRepo(mock)
	userID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users SET total_funded").
		WithArgs(int64(250000), userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	dbTx, err := mock.Begin(context.Background())
	require.NoError(t, err)

	err = repo.AddTotalFunded(context.Background(), dbTx, userID, 250000)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
