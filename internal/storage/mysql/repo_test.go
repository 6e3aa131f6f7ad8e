package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	gomysql "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"car_dealership/internal/domain"
)

func newMock(t *testing.T) (*Repo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return New(db), mock
}

func TestRepo_CountMakes(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(countMakesSQL).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))

	n, err := repo.CountMakes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_SeedCatalog_UpsertsInOneTx(t *testing.T) {
	repo, mock := newMock(t)
	makes := []domain.CarMake{
		{Name: "NISSAN", Description: "Great cars. Japanese technology", Country: "Japan", Models: []domain.CarModel{
			{Name: "Pathfinder", Type: "SUV", Year: 2023, DealerID: 1},
			{Name: "Qashqai", Type: "SUV", Year: 2023, DealerID: 2},
		}},
		{Name: "Kia", Models: []domain.CarModel{
			{Name: "Sorrento", Type: "SUV", Year: 2023, DealerID: 3},
		}},
	}

	mock.ExpectBegin()
	mock.ExpectExec(upsertMakeSQL).WithArgs("NISSAN", "Great cars. Japanese technology", "Japan").
		WillReturnResult(sqlmock.NewResult(10, 1))
	mock.ExpectExec(upsertModelSQL).WithArgs(int64(10), "Pathfinder", "SUV", 2023, int64(1)).
		WillReturnResult(sqlmock.NewResult(100, 1))
	mock.ExpectExec(upsertModelSQL).WithArgs(int64(10), "Qashqai", "SUV", 2023, int64(2)).
		WillReturnResult(sqlmock.NewResult(101, 1))
	// blank description/country are stored as NULL
	mock.ExpectExec(upsertMakeSQL).WithArgs("Kia", nil, nil).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectExec(upsertModelSQL).WithArgs(int64(11), "Sorrento", "SUV", 2023, int64(3)).
		WillReturnResult(sqlmock.NewResult(102, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.SeedCatalog(context.Background(), makes))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_SeedCatalog_RollsBackOnError(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec(upsertMakeSQL).WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	err := repo.SeedCatalog(context.Background(), []domain.CarMake{{Name: "Audi"}})
	assert.ErrorContains(t, err, "boom")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_ListCarModels(t *testing.T) {
	repo, mock := newMock(t)
	rows := sqlmock.NewRows([]string{"id", "car_make_id", "make", "name", "type", "year", "dealer_id"}).
		AddRow(int64(1), int64(10), "NISSAN", "Pathfinder", "SUV", int64(2023), int64(1)).
		AddRow(int64(2), int64(11), "Audi", "A4", "SEDAN", int64(2020), int64(4))
	mock.ExpectQuery(listCarModelsSQL).WillReturnRows(rows)

	got, err := repo.ListCarModels(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.CarModel{ID: 1, MakeID: 10, MakeName: "NISSAN", Name: "Pathfinder", Type: "SUV", Year: 2023, DealerID: 1}, got[0])
	assert.Equal(t, "Audi", got[1].MakeName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepo_UserExists(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(userExistsSQL).WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.UserExists(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRepo_CreateUser(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(insertUserSQL).WithArgs("alice", "hash", "Alice", nil, "a@example.com").
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := repo.CreateUser(context.Background(), domain.User{
		Username: "alice", PasswordHash: "hash", FirstName: "Alice", Email: "a@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)
}

func TestRepo_CreateUser_Duplicate(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectExec(insertUserSQL).
		WillReturnError(&gomysql.MySQLError{Number: 1062, Message: "Duplicate entry 'alice'"})

	_, err := repo.CreateUser(context.Background(), domain.User{Username: "alice", PasswordHash: "h"})
	assert.ErrorIs(t, err, domain.ErrAlreadyRegistered)
}

func TestRepo_GetUserByUsername(t *testing.T) {
	repo, mock := newMock(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(getUserByUsernameSQL).WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "first_name", "last_name", "email", "created_at"}).
			AddRow(int64(7), "alice", "hash", "Alice", nil, "a@example.com", now))

	u, err := repo.GetUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, domain.User{ID: 7, Username: "alice", PasswordHash: "hash", FirstName: "Alice", Email: "a@example.com", CreatedAt: now}, u)
}

func TestRepo_GetUserByUsername_NotFound(t *testing.T) {
	repo, mock := newMock(t)
	mock.ExpectQuery(getUserByUsernameSQL).WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "first_name", "last_name", "email", "created_at"}))

	_, err := repo.GetUserByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
