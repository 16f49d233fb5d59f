package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/webservertaskmanager/task-api/internal/models"
	"github.com/webservertaskmanager/task-api/internal/testutil"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestUserRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testutil.NewTestDB(t))

	user := &models.User{Email: "a@x.com", Username: "alice", Password: "hash"}
	require.NoError(t, repo.Create(ctx, user))
	require.NotEmpty(t, user.ID)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", byID.Email)

	byEmail, err := repo.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = repo.FindByEmail(ctx, "missing@x.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestUserRepository_DuplicateEmailIsTranslated(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testutil.NewTestDB(t))

	require.NoError(t, repo.Create(ctx, &models.User{Email: "dup@x.com", Username: "first", Password: "hash"}))
	err := repo.Create(ctx, &models.User{Email: "dup@x.com", Username: "second", Password: "hash"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestUserRepository_UpdateAndRefreshToken(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testutil.NewTestDB(t))

	user := &models.User{Email: "a@x.com", Username: "alice", Password: "hash"}
	require.NoError(t, repo.Create(ctx, user))

	updated, err := repo.Update(ctx, user.ID, map[string]interface{}{"username": "alicia"})
	require.NoError(t, err)
	assert.Equal(t, "alicia", updated.Username)
	assert.Equal(t, "a@x.com", updated.Email)

	_, err = repo.Update(ctx, "missing", map[string]interface{}{"username": "ghost"})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	hash := "stored-hash"
	require.NoError(t, repo.SetRefreshToken(ctx, user.ID, &hash))
	stored, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, stored.HasRefreshToken())
	assert.Equal(t, hash, *stored.RefreshToken)

	require.NoError(t, repo.SetRefreshToken(ctx, user.ID, nil))
	require.NoError(t, repo.SetRefreshToken(ctx, user.ID, nil))
	stored, err = repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, stored.HasRefreshToken())
}

func TestUserRepository_DeleteCascadesToTasks(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	repos := New(db)

	user := &models.User{Email: "a@x.com", Username: "alice", Password: "hash"}
	require.NoError(t, repos.Users.Create(ctx, user))
	require.NoError(t, repos.Tasks.Create(ctx, &models.Task{Title: "t1", AuthorID: user.ID}))
	require.NoError(t, repos.Tasks.Create(ctx, &models.Task{Title: "t2", AuthorID: user.ID}))

	deleted, err := repos.Users.Delete(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, deleted.ID)

	var count int64
	require.NoError(t, db.Model(&models.Task{}).Where("author_id = ?", user.ID).Count(&count).Error)
	assert.Zero(t, count)

	_, err = repos.Users.Delete(ctx, user.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	boom := errors.New("boom")

	err := NewTransactor(db).WithinTransaction(ctx, func(repos Repositories) error {
		if err := repos.Users.Create(ctx, &models.User{Email: "tx@x.com", Username: "txuser", Password: "hash"}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = NewUserRepository(db).FindByEmail(ctx, "tx@x.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)
	return db, mock
}

func TestUserRepository_FindByEmail_PropagatesDriverError(t *testing.T) {
	db, mock := newMockDB(t)
	driverErr := errors.New("connection reset by peer")

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1`).WillReturnError(driverErr)

	_, err := NewUserRepository(db).FindByEmail(context.Background(), "a@x.com")
	assert.ErrorIs(t, err, driverErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByID_ScansRow(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "email", "username", "password", "refresh_token", "created_at", "updated_at"}).
		AddRow("u-1", "a@x.com", "alice", "hash", nil, now, now)
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = \$1`).WillReturnRows(rows)

	user, err := NewUserRepository(db).FindByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.False(t, user.HasRefreshToken())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindAll_PropagatesDriverError(t *testing.T) {
	db, mock := newMockDB(t)
	driverErr := errors.New("too many connections")

	mock.ExpectQuery(`SELECT \* FROM "users" ORDER BY created_at ASC`).WillReturnError(driverErr)

	_, err := NewUserRepository(db).FindAll(context.Background())
	assert.ErrorIs(t, err, driverErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}
