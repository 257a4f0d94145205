//go:build integration

package account_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halaqah-app/halaqah/internal/account"
	"github.com/halaqah-app/halaqah/internal/platform/database/dbtest"
	"github.com/halaqah-app/halaqah/internal/role"
)

func TestPostgresStore(t *testing.T) {
	pool := dbtest.NewPool(t)
	ctx := context.Background()

	t.Run("create and lookup", func(t *testing.T) {
		dbtest.Truncate(t, pool)
		store := account.NewPostgresStore(pool)

		u := &account.User{Username: "alice", PasswordHash: []byte("hash"), Role: role.Student, StudentCode: "ABCD1234"}
		require.NoError(t, store.Create(ctx, u))
		assert.NotZero(t, u.ID)
		assert.False(t, u.CreatedAt.IsZero())

		got, err := store.GetByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, "ABCD1234", got.StudentCode)
		assert.Equal(t, []byte("hash"), got.PasswordHash)

		_, err = store.GetByID(ctx, 9999)
		assert.ErrorIs(t, err, account.ErrUserNotFound)
	})

	t.Run("duplicates", func(t *testing.T) {
		dbtest.Truncate(t, pool)
		store := account.NewPostgresStore(pool)

		require.NoError(t, store.Create(ctx, &account.User{Username: "alice", PasswordHash: []byte("h"), Role: role.Student, StudentCode: "CODE0001"}))

		err := store.Create(ctx, &account.User{Username: "alice", PasswordHash: []byte("h"), Role: role.Student, StudentCode: "CODE0002"})
		assert.ErrorIs(t, err, account.ErrDuplicateUsername)

		err = store.Create(ctx, &account.User{Username: "bob", PasswordHash: []byte("h"), Role: role.Student, StudentCode: "CODE0001"})
		assert.ErrorIs(t, err, account.ErrDuplicateStudentCode)
	})

	t.Run("link and list", func(t *testing.T) {
		dbtest.Truncate(t, pool)
		store := account.NewPostgresStore(pool)

		teacher := &account.User{Username: "teacher", PasswordHash: []byte("h"), Role: role.Teacher}
		require.NoError(t, store.Create(ctx, teacher))
		student := &account.User{Username: "student", PasswordHash: []byte("h"), Role: role.Student, StudentCode: "STUD0001"}
		require.NoError(t, store.Create(ctx, student))

		id, err := store.LinkTeacher(ctx, "STUD0001", teacher.ID)
		require.NoError(t, err)
		assert.Equal(t, student.ID, id)

		_, err = store.LinkTeacher(ctx, "MISSING1", teacher.ID)
		assert.ErrorIs(t, err, account.ErrCodeNotFound)

		students, err := store.ListStudents(ctx, teacher.ID)
		require.NoError(t, err)
		require.Len(t, students, 1)
		require.NotNil(t, students[0].TeacherID)
		assert.Equal(t, teacher.ID, *students[0].TeacherID)
	})

	t.Run("schema rejects code on non-student", func(t *testing.T) {
		dbtest.Truncate(t, pool)
		store := account.NewPostgresStore(pool)

		err := store.Create(ctx, &account.User{Username: "t", PasswordHash: []byte("h"), Role: role.Teacher, StudentCode: "NOTALLOW"})
		assert.Error(t, err)
	})
}
