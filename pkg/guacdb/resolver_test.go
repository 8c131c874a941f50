package guacdb

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorValidation(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("name and id together", func(t *testing.T) {
		_, err := store.ResolveUser(ctx, Selector{Name: "alice", ID: 3})
		require.Error(t, err)
		assert.True(t, IsValidation(err))
		assert.Contains(t, err.Error(), "mutually exclusive")
	})

	t.Run("neither name nor id", func(t *testing.T) {
		_, err := store.ResolveConnection(ctx, Selector{})
		require.Error(t, err)
		assert.True(t, IsValidation(err))
	})

	t.Run("negative id", func(t *testing.T) {
		_, err := store.ResolveConnectionGroup(ctx, ByID(-4))
		require.Error(t, err)
		assert.True(t, IsValidation(err))
		assert.Contains(t, err.Error(), "positive")
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveUser(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("by name", func(t *testing.T) {
		mock.ExpectQuery(`SELECT entity_id FROM guacamole_entity WHERE name = \$1 AND type = \$2`).
			WithArgs("alice", KindUser).
			WillReturnRows(sqlmock.NewRows([]string{"entity_id"}).AddRow(int64(11)))

		id, err := store.ResolveUser(ctx, ByName("alice"))
		require.NoError(t, err)
		assert.Equal(t, int64(11), id)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("by id verifies the row", func(t *testing.T) {
		mock.ExpectQuery(`SELECT entity_id FROM guacamole_entity WHERE entity_id = \$1 AND type = \$2`).
			WithArgs(int64(11), KindUser).
			WillReturnRows(sqlmock.NewRows([]string{"entity_id"}).AddRow(int64(11)))

		id, err := store.ResolveUser(ctx, ByID(11))
		require.NoError(t, err)
		assert.Equal(t, int64(11), id)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT entity_id FROM guacamole_entity WHERE name = \$1 AND type = \$2`).
			WithArgs("ghost", KindUser).
			WillReturnRows(sqlmock.NewRows([]string{"entity_id"}))

		_, err := store.ResolveUser(ctx, ByName("ghost"))
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
		assert.Contains(t, err.Error(), `user "ghost" not found`)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT entity_id FROM guacamole_entity WHERE name = \$1 AND type = \$2`).
			WithArgs("alice", KindUser).
			WillReturnError(fmt.Errorf("connection reset"))

		_, err := store.ResolveUser(ctx, ByName("alice"))
		require.Error(t, err)
		assert.False(t, IsNotFound(err))
		assert.Contains(t, err.Error(), "resolve user")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestResolveUserGroup(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("by name joins through entity", func(t *testing.T) {
		mock.ExpectQuery(`SELECT g.user_group_id`).
			WithArgs("admins", KindUserGroup).
			WillReturnRows(sqlmock.NewRows([]string{"user_group_id"}).AddRow(int64(5)))

		id, err := store.ResolveUserGroup(ctx, ByName("admins"))
		require.NoError(t, err)
		assert.Equal(t, int64(5), id)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("by id", func(t *testing.T) {
		mock.ExpectQuery(`SELECT user_group_id FROM guacamole_user_group WHERE user_group_id = \$1`).
			WithArgs(int64(5)).
			WillReturnRows(sqlmock.NewRows([]string{"user_group_id"}).AddRow(int64(5)))

		id, err := store.ResolveUserGroup(ctx, ByID(5))
		require.NoError(t, err)
		assert.Equal(t, int64(5), id)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestExistenceChecks(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("present", func(t *testing.T) {
		mock.ExpectQuery(`SELECT connection_id FROM guacamole_connection WHERE connection_name = \$1`).
			WithArgs("web-01").
			WillReturnRows(sqlmock.NewRows([]string{"connection_id"}).AddRow(int64(3)))

		ok, err := store.ConnectionExists(ctx, ByName("web-01"))
		require.NoError(t, err)
		assert.True(t, ok)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("absent maps to false, not error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT connection_group_id FROM guacamole_connection_group WHERE connection_group_name = \$1`).
			WithArgs("dmz").
			WillReturnRows(sqlmock.NewRows([]string{"connection_group_id"}))

		ok, err := store.ConnectionGroupExists(ctx, ByName("dmz"))
		require.NoError(t, err)
		assert.False(t, ok)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("store failures propagate", func(t *testing.T) {
		mock.ExpectQuery(`SELECT entity_id FROM guacamole_entity WHERE name = \$1 AND type = \$2`).
			WithArgs("alice", KindUser).
			WillReturnError(fmt.Errorf("timeout"))

		_, err := store.UserExists(ctx, ByName("alice"))
		require.Error(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid selector propagates", func(t *testing.T) {
		_, err := store.UserGroupExists(ctx, Selector{Name: "x", ID: 1})
		require.Error(t, err)
		assert.True(t, IsValidation(err))
	})
}
