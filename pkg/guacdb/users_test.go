package guacdb

import (
	"context"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUser(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("creates entity and user rows", func(t *testing.T) {
		mock.ExpectQuery(`SELECT entity_id FROM guacamole_entity WHERE name = \$1 AND type = \$2`).
			WithArgs("alice", KindUser).
			WillReturnRows(sqlmock.NewRows([]string{"entity_id"}))
		mock.ExpectQuery(`INSERT INTO guacamole_entity \(name, type\) VALUES \(\$1, \$2\) RETURNING entity_id`).
			WithArgs("alice", KindUser).
			WillReturnRows(sqlmock.NewRows([]string{"entity_id"}).AddRow(int64(11)))
		mock.ExpectExec(`INSERT INTO guacamole_user`).
			WithArgs(int64(11), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := store.CreateUser(ctx, "alice", "s3cret")
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		mock.ExpectQuery(`SELECT entity_id FROM guacamole_entity WHERE name = \$1 AND type = \$2`).
			WithArgs("alice", KindUser).
			WillReturnRows(sqlmock.NewRows([]string{"entity_id"}).AddRow(int64(11)))

		err := store.CreateUser(ctx, "alice", "s3cret")
		require.Error(t, err)
		assert.True(t, IsConflict(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid names rejected before any query", func(t *testing.T) {
		for _, name := range []string{"", "bad name", "semi;colon", strings.Repeat("x", 129)} {
			err := store.CreateUser(ctx, name, "pw")
			require.Error(t, err, "name %q", name)
			assert.True(t, IsValidation(err), "name %q", name)
		}
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("accepts dots, dashes and at signs", func(t *testing.T) {
		mock.ExpectQuery(`SELECT entity_id FROM guacamole_entity WHERE name = \$1 AND type = \$2`).
			WithArgs("svc.backup-2@corp", KindUser).
			WillReturnRows(sqlmock.NewRows([]string{"entity_id"}))
		mock.ExpectQuery(`INSERT INTO guacamole_entity`).
			WithArgs("svc.backup-2@corp", KindUser).
			WillReturnRows(sqlmock.NewRows([]string{"entity_id"}).AddRow(int64(12)))
		mock.ExpectExec(`INSERT INTO guacamole_user`).
			WithArgs(int64(12), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := store.CreateUser(ctx, "svc.backup-2@corp", "pw")
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestChangeUserPassword(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("rotates hash and salt", func(t *testing.T) {
		expectResolveUserByName(mock, "alice", 11)
		mock.ExpectExec(`UPDATE guacamole_user`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), int64(11)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.ChangeUserPassword(ctx, "alice", "newpw")
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing user is not found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT entity_id FROM guacamole_entity WHERE name = \$1 AND type = \$2`).
			WithArgs("ghost", KindUser).
			WillReturnRows(sqlmock.NewRows([]string{"entity_id"}))

		err := store.ChangeUserPassword(ctx, "ghost", "newpw")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestModifyUserParameter(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("string field", func(t *testing.T) {
		expectResolveUserByName(mock, "alice", 11)
		mock.ExpectExec(`UPDATE guacamole_user SET full_name = \$1 WHERE entity_id = \$2`).
			WithArgs("Alice Example", int64(11)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := store.ModifyUserParameter(ctx, "alice", "full_name", "Alice Example")
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("boolean field accepts 0 and 1 only", func(t *testing.T) {
		expectResolveUserByName(mock, "alice", 11)
		mock.ExpectExec(`UPDATE guacamole_user SET disabled = \$1 WHERE entity_id = \$2`).
			WithArgs(true, int64(11)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, store.ModifyUserParameter(ctx, "alice", "disabled", "1"))

		expectResolveUserByName(mock, "alice", 11)
		err := store.ModifyUserParameter(ctx, "alice", "disabled", "yes")
		require.Error(t, err)
		assert.True(t, IsValidation(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown parameter rejected", func(t *testing.T) {
		err := store.ModifyUserParameter(ctx, "alice", "password_hash", "x")
		require.Error(t, err)
		assert.True(t, IsValidation(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDeleteUser(t *testing.T) {
	store, mock, db := newMockStore(t)
	defer db.Close()
	ctx := context.Background()

	t.Run("cascades in fixed order keyed by entity id", func(t *testing.T) {
		expectResolveUserByName(mock, "alice", 11)

		// Ordered expectations: permissions and memberships go before the
		// user row, the entity row goes last.
		for _, q := range []string{
			`DELETE FROM guacamole_user_group_permission WHERE entity_id = \$1`,
			`DELETE FROM guacamole_user_group_member WHERE member_entity_id = \$1`,
			`DELETE FROM guacamole_connection_permission WHERE entity_id = \$1`,
			`DELETE FROM guacamole_connection_group_permission WHERE entity_id = \$1`,
			`DELETE FROM guacamole_user WHERE entity_id = \$1`,
			`DELETE FROM guacamole_entity WHERE entity_id = \$1`,
		} {
			mock.ExpectExec(q).
				WithArgs(int64(11)).
				WillReturnResult(sqlmock.NewResult(0, 1))
		}

		err := store.DeleteUser(ctx, "alice")
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing user fails fast", func(t *testing.T) {
		mock.ExpectQuery(`SELECT entity_id FROM guacamole_entity WHERE name = \$1 AND type = \$2`).
			WithArgs("ghost", KindUser).
			WillReturnRows(sqlmock.NewRows([]string{"entity_id"}))

		err := store.DeleteUser(ctx, "ghost")
		require.Error(t, err)
		assert.True(t, IsNotFound(err))
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
