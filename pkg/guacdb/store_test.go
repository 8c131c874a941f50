package guacdb

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper to create a store over a mock database
func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock, *sql.DB) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return NewStore(db), mock, db
}

func TestRunInTx(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM guacamole_connection_parameter WHERE connection_id = \$1`).
			WithArgs(int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		err = RunInTx(context.Background(), db, func(s *Store) error {
			_, execErr := s.q.ExecContext(context.Background(),
				`DELETE FROM guacamole_connection_parameter WHERE connection_id = $1`, int64(7))
			return execErr
		})
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when fn fails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectRollback()

		err = RunInTx(context.Background(), db, func(s *Store) error {
			return fmt.Errorf("boom")
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "boom")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin().WillReturnError(fmt.Errorf("connection refused"))

		err = RunInTx(context.Background(), db, func(s *Store) error {
			t.Fatal("fn must not run")
			return nil
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "begin transaction")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commit error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(fmt.Errorf("deadlock"))

		err = RunInTx(context.Background(), db, func(s *Store) error {
			return nil
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "commit transaction")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
