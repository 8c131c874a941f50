package guacdb

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorTaxonomy(t *testing.T) {
	t.Run("matching survives wrapping", func(t *testing.T) {
		err := fmt.Errorf("delete user: %w", &NotFoundError{Kind: "user", Identifier: "alice"})
		assert.True(t, IsNotFound(err))
		assert.False(t, IsConflict(err))

		err = fmt.Errorf("grant: %w", conflictf("edge exists"))
		assert.True(t, IsConflict(err))
		assert.False(t, IsNotFound(err))

		err = fmt.Errorf("resolve: %w", validationf("bad selector"))
		assert.True(t, IsValidation(err))
	})

	t.Run("store error unwraps its cause", func(t *testing.T) {
		cause := fmt.Errorf("connection reset")
		err := storeErr("delete user", cause)

		var se *StoreError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, "delete user", se.Op)
		assert.ErrorIs(t, err, cause)
		assert.Contains(t, err.Error(), "delete user")
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("not found message names kind and identifier", func(t *testing.T) {
		err := &NotFoundError{Kind: "connection group", Identifier: "#42"}
		assert.Equal(t, `connection group "#42" not found`, err.Error())
	})
}
