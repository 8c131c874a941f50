package guacdb

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestConnectionGroupTreeIntegration exercises the group tree against a real
// database (TEST_POSTGRES_PRIMARY). The scenario runs inside one transaction
// that is rolled back, so the database is left untouched.
func TestConnectionGroupTreeIntegration(t *testing.T) {
	SkipIfNoDatabaseOrShort(t)
	db := RequireDatabase(t)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, RunMigrations(ctx, db))

	tx, err := db.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer tx.Rollback()

	store := NewStore(tx)
	suffix := fmt.Sprintf("-%d", time.Now().UnixNano())
	region := "region" + suffix
	site := "site" + suffix
	rack := "rack" + suffix

	_, err = store.CreateConnectionGroup(ctx, region, "")
	require.NoError(t, err)
	_, err = store.CreateConnectionGroup(ctx, site, region)
	require.NoError(t, err)
	_, err = store.CreateConnectionGroup(ctx, rack, site)
	require.NoError(t, err)

	connName := "bastion" + suffix
	_, err = store.CreateConnection(ctx, ConnectionSpec{
		Name:        connName,
		Protocol:    "ssh",
		Hostname:    "10.0.0.9",
		Port:        "22",
		ParentGroup: site,
	})
	require.NoError(t, err)

	// Moving the top of the chain under its own descendant must fail.
	err = store.ReparentConnectionGroup(ctx, ByName(region), rack)
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	// Deleting the middle group promotes its child group and connection
	// to the root.
	require.NoError(t, store.DeleteConnectionGroup(ctx, ByName(site)))

	groups, err := store.ListConnectionGroups(ctx)
	require.NoError(t, err)
	require.Contains(t, groups, rack)
	assert.Equal(t, "ROOT", groups[rack].Parent)

	conns, err := store.ListConnections(ctx)
	require.NoError(t, err)
	var promoted *ConnectionInfo
	for i := range conns {
		if conns[i].Name == connName {
			promoted = &conns[i]
		}
	}
	require.NotNil(t, promoted)
	assert.Equal(t, "ROOT", promoted.Parent)

	_, err = store.ResolveConnectionGroup(ctx, ByName(site))
	assert.True(t, IsNotFound(err))
}
