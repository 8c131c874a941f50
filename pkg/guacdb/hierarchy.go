package guacdb

import (
	"context"
	"database/sql"
)

// CreateConnectionGroup creates a connection group, optionally under the
// named parent, and returns the new group's ID.
func (s *Store) CreateConnectionGroup(ctx context.Context, name, parentName string) (int64, error) {
	if name == "" {
		return 0, validationf("connection group name is required")
	}

	if ok, err := s.ConnectionGroupExists(ctx, ByName(name)); err != nil {
		return 0, err
	} else if ok {
		return 0, conflictf("connection group %q already exists", name)
	}

	parentID := sql.NullInt64{}
	if parentName != "" {
		id, err := s.ResolveConnectionGroup(ctx, ByName(parentName))
		if err != nil {
			return 0, err
		}
		parentID = sql.NullInt64{Int64: id, Valid: true}
	}

	var groupID int64
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO guacamole_connection_group (connection_group_name, parent_id, type)
		 VALUES ($1, $2, 'ORGANIZATIONAL')
		 RETURNING connection_group_id`,
		name, parentID).Scan(&groupID)
	if err != nil {
		return 0, storeErr("create connection group", err)
	}

	// Verify the insert landed; a concurrent delete of the parent can make
	// the row vanish under us before commit.
	var check int64
	err = s.q.QueryRowContext(ctx,
		`SELECT connection_group_id FROM guacamole_connection_group WHERE connection_group_id = $1`,
		groupID).Scan(&check)
	if err != nil {
		return 0, storeErr("verify connection group creation", err)
	}

	return groupID, nil
}

// ReparentConnectionGroup moves a connection group under a new parent.
// An empty parent name promotes the group to the tree root. Moving a group
// under itself or any of its descendants is rejected.
func (s *Store) ReparentConnectionGroup(ctx context.Context, sel Selector, newParentName string) error {
	groupID, err := s.ResolveConnectionGroup(ctx, sel)
	if err != nil {
		return err
	}

	var current sql.NullInt64
	err = s.q.QueryRowContext(ctx,
		`SELECT parent_id FROM guacamole_connection_group WHERE connection_group_id = $1`,
		groupID).Scan(&current)
	if err != nil {
		return storeErr("read connection group parent", err)
	}

	newParent := sql.NullInt64{}
	if newParentName != "" {
		id, err := s.ResolveConnectionGroup(ctx, ByName(newParentName))
		if err != nil {
			return err
		}
		if id == groupID {
			return conflictf("connection group %q cannot be its own parent", sel.String())
		}
		newParent = sql.NullInt64{Int64: id, Valid: true}
	}

	if current.Valid == newParent.Valid && current.Int64 == newParent.Int64 {
		if newParent.Valid {
			return conflictf("connection group %q is already under %q", sel.String(), newParentName)
		}
		return conflictf("connection group %q is already at the root", sel.String())
	}

	if newParent.Valid {
		cycle, err := s.wouldCycle(ctx, groupID, newParent.Int64)
		if err != nil {
			return err
		}
		if cycle {
			return conflictf("moving connection group %q under %q would create a cycle", sel.String(), newParentName)
		}
	}

	res, err := s.q.ExecContext(ctx,
		`UPDATE guacamole_connection_group SET parent_id = $1 WHERE connection_group_id = $2`,
		newParent, groupID)
	if err != nil {
		return storeErr("reparent connection group", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storeErr("reparent connection group", err)
	} else if n == 0 {
		return storeErr("reparent connection group", sql.ErrNoRows)
	}

	return nil
}

// wouldCycle walks ancestors from the proposed parent to the root and
// reports whether groupID appears on the path.
func (s *Store) wouldCycle(ctx context.Context, groupID, parentID int64) (bool, error) {
	current := parentID
	for {
		if current == groupID {
			return true, nil
		}
		var next sql.NullInt64
		err := s.q.QueryRowContext(ctx,
			`SELECT parent_id FROM guacamole_connection_group WHERE connection_group_id = $1`,
			current).Scan(&next)
		if err == sql.ErrNoRows {
			return false, nil
		}
		if err != nil {
			return false, storeErr("walk connection group ancestors", err)
		}
		if !next.Valid {
			return false, nil
		}
		current = next.Int64
	}
}

// DeleteConnectionGroup deletes a connection group. Children are promoted
// to the root, not deleted: child groups and child connections get a NULL
// parent before the group row goes away.
func (s *Store) DeleteConnectionGroup(ctx context.Context, sel Selector) error {
	groupID, err := s.ResolveConnectionGroup(ctx, sel)
	if err != nil {
		return err
	}

	if _, err := s.q.ExecContext(ctx,
		`UPDATE guacamole_connection_group SET parent_id = NULL WHERE parent_id = $1`,
		groupID); err != nil {
		return storeErr("promote child connection groups", err)
	}

	if _, err := s.q.ExecContext(ctx,
		`UPDATE guacamole_connection SET parent_id = NULL WHERE parent_id = $1`,
		groupID); err != nil {
		return storeErr("promote child connections", err)
	}

	if _, err := s.q.ExecContext(ctx,
		`DELETE FROM guacamole_connection_group_permission WHERE connection_group_id = $1`,
		groupID); err != nil {
		return storeErr("delete connection group permissions", err)
	}

	res, err := s.q.ExecContext(ctx,
		`DELETE FROM guacamole_connection_group WHERE connection_group_id = $1`,
		groupID)
	if err != nil {
		return storeErr("delete connection group", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storeErr("delete connection group", err)
	} else if n == 0 {
		return storeErr("delete connection group", sql.ErrNoRows)
	}

	return nil
}

// ReparentConnection moves a connection into the named connection group.
// An empty group name moves it to the root.
func (s *Store) ReparentConnection(ctx context.Context, sel Selector, groupName string) error {
	connID, err := s.ResolveConnection(ctx, sel)
	if err != nil {
		return err
	}

	var current sql.NullInt64
	err = s.q.QueryRowContext(ctx,
		`SELECT parent_id FROM guacamole_connection WHERE connection_id = $1`,
		connID).Scan(&current)
	if err != nil {
		return storeErr("read connection parent", err)
	}

	newParent := sql.NullInt64{}
	if groupName != "" {
		id, err := s.ResolveConnectionGroup(ctx, ByName(groupName))
		if err != nil {
			return err
		}
		newParent = sql.NullInt64{Int64: id, Valid: true}
	}

	if current.Valid == newParent.Valid && current.Int64 == newParent.Int64 {
		if newParent.Valid {
			return conflictf("connection %q is already in group %q", sel.String(), groupName)
		}
		return conflictf("connection %q is already at the root", sel.String())
	}

	res, err := s.q.ExecContext(ctx,
		`UPDATE guacamole_connection SET parent_id = $1 WHERE connection_id = $2`,
		newParent, connID)
	if err != nil {
		return storeErr("reparent connection", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storeErr("reparent connection", err)
	} else if n == 0 {
		return storeErr("reparent connection", sql.ErrNoRows)
	}

	return nil
}
