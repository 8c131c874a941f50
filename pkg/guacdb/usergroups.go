package guacdb

import (
	"context"
	"database/sql"
)

// CreateUserGroup creates a user group, enabled by default.
func (s *Store) CreateUserGroup(ctx context.Context, name string) error {
	if err := validateEntityName("user group", name); err != nil {
		return err
	}

	if ok, err := s.UserGroupExists(ctx, ByName(name)); err != nil {
		return err
	} else if ok {
		return conflictf("user group %q already exists", name)
	}

	var entityID int64
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO guacamole_entity (name, type) VALUES ($1, $2) RETURNING entity_id`,
		name, KindUserGroup).Scan(&entityID)
	if err != nil {
		return storeErr("create user group entity", err)
	}

	if _, err := s.q.ExecContext(ctx,
		`INSERT INTO guacamole_user_group (entity_id, disabled) VALUES ($1, false)`,
		entityID); err != nil {
		return storeErr("create user group", err)
	}

	return nil
}

// SetUserGroupDisabled toggles a user group's disabled flag.
func (s *Store) SetUserGroupDisabled(ctx context.Context, sel Selector, disabled bool) error {
	groupID, err := s.ResolveUserGroup(ctx, sel)
	if err != nil {
		return err
	}

	res, err := s.q.ExecContext(ctx,
		`UPDATE guacamole_user_group SET disabled = $1 WHERE user_group_id = $2`,
		disabled, groupID)
	if err != nil {
		return storeErr("update user group", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storeErr("update user group", err)
	} else if n == 0 {
		return storeErr("update user group", sql.ErrNoRows)
	}
	return nil
}

// DeleteUserGroup removes a user group, its memberships, the permission
// edges it holds and the edges held on it, then the group and entity rows.
// Both surrogate keys are captured up front and every step is keyed on
// them.
func (s *Store) DeleteUserGroup(ctx context.Context, sel Selector) error {
	groupID, err := s.ResolveUserGroup(ctx, sel)
	if err != nil {
		return err
	}
	entityID, err := s.userGroupEntityID(ctx, groupID)
	if err != nil {
		return err
	}

	steps := []struct {
		op    string
		query string
		arg   int64
	}{
		{"delete group memberships", `DELETE FROM guacamole_user_group_member WHERE user_group_id = $1`, groupID},
		{"delete permissions on group", `DELETE FROM guacamole_user_group_permission WHERE affected_user_group_id = $1`, groupID},
		{"delete group connection permissions", `DELETE FROM guacamole_connection_permission WHERE entity_id = $1`, entityID},
		{"delete group connection group permissions", `DELETE FROM guacamole_connection_group_permission WHERE entity_id = $1`, entityID},
		{"delete user group", `DELETE FROM guacamole_user_group WHERE user_group_id = $1`, groupID},
		{"delete user group entity", `DELETE FROM guacamole_entity WHERE entity_id = $1`, entityID},
	}
	for _, step := range steps {
		if _, err := s.q.ExecContext(ctx, step.query, step.arg); err != nil {
			return storeErr(step.op, err)
		}
	}

	return nil
}
