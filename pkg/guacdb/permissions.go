package guacdb

import (
	"context"
	"database/sql"
)

// GrantConnectionPermission grants READ on a connection to a user or user
// group. An existing READ edge is a conflict; an existing edge at another
// level is upgraded in place.
func (s *Store) GrantConnectionPermission(ctx context.Context, principalKind string, principal, conn Selector) error {
	entityID, err := s.resolvePrincipal(ctx, principalKind, principal)
	if err != nil {
		return err
	}
	connID, err := s.ResolveConnection(ctx, conn)
	if err != nil {
		return err
	}

	var level string
	err = s.q.QueryRowContext(ctx,
		`SELECT permission FROM guacamole_connection_permission
		 WHERE entity_id = $1 AND connection_id = $2`,
		entityID, connID).Scan(&level)
	switch {
	case err == nil:
		if level == PermissionRead {
			return conflictf("%q already has permission on connection %q", principal.String(), conn.String())
		}
		if _, err := s.q.ExecContext(ctx,
			`UPDATE guacamole_connection_permission SET permission = $1
			 WHERE entity_id = $2 AND connection_id = $3`,
			PermissionRead, entityID, connID); err != nil {
			return storeErr("upgrade connection permission", err)
		}
		return nil
	case err != sql.ErrNoRows:
		return storeErr("check connection permission", err)
	}

	if _, err := s.q.ExecContext(ctx,
		`INSERT INTO guacamole_connection_permission (entity_id, connection_id, permission)
		 VALUES ($1, $2, $3)`,
		entityID, connID, PermissionRead); err != nil {
		return storeErr("grant connection permission", err)
	}
	return nil
}

// RevokeConnectionPermission removes a principal's permission edge on a
// connection. Revoking an edge that is not there is a conflict.
func (s *Store) RevokeConnectionPermission(ctx context.Context, principalKind string, principal, conn Selector) error {
	entityID, err := s.resolvePrincipal(ctx, principalKind, principal)
	if err != nil {
		return err
	}
	connID, err := s.ResolveConnection(ctx, conn)
	if err != nil {
		return err
	}

	var level string
	err = s.q.QueryRowContext(ctx,
		`SELECT permission FROM guacamole_connection_permission
		 WHERE entity_id = $1 AND connection_id = $2`,
		entityID, connID).Scan(&level)
	if err == sql.ErrNoRows {
		return conflictf("%q does not have permission on connection %q", principal.String(), conn.String())
	}
	if err != nil {
		return storeErr("check connection permission", err)
	}

	res, err := s.q.ExecContext(ctx,
		`DELETE FROM guacamole_connection_permission
		 WHERE entity_id = $1 AND connection_id = $2`,
		entityID, connID)
	if err != nil {
		return storeErr("revoke connection permission", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storeErr("revoke connection permission", err)
	} else if n == 0 {
		return storeErr("revoke connection permission", sql.ErrNoRows)
	}
	return nil
}

// GrantConnectionGroupPermission grants READ on a connection group to a
// user or user group, with the same duplicate and upgrade semantics as
// connection grants.
func (s *Store) GrantConnectionGroupPermission(ctx context.Context, principalKind string, principal, group Selector) error {
	entityID, err := s.resolvePrincipal(ctx, principalKind, principal)
	if err != nil {
		return err
	}
	groupID, err := s.ResolveConnectionGroup(ctx, group)
	if err != nil {
		return err
	}

	var level string
	err = s.q.QueryRowContext(ctx,
		`SELECT permission FROM guacamole_connection_group_permission
		 WHERE entity_id = $1 AND connection_group_id = $2`,
		entityID, groupID).Scan(&level)
	switch {
	case err == nil:
		if level == PermissionRead {
			return conflictf("%q already has permission on connection group %q", principal.String(), group.String())
		}
		if _, err := s.q.ExecContext(ctx,
			`UPDATE guacamole_connection_group_permission SET permission = $1
			 WHERE entity_id = $2 AND connection_group_id = $3`,
			PermissionRead, entityID, groupID); err != nil {
			return storeErr("upgrade connection group permission", err)
		}
		return nil
	case err != sql.ErrNoRows:
		return storeErr("check connection group permission", err)
	}

	if _, err := s.q.ExecContext(ctx,
		`INSERT INTO guacamole_connection_group_permission (entity_id, connection_group_id, permission)
		 VALUES ($1, $2, $3)`,
		entityID, groupID, PermissionRead); err != nil {
		return storeErr("grant connection group permission", err)
	}
	return nil
}

// RevokeConnectionGroupPermission removes a principal's permission edge on
// a connection group.
func (s *Store) RevokeConnectionGroupPermission(ctx context.Context, principalKind string, principal, group Selector) error {
	entityID, err := s.resolvePrincipal(ctx, principalKind, principal)
	if err != nil {
		return err
	}
	groupID, err := s.ResolveConnectionGroup(ctx, group)
	if err != nil {
		return err
	}

	var level string
	err = s.q.QueryRowContext(ctx,
		`SELECT permission FROM guacamole_connection_group_permission
		 WHERE entity_id = $1 AND connection_group_id = $2`,
		entityID, groupID).Scan(&level)
	if err == sql.ErrNoRows {
		return conflictf("%q does not have permission on connection group %q", principal.String(), group.String())
	}
	if err != nil {
		return storeErr("check connection group permission", err)
	}

	res, err := s.q.ExecContext(ctx,
		`DELETE FROM guacamole_connection_group_permission
		 WHERE entity_id = $1 AND connection_group_id = $2`,
		entityID, groupID)
	if err != nil {
		return storeErr("revoke connection group permission", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storeErr("revoke connection group permission", err)
	} else if n == 0 {
		return storeErr("revoke connection group permission", sql.ErrNoRows)
	}
	return nil
}

// AddUserToGroup adds a user to a user group and grants the user READ on
// the group if no such edge exists yet. Re-granting is a no-op, so adding
// never produces a second edge.
func (s *Store) AddUserToGroup(ctx context.Context, username, groupName string) error {
	userEntityID, err := s.ResolveUser(ctx, ByName(username))
	if err != nil {
		return err
	}
	groupID, err := s.ResolveUserGroup(ctx, ByName(groupName))
	if err != nil {
		return err
	}

	var one int
	err = s.q.QueryRowContext(ctx,
		`SELECT 1 FROM guacamole_user_group_member
		 WHERE user_group_id = $1 AND member_entity_id = $2`,
		groupID, userEntityID).Scan(&one)
	if err == nil {
		return conflictf("user %q is already a member of group %q", username, groupName)
	}
	if err != sql.ErrNoRows {
		return storeErr("check group membership", err)
	}

	if _, err := s.q.ExecContext(ctx,
		`INSERT INTO guacamole_user_group_member (user_group_id, member_entity_id)
		 VALUES ($1, $2)`,
		groupID, userEntityID); err != nil {
		return storeErr("add group member", err)
	}

	if _, err := s.q.ExecContext(ctx,
		`INSERT INTO guacamole_user_group_permission (entity_id, affected_user_group_id, permission)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (entity_id, affected_user_group_id) DO NOTHING`,
		userEntityID, groupID, PermissionRead); err != nil {
		return storeErr("grant group read permission", err)
	}

	return nil
}

// RemoveUserFromGroup removes a user from a user group and revokes the
// derived READ edge on the group.
func (s *Store) RemoveUserFromGroup(ctx context.Context, username, groupName string) error {
	userEntityID, err := s.ResolveUser(ctx, ByName(username))
	if err != nil {
		return err
	}
	groupID, err := s.ResolveUserGroup(ctx, ByName(groupName))
	if err != nil {
		return err
	}

	var one int
	err = s.q.QueryRowContext(ctx,
		`SELECT 1 FROM guacamole_user_group_member
		 WHERE user_group_id = $1 AND member_entity_id = $2`,
		groupID, userEntityID).Scan(&one)
	if err == sql.ErrNoRows {
		return conflictf("user %q is not a member of group %q", username, groupName)
	}
	if err != nil {
		return storeErr("check group membership", err)
	}

	if _, err := s.q.ExecContext(ctx,
		`DELETE FROM guacamole_user_group_member
		 WHERE user_group_id = $1 AND member_entity_id = $2`,
		groupID, userEntityID); err != nil {
		return storeErr("remove group member", err)
	}

	if _, err := s.q.ExecContext(ctx,
		`DELETE FROM guacamole_user_group_permission
		 WHERE entity_id = $1 AND affected_user_group_id = $2`,
		userEntityID, groupID); err != nil {
		return storeErr("revoke group read permission", err)
	}

	return nil
}

// GetConnectionUserPermissions lists the names of users holding a
// permission edge on the named connection, sorted.
func (s *Store) GetConnectionUserPermissions(ctx context.Context, name string) ([]string, error) {
	connID, err := s.ResolveConnection(ctx, ByName(name))
	if err != nil {
		return nil, err
	}

	rows, err := s.q.QueryContext(ctx,
		`SELECT e.name
		 FROM guacamole_connection_permission p
		 JOIN guacamole_entity e ON p.entity_id = e.entity_id
		 WHERE p.connection_id = $1 AND e.type = $2
		 ORDER BY e.name`,
		connID, KindUser)
	if err != nil {
		return nil, storeErr("list connection permissions", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, storeErr("scan connection permission", err)
		}
		users = append(users, n)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list connection permissions", err)
	}
	return users, nil
}
