package guacdb

import (
	"context"
	"database/sql"
	"strconv"
)

// ResolveUser resolves a user selector to the user's entity ID, which is
// the key used by permission edges and memberships.
func (s *Store) ResolveUser(ctx context.Context, sel Selector) (int64, error) {
	if err := sel.validate("user"); err != nil {
		return 0, err
	}

	var (
		id  int64
		err error
	)
	if sel.ID != 0 {
		err = s.q.QueryRowContext(ctx,
			`SELECT entity_id FROM guacamole_entity WHERE entity_id = $1 AND type = $2`,
			sel.ID, KindUser).Scan(&id)
	} else {
		err = s.q.QueryRowContext(ctx,
			`SELECT entity_id FROM guacamole_entity WHERE name = $1 AND type = $2`,
			sel.Name, KindUser).Scan(&id)
	}
	if err == sql.ErrNoRows {
		return 0, &NotFoundError{Kind: "user", Identifier: sel.String()}
	}
	if err != nil {
		return 0, storeErr("resolve user", err)
	}
	return id, nil
}

// ResolveUserGroup resolves a user-group selector to its user_group_id.
func (s *Store) ResolveUserGroup(ctx context.Context, sel Selector) (int64, error) {
	if err := sel.validate("user group"); err != nil {
		return 0, err
	}

	var (
		id  int64
		err error
	)
	if sel.ID != 0 {
		err = s.q.QueryRowContext(ctx,
			`SELECT user_group_id FROM guacamole_user_group WHERE user_group_id = $1`,
			sel.ID).Scan(&id)
	} else {
		err = s.q.QueryRowContext(ctx,
			`SELECT g.user_group_id
			 FROM guacamole_user_group g
			 JOIN guacamole_entity e ON g.entity_id = e.entity_id
			 WHERE e.name = $1 AND e.type = $2`,
			sel.Name, KindUserGroup).Scan(&id)
	}
	if err == sql.ErrNoRows {
		return 0, &NotFoundError{Kind: "user group", Identifier: sel.String()}
	}
	if err != nil {
		return 0, storeErr("resolve user group", err)
	}
	return id, nil
}

// ResolveConnection resolves a connection selector to its connection_id.
func (s *Store) ResolveConnection(ctx context.Context, sel Selector) (int64, error) {
	if err := sel.validate("connection"); err != nil {
		return 0, err
	}

	var (
		id  int64
		err error
	)
	if sel.ID != 0 {
		err = s.q.QueryRowContext(ctx,
			`SELECT connection_id FROM guacamole_connection WHERE connection_id = $1`,
			sel.ID).Scan(&id)
	} else {
		err = s.q.QueryRowContext(ctx,
			`SELECT connection_id FROM guacamole_connection WHERE connection_name = $1`,
			sel.Name).Scan(&id)
	}
	if err == sql.ErrNoRows {
		return 0, &NotFoundError{Kind: "connection", Identifier: sel.String()}
	}
	if err != nil {
		return 0, storeErr("resolve connection", err)
	}
	return id, nil
}

// ResolveConnectionGroup resolves a connection-group selector to its
// connection_group_id.
func (s *Store) ResolveConnectionGroup(ctx context.Context, sel Selector) (int64, error) {
	if err := sel.validate("connection group"); err != nil {
		return 0, err
	}

	var (
		id  int64
		err error
	)
	if sel.ID != 0 {
		err = s.q.QueryRowContext(ctx,
			`SELECT connection_group_id FROM guacamole_connection_group WHERE connection_group_id = $1`,
			sel.ID).Scan(&id)
	} else {
		err = s.q.QueryRowContext(ctx,
			`SELECT connection_group_id FROM guacamole_connection_group WHERE connection_group_name = $1`,
			sel.Name).Scan(&id)
	}
	if err == sql.ErrNoRows {
		return 0, &NotFoundError{Kind: "connection group", Identifier: sel.String()}
	}
	if err != nil {
		return 0, storeErr("resolve connection group", err)
	}
	return id, nil
}

// UserExists reports whether the selected user exists.
func (s *Store) UserExists(ctx context.Context, sel Selector) (bool, error) {
	return exists(s.ResolveUser(ctx, sel))
}

// UserGroupExists reports whether the selected user group exists.
func (s *Store) UserGroupExists(ctx context.Context, sel Selector) (bool, error) {
	return exists(s.ResolveUserGroup(ctx, sel))
}

// ConnectionExists reports whether the selected connection exists.
func (s *Store) ConnectionExists(ctx context.Context, sel Selector) (bool, error) {
	return exists(s.ResolveConnection(ctx, sel))
}

// ConnectionGroupExists reports whether the selected connection group exists.
func (s *Store) ConnectionGroupExists(ctx context.Context, sel Selector) (bool, error) {
	return exists(s.ResolveConnectionGroup(ctx, sel))
}

func exists(_ int64, err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	if IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// resolvePrincipal resolves a user or user-group selector to the entity ID
// that permission edges are keyed on.
func (s *Store) resolvePrincipal(ctx context.Context, kind string, sel Selector) (int64, error) {
	if kind == KindUser {
		return s.ResolveUser(ctx, sel)
	}

	if err := sel.validate("user group"); err != nil {
		return 0, err
	}
	var (
		id  int64
		err error
	)
	if sel.ID != 0 {
		err = s.q.QueryRowContext(ctx,
			`SELECT entity_id FROM guacamole_user_group WHERE user_group_id = $1`,
			sel.ID).Scan(&id)
	} else {
		err = s.q.QueryRowContext(ctx,
			`SELECT entity_id FROM guacamole_entity WHERE name = $1 AND type = $2`,
			sel.Name, KindUserGroup).Scan(&id)
	}
	if err == sql.ErrNoRows {
		return 0, &NotFoundError{Kind: "user group", Identifier: sel.String()}
	}
	if err != nil {
		return 0, storeErr("resolve user group entity", err)
	}
	return id, nil
}

// userGroupEntityID returns the entity ID backing a user group row.
func (s *Store) userGroupEntityID(ctx context.Context, groupID int64) (int64, error) {
	var id int64
	err := s.q.QueryRowContext(ctx,
		`SELECT entity_id FROM guacamole_user_group WHERE user_group_id = $1`,
		groupID).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, &NotFoundError{Kind: "user group", Identifier: "#" + strconv.FormatInt(groupID, 10)}
	}
	if err != nil {
		return 0, storeErr("look up user group entity", err)
	}
	return id, nil
}
