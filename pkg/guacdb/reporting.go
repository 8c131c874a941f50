package guacdb

import (
	"context"
	"database/sql"
	"strings"
)

// ListUsers returns all usernames, sorted.
func (s *Store) ListUsers(ctx context.Context) ([]string, error) {
	return s.listEntityNames(ctx, KindUser, "list users")
}

// ListUserGroups returns all user group names, sorted.
func (s *Store) ListUserGroups(ctx context.Context) ([]string, error) {
	return s.listEntityNames(ctx, KindUserGroup, "list user groups")
}

func (s *Store) listEntityNames(ctx context.Context, kind, op string) ([]string, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT name FROM guacamole_entity WHERE type = $1 ORDER BY name`,
		kind)
	if err != nil {
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, storeErr(op, err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	return names, nil
}

// ListUsersWithGroups returns every user with the names of the groups it
// belongs to.
func (s *Store) ListUsersWithGroups(ctx context.Context) (map[string][]string, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT e.name, string_agg(ge.name, ',' ORDER BY ge.name)
		 FROM guacamole_entity e
		 JOIN guacamole_user u ON u.entity_id = e.entity_id
		 LEFT JOIN guacamole_user_group_member m ON m.member_entity_id = e.entity_id
		 LEFT JOIN guacamole_user_group g ON g.user_group_id = m.user_group_id
		 LEFT JOIN guacamole_entity ge ON ge.entity_id = g.entity_id
		 WHERE e.type = $1
		 GROUP BY e.name
		 ORDER BY e.name`,
		KindUser)
	if err != nil {
		return nil, storeErr("list users with groups", err)
	}
	defer rows.Close()

	result := make(map[string][]string)
	for rows.Next() {
		var (
			name   string
			groups sql.NullString
		)
		if err := rows.Scan(&name, &groups); err != nil {
			return nil, storeErr("list users with groups", err)
		}
		result[name] = splitAgg(groups)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list users with groups", err)
	}
	return result, nil
}

// ListUserGroupsDetail returns every user group with its members and the
// connections the group holds permission on.
func (s *Store) ListUserGroupsDetail(ctx context.Context) (map[string]UserGroupDetail, error) {
	rows, err := s.q.QueryContext(ctx,
		`SELECT ge.name, g.user_group_id,
		        string_agg(DISTINCT ue.name, ','),
		        string_agg(DISTINCT c.connection_name, ',')
		 FROM guacamole_user_group g
		 JOIN guacamole_entity ge ON ge.entity_id = g.entity_id
		 LEFT JOIN guacamole_user_group_member m ON m.user_group_id = g.user_group_id
		 LEFT JOIN guacamole_entity ue ON ue.entity_id = m.member_entity_id
		 LEFT JOIN guacamole_connection_permission p ON p.entity_id = g.entity_id
		 LEFT JOIN guacamole_connection c ON c.connection_id = p.connection_id
		 GROUP BY ge.name, g.user_group_id
		 ORDER BY ge.name`)
	if err != nil {
		return nil, storeErr("list user group detail", err)
	}
	defer rows.Close()

	result := make(map[string]UserGroupDetail)
	for rows.Next() {
		var (
			name        string
			id          int64
			users       sql.NullString
			connections sql.NullString
		)
		if err := rows.Scan(&name, &id, &users, &connections); err != nil {
			return nil, storeErr("list user group detail", err)
		}
		result[name] = UserGroupDetail{
			ID:          id,
			Users:       splitAgg(users),
			Connections: splitAgg(connections),
		}
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list user group detail", err)
	}
	return result, nil
}

const connectionInfoQuery = `
	SELECT c.connection_id, c.connection_name, c.protocol,
	       COALESCE(MAX(CASE WHEN cp.parameter_name = 'hostname' THEN cp.parameter_value END), ''),
	       COALESCE(MAX(CASE WHEN cp.parameter_name = 'port' THEN cp.parameter_value END), ''),
	       COALESCE(pg.connection_group_name, 'ROOT'),
	       string_agg(DISTINCT ge.name, ','),
	       string_agg(DISTINCT ue.name, ',')
	FROM guacamole_connection c
	LEFT JOIN guacamole_connection_parameter cp ON cp.connection_id = c.connection_id
	LEFT JOIN guacamole_connection_group pg ON pg.connection_group_id = c.parent_id
	LEFT JOIN guacamole_connection_permission p ON p.connection_id = c.connection_id
	LEFT JOIN guacamole_entity ue ON ue.entity_id = p.entity_id AND ue.type = 'USER'
	LEFT JOIN guacamole_entity ge ON ge.entity_id = p.entity_id AND ge.type = 'USER_GROUP'`

// ListConnections returns every connection with its core parameters,
// parent group and permitted principals.
func (s *Store) ListConnections(ctx context.Context) ([]ConnectionInfo, error) {
	rows, err := s.q.QueryContext(ctx, connectionInfoQuery+`
	 GROUP BY c.connection_id, c.connection_name, c.protocol, pg.connection_group_name
	 ORDER BY c.connection_name`)
	if err != nil {
		return nil, storeErr("list connections", err)
	}
	defer rows.Close()

	var infos []ConnectionInfo
	for rows.Next() {
		info, err := scanConnectionInfo(rows)
		if err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list connections", err)
	}
	return infos, nil
}

// GetConnectionByID returns one connection's info.
func (s *Store) GetConnectionByID(ctx context.Context, id int64) (ConnectionInfo, error) {
	connID, err := s.ResolveConnection(ctx, ByID(id))
	if err != nil {
		return ConnectionInfo{}, err
	}

	rows, err := s.q.QueryContext(ctx, connectionInfoQuery+`
	 WHERE c.connection_id = $1
	 GROUP BY c.connection_id, c.connection_name, c.protocol, pg.connection_group_name`,
		connID)
	if err != nil {
		return ConnectionInfo{}, storeErr("get connection", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return ConnectionInfo{}, storeErr("get connection", err)
		}
		return ConnectionInfo{}, &NotFoundError{Kind: "connection", Identifier: ByID(id).String()}
	}
	return scanConnectionInfo(rows)
}

func scanConnectionInfo(rows *sql.Rows) (ConnectionInfo, error) {
	var (
		info          ConnectionInfo
		groups, users sql.NullString
	)
	if err := rows.Scan(&info.ID, &info.Name, &info.Protocol, &info.Hostname,
		&info.Port, &info.Parent, &groups, &users); err != nil {
		return ConnectionInfo{}, storeErr("scan connection", err)
	}
	info.Groups = splitAgg(groups)
	info.Users = splitAgg(users)
	return info, nil
}

const connectionGroupQuery = `
	SELECT g.connection_group_name, g.connection_group_id,
	       COALESCE(pg.connection_group_name, 'ROOT'),
	       string_agg(c.connection_name, ',' ORDER BY c.connection_name)
	FROM guacamole_connection_group g
	LEFT JOIN guacamole_connection_group pg ON pg.connection_group_id = g.parent_id
	LEFT JOIN guacamole_connection c ON c.parent_id = g.connection_group_id`

// ListConnectionGroups returns every connection group with its parent name
// ("ROOT" at the top) and direct child connections.
func (s *Store) ListConnectionGroups(ctx context.Context) (map[string]ConnectionGroupDetail, error) {
	rows, err := s.q.QueryContext(ctx, connectionGroupQuery+`
	 GROUP BY g.connection_group_name, g.connection_group_id, pg.connection_group_name
	 ORDER BY g.connection_group_name`)
	if err != nil {
		return nil, storeErr("list connection groups", err)
	}
	defer rows.Close()

	result := make(map[string]ConnectionGroupDetail)
	for rows.Next() {
		var (
			name        string
			detail      ConnectionGroupDetail
			connections sql.NullString
		)
		if err := rows.Scan(&name, &detail.ID, &detail.Parent, &connections); err != nil {
			return nil, storeErr("list connection groups", err)
		}
		detail.Connections = splitAgg(connections)
		result[name] = detail
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list connection groups", err)
	}
	return result, nil
}

// GetConnectionGroupByID returns one connection group's name and detail.
func (s *Store) GetConnectionGroupByID(ctx context.Context, id int64) (string, ConnectionGroupDetail, error) {
	groupID, err := s.ResolveConnectionGroup(ctx, ByID(id))
	if err != nil {
		return "", ConnectionGroupDetail{}, err
	}

	rows, err := s.q.QueryContext(ctx, connectionGroupQuery+`
	 WHERE g.connection_group_id = $1
	 GROUP BY g.connection_group_name, g.connection_group_id, pg.connection_group_name`,
		groupID)
	if err != nil {
		return "", ConnectionGroupDetail{}, storeErr("get connection group", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return "", ConnectionGroupDetail{}, storeErr("get connection group", err)
		}
		return "", ConnectionGroupDetail{}, &NotFoundError{Kind: "connection group", Identifier: ByID(id).String()}
	}

	var (
		name        string
		detail      ConnectionGroupDetail
		connections sql.NullString
	)
	if err := rows.Scan(&name, &detail.ID, &detail.Parent, &connections); err != nil {
		return "", ConnectionGroupDetail{}, storeErr("scan connection group", err)
	}
	detail.Connections = splitAgg(connections)
	return name, detail, nil
}

func splitAgg(s sql.NullString) []string {
	if !s.Valid || s.String == "" {
		return nil
	}
	return strings.Split(s.String, ",")
}
