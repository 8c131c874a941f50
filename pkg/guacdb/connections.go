package guacdb

import (
	"context"
	"database/sql"
	"sort"
	"strings"
)

// CreateConnection creates a connection with its parameter rows and
// returns the new ID. Extra parameters are validated against the
// protocol's allow-list.
func (s *Store) CreateConnection(ctx context.Context, spec ConnectionSpec) (int64, error) {
	if spec.Name == "" {
		return 0, validationf("connection name is required")
	}
	if spec.Hostname == "" || spec.Port == "" {
		return 0, validationf("connection hostname and port are required")
	}
	allowed, ok := protocolParameters[spec.Protocol]
	if !ok {
		return 0, validationf("unsupported protocol %q", spec.Protocol)
	}
	for key := range spec.Parameters {
		if !allowed[key] {
			return 0, validationf("parameter %q is not valid for protocol %q", key, spec.Protocol)
		}
	}

	if ok, err := s.ConnectionExists(ctx, ByName(spec.Name)); err != nil {
		return 0, err
	} else if ok {
		return 0, conflictf("connection %q already exists", spec.Name)
	}

	parentID := sql.NullInt64{}
	if spec.ParentGroup != "" {
		id, err := s.ResolveConnectionGroup(ctx, ByName(spec.ParentGroup))
		if err != nil {
			return 0, err
		}
		parentID = sql.NullInt64{Int64: id, Valid: true}
	}

	var connID int64
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO guacamole_connection (connection_name, protocol, parent_id)
		 VALUES ($1, $2, $3)
		 RETURNING connection_id`,
		spec.Name, spec.Protocol, parentID).Scan(&connID)
	if err != nil {
		return 0, storeErr("create connection", err)
	}

	params := map[string]string{
		"hostname": spec.Hostname,
		"port":     spec.Port,
	}
	if spec.Password != "" {
		params["password"] = spec.Password
	}
	for k, v := range spec.Parameters {
		params[k] = v
	}

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := s.q.ExecContext(ctx,
			`INSERT INTO guacamole_connection_parameter (connection_id, parameter_name, parameter_value)
			 VALUES ($1, $2, $3)`,
			connID, k, params[k]); err != nil {
			return 0, storeErr("create connection parameter", err)
		}
	}

	return connID, nil
}

// DeleteConnection removes a connection and everything hanging off it:
// history, parameters, permission edges, then the row.
func (s *Store) DeleteConnection(ctx context.Context, sel Selector) error {
	connID, err := s.ResolveConnection(ctx, sel)
	if err != nil {
		return err
	}

	steps := []struct {
		op    string
		query string
	}{
		{"delete connection history", `DELETE FROM guacamole_connection_history WHERE connection_id = $1`},
		{"delete connection parameters", `DELETE FROM guacamole_connection_parameter WHERE connection_id = $1`},
		{"delete connection permissions", `DELETE FROM guacamole_connection_permission WHERE connection_id = $1`},
		{"delete connection", `DELETE FROM guacamole_connection WHERE connection_id = $1`},
	}
	for _, step := range steps {
		if _, err := s.q.ExecContext(ctx, step.query, connID); err != nil {
			return storeErr(step.op, err)
		}
	}

	return nil
}

// ModifyConnectionParameter sets one connection parameter. Column-backed
// parameters update the connection row; everything else is validated
// against the protocol's allow-list, with "read-only" storing a row only
// when true and "color-depth" admitting 8, 16, 24 or 32.
func (s *Store) ModifyConnectionParameter(ctx context.Context, sel Selector, param, value string) error {
	connID, err := s.ResolveConnection(ctx, sel)
	if err != nil {
		return err
	}

	if col, ok := connectionColumns[param]; ok {
		if param == "protocol" {
			if _, ok := protocolParameters[value]; !ok {
				return validationf("unsupported protocol %q", value)
			}
		}
		res, err := s.q.ExecContext(ctx,
			`UPDATE guacamole_connection SET `+col+` = $1 WHERE connection_id = $2`,
			value, connID)
		if err != nil {
			return storeErr("update connection", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return storeErr("update connection", err)
		} else if n == 0 {
			return storeErr("update connection", sql.ErrNoRows)
		}
		return nil
	}

	// The allow-list check comes first so modify cannot attach a parameter
	// that create would have rejected for the connection's protocol.
	protocol, err := s.connectionProtocol(ctx, connID)
	if err != nil {
		return err
	}
	core := param == "hostname" || param == "port" || param == "password"
	if !core && !protocolParameters[protocol][param] {
		return validationf("parameter %q is not valid for protocol %q", param, protocol)
	}

	switch param {
	case "read-only":
		switch strings.ToLower(value) {
		case "true", "1":
			return s.upsertParameter(ctx, connID, param, "true")
		case "false", "0":
			if _, err := s.q.ExecContext(ctx,
				`DELETE FROM guacamole_connection_parameter
				 WHERE connection_id = $1 AND parameter_name = $2`,
				connID, param); err != nil {
				return storeErr("delete connection parameter", err)
			}
			return nil
		default:
			return validationf("parameter %q accepts only true or false, got %q", param, value)
		}
	case "color-depth":
		if !colorDepths[value] {
			return validationf("parameter %q accepts 8, 16, 24 or 32, got %q", param, value)
		}
		return s.upsertParameter(ctx, connID, param, value)
	}

	return s.upsertParameter(ctx, connID, param, value)
}

func (s *Store) upsertParameter(ctx context.Context, connID int64, name, value string) error {
	if _, err := s.q.ExecContext(ctx,
		`INSERT INTO guacamole_connection_parameter (connection_id, parameter_name, parameter_value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (connection_id, parameter_name) DO UPDATE SET parameter_value = EXCLUDED.parameter_value`,
		connID, name, value); err != nil {
		return storeErr("upsert connection parameter", err)
	}
	return nil
}

func (s *Store) connectionProtocol(ctx context.Context, connID int64) (string, error) {
	var protocol string
	err := s.q.QueryRowContext(ctx,
		`SELECT protocol FROM guacamole_connection WHERE connection_id = $1`,
		connID).Scan(&protocol)
	if err != nil {
		return "", storeErr("read connection protocol", err)
	}
	return protocol, nil
}
