package guacdb

import (
	"context"
	"database/sql"
	"regexp"
)

const maxEntityNameLen = 128

var entityNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.@-]+$`)

func validateEntityName(kind, name string) error {
	if name == "" {
		return validationf("%s name is required", kind)
	}
	if len(name) > maxEntityNameLen {
		return validationf("%s name exceeds %d characters", kind, maxEntityNameLen)
	}
	if !entityNamePattern.MatchString(name) {
		return validationf("%s name %q contains invalid characters", kind, name)
	}
	return nil
}

// CreateUser creates a user account with freshly issued credentials.
func (s *Store) CreateUser(ctx context.Context, username, password string) error {
	if err := validateEntityName("user", username); err != nil {
		return err
	}

	if ok, err := s.UserExists(ctx, ByName(username)); err != nil {
		return err
	} else if ok {
		return conflictf("user %q already exists", username)
	}

	cred, err := issueCredential(password)
	if err != nil {
		return storeErr("issue credentials", err)
	}

	var entityID int64
	err = s.q.QueryRowContext(ctx,
		`INSERT INTO guacamole_entity (name, type) VALUES ($1, $2) RETURNING entity_id`,
		username, KindUser).Scan(&entityID)
	if err != nil {
		return storeErr("create user entity", err)
	}

	if _, err := s.q.ExecContext(ctx,
		`INSERT INTO guacamole_user (entity_id, password_hash, password_salt, password_date)
		 VALUES ($1, $2, $3, NOW())`,
		entityID, cred.Hash, cred.Salt); err != nil {
		return storeErr("create user", err)
	}

	return nil
}

// ChangeUserPassword rotates a user's credentials. A fresh salt is issued;
// the old hash and salt are overwritten.
func (s *Store) ChangeUserPassword(ctx context.Context, username, newPassword string) error {
	entityID, err := s.ResolveUser(ctx, ByName(username))
	if err != nil {
		return err
	}

	cred, err := issueCredential(newPassword)
	if err != nil {
		return storeErr("issue credentials", err)
	}

	res, err := s.q.ExecContext(ctx,
		`UPDATE guacamole_user
		 SET password_hash = $1, password_salt = $2, password_date = NOW()
		 WHERE entity_id = $3`,
		cred.Hash, cred.Salt, entityID)
	if err != nil {
		return storeErr("update password", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storeErr("update password", err)
	} else if n == 0 {
		return storeErr("update password", sql.ErrNoRows)
	}

	return nil
}

// ModifyUserParameter sets one allow-listed account field. Boolean fields
// accept only "0" or "1".
func (s *Store) ModifyUserParameter(ctx context.Context, username, param, value string) error {
	col, ok := userColumns[param]
	if !ok {
		return validationf("unknown user parameter %q", param)
	}

	entityID, err := s.ResolveUser(ctx, ByName(username))
	if err != nil {
		return err
	}

	var arg interface{} = value
	if col.boolCol {
		switch value {
		case "0":
			arg = false
		case "1":
			arg = true
		default:
			return validationf("user parameter %q accepts only 0 or 1, got %q", param, value)
		}
	}

	// col.column comes from the allow-list, never from the caller.
	res, err := s.q.ExecContext(ctx,
		`UPDATE guacamole_user SET `+col.column+` = $1 WHERE entity_id = $2`,
		arg, entityID)
	if err != nil {
		return storeErr("update user parameter", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return storeErr("update user parameter", err)
	} else if n == 0 {
		return storeErr("update user parameter", sql.ErrNoRows)
	}

	return nil
}

// DeleteUser removes a user and everything hanging off it. The entity ID
// is captured first and every cascade step is keyed on it; the order is
// fixed so no step can strand rows for a later one.
func (s *Store) DeleteUser(ctx context.Context, username string) error {
	entityID, err := s.ResolveUser(ctx, ByName(username))
	if err != nil {
		return err
	}

	steps := []struct {
		op    string
		query string
	}{
		{"delete user group permissions", `DELETE FROM guacamole_user_group_permission WHERE entity_id = $1`},
		{"delete group memberships", `DELETE FROM guacamole_user_group_member WHERE member_entity_id = $1`},
		{"delete connection permissions", `DELETE FROM guacamole_connection_permission WHERE entity_id = $1`},
		{"delete connection group permissions", `DELETE FROM guacamole_connection_group_permission WHERE entity_id = $1`},
		{"delete user", `DELETE FROM guacamole_user WHERE entity_id = $1`},
		{"delete user entity", `DELETE FROM guacamole_entity WHERE entity_id = $1`},
	}
	for _, step := range steps {
		if _, err := s.q.ExecContext(ctx, step.query, entityID); err != nil {
			return storeErr(step.op, err)
		}
	}

	return nil
}
