package guacdb

import (
	"context"
	"database/sql"
	"fmt"
)

// Migration is one versioned schema change.
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// GetMigrations returns the gateway schema migrations in order.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Create entity table",
			SQL: `
				CREATE TABLE IF NOT EXISTS guacamole_entity (
					entity_id BIGSERIAL PRIMARY KEY,
					name VARCHAR(128) NOT NULL,
					type VARCHAR(16) NOT NULL,
					UNIQUE(type, name)
				);
			`,
		},
		{
			Version:     2,
			Description: "Create user and user group tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS guacamole_user (
					user_id BIGSERIAL PRIMARY KEY,
					entity_id BIGINT NOT NULL UNIQUE REFERENCES guacamole_entity(entity_id),
					password_hash BYTEA NOT NULL,
					password_salt BYTEA,
					password_date TIMESTAMP NOT NULL DEFAULT NOW(),
					disabled BOOLEAN NOT NULL DEFAULT FALSE,
					expired BOOLEAN NOT NULL DEFAULT FALSE,
					access_window_start TIME,
					access_window_end TIME,
					valid_from DATE,
					valid_until DATE,
					timezone VARCHAR(64),
					full_name VARCHAR(256),
					email_address VARCHAR(256),
					organization VARCHAR(256),
					organizational_role VARCHAR(256)
				);

				CREATE TABLE IF NOT EXISTS guacamole_user_group (
					user_group_id BIGSERIAL PRIMARY KEY,
					entity_id BIGINT NOT NULL UNIQUE REFERENCES guacamole_entity(entity_id),
					disabled BOOLEAN NOT NULL DEFAULT FALSE
				);

				CREATE TABLE IF NOT EXISTS guacamole_user_group_member (
					user_group_id BIGINT NOT NULL REFERENCES guacamole_user_group(user_group_id),
					member_entity_id BIGINT NOT NULL REFERENCES guacamole_entity(entity_id),
					PRIMARY KEY (user_group_id, member_entity_id)
				);
			`,
		},
		{
			Version:     3,
			Description: "Create connection and connection group tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS guacamole_connection_group (
					connection_group_id BIGSERIAL PRIMARY KEY,
					connection_group_name VARCHAR(128) NOT NULL UNIQUE,
					parent_id BIGINT REFERENCES guacamole_connection_group(connection_group_id) ON DELETE SET NULL,
					type VARCHAR(32) NOT NULL DEFAULT 'ORGANIZATIONAL'
				);

				CREATE TABLE IF NOT EXISTS guacamole_connection (
					connection_id BIGSERIAL PRIMARY KEY,
					connection_name VARCHAR(128) NOT NULL UNIQUE,
					protocol VARCHAR(32) NOT NULL,
					parent_id BIGINT REFERENCES guacamole_connection_group(connection_group_id) ON DELETE SET NULL
				);

				CREATE TABLE IF NOT EXISTS guacamole_connection_parameter (
					connection_id BIGINT NOT NULL REFERENCES guacamole_connection(connection_id),
					parameter_name VARCHAR(128) NOT NULL,
					parameter_value VARCHAR(4096) NOT NULL,
					PRIMARY KEY (connection_id, parameter_name)
				);
			`,
		},
		{
			Version:     4,
			Description: "Create permission tables",
			SQL: `
				CREATE TABLE IF NOT EXISTS guacamole_connection_permission (
					entity_id BIGINT NOT NULL REFERENCES guacamole_entity(entity_id),
					connection_id BIGINT NOT NULL REFERENCES guacamole_connection(connection_id),
					permission VARCHAR(16) NOT NULL,
					PRIMARY KEY (entity_id, connection_id)
				);

				CREATE TABLE IF NOT EXISTS guacamole_connection_group_permission (
					entity_id BIGINT NOT NULL REFERENCES guacamole_entity(entity_id),
					connection_group_id BIGINT NOT NULL REFERENCES guacamole_connection_group(connection_group_id),
					permission VARCHAR(16) NOT NULL,
					PRIMARY KEY (entity_id, connection_group_id)
				);

				CREATE TABLE IF NOT EXISTS guacamole_user_group_permission (
					entity_id BIGINT NOT NULL REFERENCES guacamole_entity(entity_id),
					affected_user_group_id BIGINT NOT NULL REFERENCES guacamole_user_group(user_group_id),
					permission VARCHAR(16) NOT NULL,
					PRIMARY KEY (entity_id, affected_user_group_id)
				);
			`,
		},
		{
			Version:     5,
			Description: "Create connection history table",
			SQL: `
				CREATE TABLE IF NOT EXISTS guacamole_connection_history (
					history_id BIGSERIAL PRIMARY KEY,
					connection_id BIGINT REFERENCES guacamole_connection(connection_id),
					user_id BIGINT,
					username VARCHAR(128),
					remote_host VARCHAR(256),
					start_date TIMESTAMP NOT NULL DEFAULT NOW(),
					end_date TIMESTAMP
				);

				CREATE INDEX IF NOT EXISTS idx_connection_history_connection_id
					ON guacamole_connection_history(connection_id);
			`,
		},
	}
}

// RunMigrations applies all pending migrations, each in its own
// transaction, tracking applied versions in guacadm_migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS guacadm_migrations (
			version INT PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT version FROM guacadm_migrations ORDER BY version")
	if err != nil {
		return fmt.Errorf("failed to query migrations: %w", err)
	}

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	rows.Close()

	for _, migration := range GetMigrations() {
		if applied[migration.Version] {
			continue
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if _, err := tx.ExecContext(ctx, migration.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", migration.Version, err)
		}

		if _, err := tx.ExecContext(ctx,
			"INSERT INTO guacadm_migrations (version, description) VALUES ($1, $2)",
			migration.Version, migration.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}
