package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

//go:embed sql/migrations/*.sql
var migrationsFS embed.FS

// advisoryLockKey защищает миграции от параллельного запуска из нескольких инстансов.
const advisoryLockKey = 7151_2024

type migration struct {
	version int
	name    string
	upSQL   string
	downSQL string
}

// loadMigrations читает embedded-миграции и собирает их в упорядоченный список.
// Имя файла имеет формат NNNN_name.up.sql / NNNN_name.down.sql.
func loadMigrations() ([]migration, error) {
	entries, err := migrationsFS.ReadDir("sql/migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations dir: %w", err)
	}

	byVersion := make(map[int]*migration)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fileName := entry.Name()

		var direction string
		switch {
		case strings.HasSuffix(fileName, ".up.sql"):
			direction = "up"
		case strings.HasSuffix(fileName, ".down.sql"):
			direction = "down"
		default:
			return nil, fmt.Errorf("unexpected migration file %q", fileName)
		}

		base := strings.TrimSuffix(strings.TrimSuffix(fileName, ".up.sql"), ".down.sql")
		sep := strings.Index(base, "_")
		if sep <= 0 {
			return nil, fmt.Errorf("malformed migration file name %q", fileName)
		}
		version, err := strconv.Atoi(base[:sep])
		if err != nil {
			return nil, fmt.Errorf("parse migration version from %q: %w", fileName, err)
		}

		body, err := migrationsFS.ReadFile("sql/migrations/" + fileName)
		if err != nil {
			return nil, fmt.Errorf("read migration %q: %w", fileName, err)
		}

		m, ok := byVersion[version]
		if !ok {
			m = &migration{version: version, name: base[sep+1:]}
			byVersion[version] = m
		}
		if direction == "up" {
			m.upSQL = string(body)
		} else {
			m.downSQL = string(body)
		}
	}

	migrations := make([]migration, 0, len(byVersion))
	for _, m := range byVersion {
		if m.upSQL == "" {
			return nil, fmt.Errorf("migration %04d_%s has no up script", m.version, m.name)
		}
		migrations = append(migrations, *m)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].version < migrations[j].version
	})
	return migrations, nil
}

// MigrateUp применяет миграции вверх. target=0 означает "до последней".
func (s *Store) MigrateUp(ctx context.Context, target int) error {
	return s.withMigrationLock(ctx, func(ctx context.Context) error {
		migrations, err := loadMigrations()
		if err != nil {
			return err
		}
		current, err := s.currentVersion(ctx)
		if err != nil {
			return err
		}

		for _, m := range migrations {
			if m.version <= current {
				continue
			}
			if target > 0 && m.version > target {
				break
			}
			if err := s.applyMigration(ctx, m, true); err != nil {
				return fmt.Errorf("apply migration %04d_%s: %w", m.version, m.name, err)
			}
		}
		return nil
	})
}

// MigrateDown откатывает миграции до версии target включительно не удаляя её.
func (s *Store) MigrateDown(ctx context.Context, target int) error {
	return s.withMigrationLock(ctx, func(ctx context.Context) error {
		migrations, err := loadMigrations()
		if err != nil {
			return err
		}
		current, err := s.currentVersion(ctx)
		if err != nil {
			return err
		}

		for i := len(migrations) - 1; i >= 0; i-- {
			m := migrations[i]
			if m.version > current || m.version <= target {
				continue
			}
			if m.downSQL == "" {
				return fmt.Errorf("migration %04d_%s has no down script", m.version, m.name)
			}
			if err := s.applyMigration(ctx, m, false); err != nil {
				return fmt.Errorf("revert migration %04d_%s: %w", m.version, m.name, err)
			}
		}
		return nil
	})
}

func (s *Store) withMigrationLock(ctx context.Context, fn func(context.Context) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, advisoryLockKey); err != nil {
		return fmt.Errorf("acquire advisory lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(ctx, `SELECT pg_advisory_unlock($1)`, advisoryLockKey)
	}()

	if _, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INT PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}

	return fn(ctx)
}

func (s *Store) currentVersion(ctx context.Context) (int, error) {
	var version sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("read current schema version: %w", err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

func (s *Store) applyMigration(ctx context.Context, m migration, up bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	script := m.upSQL
	if !up {
		script = m.downSQL
	}
	if _, err := tx.ExecContext(ctx, script); err != nil {
		return fmt.Errorf("exec migration script: %w", err)
	}

	if up {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
			m.version, m.name)
	} else {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM schema_migrations WHERE version = $1`, m.version)
	}
	if err != nil {
		return fmt.Errorf("update schema_migrations: %w", err)
	}

	return tx.Commit()
}
