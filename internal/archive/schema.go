package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"

	_ "embed"

	sq "github.com/Masterminds/squirrel"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is stored under metadata.schema_version.
const schemaVersion = 1

const versionKey = "schema_version"

// migrate applies schema.sql and records the schema version. An archive
// written by a newer build is refused.
func migrate(ctx context.Context, db *sql.DB) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	stored, found, err := readVersion(ctx, tx)
	if err != nil {
		return err
	}
	switch {
	case !found:
		query, args, buildErr := sq.Insert("metadata").
			Columns("key", "value").
			Values(versionKey, strconv.Itoa(schemaVersion)).
			ToSql()
		if buildErr != nil {
			return fmt.Errorf("build version insert: %w", buildErr)
		}
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
	case stored > schemaVersion:
		err = fmt.Errorf("archive schema version %d is newer than supported %d", stored, schemaVersion)
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

func readVersion(ctx context.Context, tx *sql.Tx) (int, bool, error) {
	query, args, err := sq.Select("value").From("metadata").Where(sq.Eq{"key": versionKey}).ToSql()
	if err != nil {
		return 0, false, fmt.Errorf("build version query: %w", err)
	}

	var raw string
	err = tx.QueryRowContext(ctx, query, args...).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read schema version: %w", err)
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("parse schema version %q: %w", raw, err)
	}
	return v, true, nil
}
