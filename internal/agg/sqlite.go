package agg

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const rollupsTableDDL = `
CREATE TABLE IF NOT EXISTS rollups (
    path TEXT NOT NULL,
    user TEXT NOT NULL,
    age INTEGER NOT NULL,
    files INTEGER NOT NULL,
    disk INTEGER NOT NULL,
    accessed INTEGER NOT NULL,
    modified INTEGER NOT NULL,
    PRIMARY KEY (path, user, age)
);
`

const runMetaTableDDL = `
CREATE TABLE IF NOT EXISTS run_meta (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    input TEXT NOT NULL,
    ref_time INTEGER NOT NULL,
    records INTEGER NOT NULL,
    groups_count INTEGER NOT NULL
);
`

const insertRollupSQL = `INSERT OR REPLACE INTO rollups (path, user, age, files, disk, accessed, modified) VALUES (?, ?, ?, ?, ?, ?, ?)`

const rollupsDiskIndexDDL = `CREATE INDEX IF NOT EXISTS idx_rollups_disk ON rollups(disk DESC);`

// WriteDB writes the rollups into a SQLite database at path, replacing any
// previous contents for the same keys. Paths are stored in display form.
func (r *Reducer) WriteDB(path, input string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	} {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}
	for _, ddl := range []string{rollupsTableDDL, runMetaTableDDL} {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(insertRollupSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	err = r.visitSorted(func(folder, owner string, age uint8, st *Stats) error {
		_, ierr := stmt.Exec(displayPath(folder), owner, int(age), int64(st.Files), int64(st.Disk), st.Atime, st.Mtime)
		return ierr
	})
	if err != nil {
		return fmt.Errorf("insert rollups: %w", err)
	}

	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO run_meta (id, input, ref_time, records, groups_count) VALUES (1, ?, ?, ?, ?)`,
		input, r.now, r.records, r.Groups(),
	); err != nil {
		return fmt.Errorf("write run meta: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	if _, err := db.Exec(rollupsDiskIndexDDL); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}
