package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// ResolvedVariant is a row in the resolved_variants cache table.
type ResolvedVariant struct {
	Variant string // the input variant name, the lookup key
	Chrom   string
	Offset  int64
	Ref     string
	Alt     string // slash-joined when the source reported several alternates
	Genome  string
	Source  string
}

// DB caches resolved coordinate records in DuckDB so repeated resolutions of
// the same variant name are served locally.
type DB struct {
	db   *sql.DB
	path string
}

// OpenDB opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func OpenDB(path string) (*DB, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &DB{db: db, path: path}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *DB) Close() error {
	return s.db.Close()
}

// ensureSchema creates tables if they don't exist.
func (s *DB) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS resolved_variants (
		variant VARCHAR PRIMARY KEY,
		chrom VARCHAR,
		pos BIGINT,
		ref VARCHAR,
		alt VARCHAR,
		genome VARCHAR,
		source VARCHAR
	)`)
	return err
}

// PutResolved stores a resolved record unless the variant is already cached.
func (s *DB) PutResolved(r ResolvedVariant) error {
	if _, ok, err := s.GetResolved(r.Variant); err != nil {
		return err
	} else if ok {
		return nil
	}
	_, err := s.db.Exec(
		`INSERT INTO resolved_variants (variant, chrom, pos, ref, alt, genome, source)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.Variant, r.Chrom, r.Offset, r.Ref, r.Alt, r.Genome, r.Source)
	if err != nil {
		return fmt.Errorf("insert resolved variant: %w", err)
	}
	return nil
}

// GetResolved returns the cached record for a variant name, if present.
func (s *DB) GetResolved(variant string) (ResolvedVariant, bool, error) {
	var r ResolvedVariant
	err := s.db.QueryRow(
		`SELECT variant, chrom, pos, ref, alt, genome, source
		 FROM resolved_variants WHERE variant = ?`, variant).
		Scan(&r.Variant, &r.Chrom, &r.Offset, &r.Ref, &r.Alt, &r.Genome, &r.Source)
	if err == sql.ErrNoRows {
		return ResolvedVariant{}, false, nil
	}
	if err != nil {
		return ResolvedVariant{}, false, fmt.Errorf("query resolved variant: %w", err)
	}
	return r, true, nil
}

// ClearResolved removes all cached records.
func (s *DB) ClearResolved() error {
	_, err := s.db.Exec(`DELETE FROM resolved_variants`)
	return err
}
