package cache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"noesis/internal/proof"
)

// Store persists cache entries in SQLite so proof results survive
// restarts. Entries are stored as JSON under their string key; the
// component hashes are kept in their own columns for inspection.
type Store struct {
	db   *sql.DB
	path string
}

// OpenStore opens (or creates) the cache database at path.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}
	s := &Store{db: db, path: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	pragmas := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA busy_timeout=5000;`,
	}
	for _, p := range pragmas {
		if _, err := s.db.Exec(p); err != nil {
			return fmt.Errorf("failed to set pragma: %w", err)
		}
	}
	schema := `
	CREATE TABLE IF NOT EXISTS proof_cache (
		cache_key   TEXT PRIMARY KEY,
		goal_hash   TEXT NOT NULL,
		axioms_hash TEXT NOT NULL,
		method      TEXT NOT NULL,
		config_fp   TEXT NOT NULL,
		result_json TEXT NOT NULL,
		created_at  DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_proof_cache_goal ON proof_cache(goal_hash);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create cache table: %w", err)
	}
	return nil
}

// Save upserts one entry.
func (s *Store) Save(k Key, res proof.Result) error {
	blob, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO proof_cache (cache_key, goal_hash, axioms_hash, method, config_fp, result_json)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET result_json = excluded.result_json`,
		k.String(), k.Goal.String(), k.Axioms.String(), k.Method, k.ConfigFP, string(blob))
	if err != nil {
		return fmt.Errorf("failed to save cache entry: %w", err)
	}
	return nil
}

// Load streams every stored entry to fn in insertion order. Rows whose
// JSON no longer decodes are skipped.
func (s *Store) Load(fn func(key string, res proof.Result)) error {
	rows, err := s.db.Query(`SELECT cache_key, result_json FROM proof_cache ORDER BY created_at`)
	if err != nil {
		return fmt.Errorf("failed to read cache entries: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var key, blob string
		if err := rows.Scan(&key, &blob); err != nil {
			return fmt.Errorf("failed to scan cache entry: %w", err)
		}
		var res proof.Result
		if err := json.Unmarshal([]byte(blob), &res); err != nil {
			continue
		}
		fn(key, res)
	}
	return rows.Err()
}

// Purge deletes every stored entry.
func (s *Store) Purge() error {
	if _, err := s.db.Exec(`DELETE FROM proof_cache`); err != nil {
		return fmt.Errorf("failed to purge cache: %w", err)
	}
	return nil
}

// Len counts the stored entries.
func (s *Store) Len() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM proof_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }
