package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists the document tree as one row per leaf, keyed by full
// path. It satisfies the same Store interface as MemoryStore, so the console
// can switch backends without touching the services layer.
type SQLiteStore struct {
	db        *sql.DB
	mu        sync.Mutex
	observers map[int]*observer
	nextID    int
}

// OpenSQLite opens (and initializes) a store at the given database file.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	s, err := NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	schema := `CREATE TABLE IF NOT EXISTS nodes (
		path  TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create nodes table: %w", err)
	}
	return &SQLiteStore{db: db, observers: map[int]*observer{}}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Observe(path string, fn ObserveFunc) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.observers[id] = &observer{path: path, fn: fn}
	v, err := s.readValue(path)
	s.mu.Unlock()
	if err != nil {
		v = nil
	}

	fn(Snapshot{Path: path, Value: v})
	return func() {
		s.mu.Lock()
		delete(s.observers, id)
		s.mu.Unlock()
	}
}

func (s *SQLiteStore) ReadOnce(path string) (Snapshot, error) {
	v, err := s.readValue(path)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Path: path, Value: v}, nil
}

func (s *SQLiteStore) Write(path string, value any) error {
	if value == nil {
		return s.Delete(path)
	}
	v, err := normalize(value)
	if err != nil {
		return err
	}

	s.mu.Lock()
	err = s.writeLocked(path, v)
	var pending []notification
	if err == nil {
		pending = s.pendingLocked(path)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	deliver(pending)
	return nil
}

func (s *SQLiteStore) Delete(path string) error {
	s.mu.Lock()
	changed, err := s.deleteLocked(path)
	var pending []notification
	if err == nil && changed {
		pending = s.pendingLocked(path)
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	deliver(pending)
	return nil
}

func (s *SQLiteStore) writeLocked(path string, v any) error {
	path = strings.Join(splitPath(path), "/")
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin write: %w", err)
	}
	defer tx.Rollback()

	if err := clearSubtree(tx, path); err != nil {
		return err
	}
	// A leaf stored at an ancestor path would shadow the new subtree.
	parts := splitPath(path)
	for i := 1; i < len(parts); i++ {
		ancestor := strings.Join(parts[:i], "/")
		if _, err := tx.Exec(`DELETE FROM nodes WHERE path = ?`, ancestor); err != nil {
			return fmt.Errorf("clear ancestor leaf: %w", err)
		}
	}

	var insertErr error
	flatten(path, v, func(leafPath string, encoded string) {
		if insertErr != nil {
			return
		}
		_, insertErr = tx.Exec(`INSERT INTO nodes (path, value) VALUES (?, ?)`, leafPath, encoded)
	})
	if insertErr != nil {
		return fmt.Errorf("insert leaf: %w", insertErr)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit write: %w", err)
	}
	return nil
}

func (s *SQLiteStore) deleteLocked(path string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	changed, err := clearSubtreeCount(tx, path)
	if err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit delete: %w", err)
	}
	return changed > 0, nil
}

func clearSubtree(tx *sql.Tx, path string) error {
	_, err := clearSubtreeCount(tx, path)
	return err
}

func clearSubtreeCount(tx *sql.Tx, path string) (int64, error) {
	if len(splitPath(path)) == 0 {
		res, err := tx.Exec(`DELETE FROM nodes`)
		if err != nil {
			return 0, fmt.Errorf("clear tree: %w", err)
		}
		return res.RowsAffected()
	}
	res, err := tx.Exec(
		`DELETE FROM nodes WHERE path = ? OR path LIKE ? ESCAPE '\'`,
		path, likePrefix(path))
	if err != nil {
		return 0, fmt.Errorf("clear subtree: %w", err)
	}
	return res.RowsAffected()
}

// readValue assembles the value at path from its leaf rows. Safe to call
// with or without mu held; it only reads.
func (s *SQLiteStore) readValue(path string) (any, error) {
	if len(splitPath(path)) > 0 {
		var encoded string
		err := s.db.QueryRow(`SELECT value FROM nodes WHERE path = ?`, path).Scan(&encoded)
		switch {
		case err == nil:
			var v any
			if err := json.Unmarshal([]byte(encoded), &v); err != nil {
				return nil, fmt.Errorf("decode leaf %s: %w", path, err)
			}
			return v, nil
		case !errors.Is(err, sql.ErrNoRows):
			return nil, fmt.Errorf("read leaf %s: %w", path, err)
		}
	}

	var rows *sql.Rows
	var err error
	if len(splitPath(path)) == 0 {
		rows, err = s.db.Query(`SELECT path, value FROM nodes`)
	} else {
		rows, err = s.db.Query(`SELECT path, value FROM nodes WHERE path LIKE ? ESCAPE '\'`, likePrefix(path))
	}
	if err != nil {
		return nil, fmt.Errorf("read subtree %s: %w", path, err)
	}
	defer rows.Close()

	out := map[string]any{}
	for rows.Next() {
		var leafPath, encoded string
		if err := rows.Scan(&leafPath, &encoded); err != nil {
			return nil, fmt.Errorf("scan leaf: %w", err)
		}
		var v any
		if err := json.Unmarshal([]byte(encoded), &v); err != nil {
			return nil, fmt.Errorf("decode leaf %s: %w", leafPath, err)
		}
		rel := leafPath
		if len(splitPath(path)) > 0 {
			rel = strings.TrimPrefix(leafPath, path+"/")
		}
		setNode(out, splitPath(rel), v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read subtree %s: %w", path, err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}

func (s *SQLiteStore) pendingLocked(changed string) []notification {
	ids := make([]int, 0, len(s.observers))
	for id, o := range s.observers {
		if withinSubtree(o.path, changed) {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	out := make([]notification, 0, len(ids))
	for _, id := range ids {
		o := s.observers[id]
		v, err := s.readValue(o.path)
		if err != nil {
			v = nil
		}
		out = append(out, notification{fn: o.fn, snap: Snapshot{Path: o.path, Value: v}})
	}
	return out
}

// flatten walks a normalized value emitting one (path, JSON) pair per leaf.
// Empty branches are skipped so they read back as missing, matching the
// memory store's pruning.
func flatten(prefix string, v any, emit func(path, encoded string)) {
	if m, ok := v.(map[string]any); ok {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			child := k
			if prefix != "" {
				child = prefix + "/" + k
			}
			flatten(child, m[k], emit)
		}
		return
	}
	if prefix == "" {
		return
	}
	encoded, err := json.Marshal(v)
	if err != nil {
		return
	}
	emit(prefix, string(encoded))
}

// likePrefix builds a LIKE pattern matching strict descendants of path,
// escaping the LIKE metacharacters (activity keys may contain underscores).
func likePrefix(path string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(path) + "/%"
}

var _ Store = (*SQLiteStore)(nil)
