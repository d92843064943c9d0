// Copyright (c) StudyFlow Authors. All rights reserved.

package artifact

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// currentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const currentSchemaVersion = 1

// SQLiteStore is a [Store] backed by a single SQLite database file in WAL
// mode. Version records are append-only rows; per-id write serialization
// is enforced with a keyed lock on top of SQLite's single-writer model.
type SQLiteStore struct {
	db *sql.DB

	mu      sync.Mutex
	idLocks map[uuid.UUID]*sync.Mutex
}

// OpenSQLite initializes the artifact database at baseDir/artifacts.db.
// The baseDir parameter allows tests to use t.TempDir().
func OpenSQLite(baseDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create base directory: %w", err)
	}

	dbPath := filepath.Join(baseDir, "artifacts.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	_ = os.Chmod(dbPath, 0o600)

	return &SQLiteStore{
		db:      db,
		idLocks: make(map[uuid.UUID]*sync.Mutex),
	}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS artifact_versions (
		  version_id  TEXT PRIMARY KEY,
		  artifact_id TEXT NOT NULL,
		  title       TEXT NOT NULL,
		  kind        TEXT NOT NULL,
		  content     TEXT NOT NULL,
		  owner       TEXT NOT NULL,
		  created_at  INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_artifact_versions_id_created
		ON artifact_versions(artifact_id, created_at DESC, version_id DESC);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}

	// Future migrations go here:
	// if version < 2 { ... }

	return nil
}

func (s *SQLiteStore) lockFor(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.idLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.idLocks[id] = l
	}
	return l
}

// Save appends a new version record for id. The first version fixes the
// artifact's kind; later saves with a different kind fail with
// [ErrKindMismatch].
func (s *SQLiteStore) Save(ctx context.Context, id uuid.UUID, title string, kind Kind, content, owner string) (*Artifact, error) {
	l := s.lockFor(id)
	l.Lock()
	defer l.Unlock()

	latest, err := s.Latest(ctx, id)
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	if latest != nil && latest.Kind != kind {
		return nil, fmt.Errorf("%w: id %s is %q, save requested %q", ErrKindMismatch, id, latest.Kind, kind)
	}

	versionID, err := newVersionID()
	if err != nil {
		return nil, err
	}
	now := time.Now()

	rec := &Artifact{
		VersionID: versionID,
		ID:        id,
		Title:     title,
		Kind:      kind,
		Content:   content,
		Owner:     owner,
		CreatedAt: now,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO artifact_versions (version_id, artifact_id, title, kind, content, owner, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.VersionID, rec.ID.String(), rec.Title, string(rec.Kind), rec.Content, rec.Owner, rec.CreatedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert version: %w", err)
	}
	return rec, nil
}

// Latest returns the version with the greatest created_at for id, using
// version_id (time-ordered) as the tie-break.
func (s *SQLiteStore) Latest(ctx context.Context, id uuid.UUID) (*Artifact, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT version_id, artifact_id, title, kind, content, owner, created_at
		 FROM artifact_versions
		 WHERE artifact_id = ?
		 ORDER BY created_at DESC, version_id DESC
		 LIMIT 1`,
		id.String(),
	)
	rec, err := scanVersion(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query latest version: %w", err)
	}
	return rec, nil
}

// Versions returns every version record for id, oldest first.
func (s *SQLiteStore) Versions(ctx context.Context, id uuid.UUID) ([]Artifact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT version_id, artifact_id, title, kind, content, owner, created_at
		 FROM artifact_versions
		 WHERE artifact_id = ?
		 ORDER BY created_at ASC, version_id ASC`,
		id.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("query versions: %w", err)
	}
	defer rows.Close()

	var versions []Artifact
	for rows.Next() {
		rec, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan version: %w", err)
		}
		versions = append(versions, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, ErrNotFound
	}
	return versions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (*Artifact, error) {
	var (
		rec       Artifact
		rawID     string
		rawKind   string
		createdNs int64
	)
	if err := row.Scan(&rec.VersionID, &rawID, &rec.Title, &rawKind, &rec.Content, &rec.Owner, &createdNs); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("stored artifact id: %w", err)
	}
	rec.ID = id
	rec.Kind = Kind(rawKind)
	rec.CreatedAt = time.Unix(0, createdNs)
	return &rec, nil
}

func newVersionID() (string, error) {
	id, err := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("generate version id: %w", err)
	}
	return id.String(), nil
}
