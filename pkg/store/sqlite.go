package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/facebookincubator/go-belt/tool/logger"
	"github.com/xaionaro-go/voicecapture/pkg/format"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const tableName = "audio_files"

// layoutErrorMessages are the SQLITE_ERROR messages meaning the table or
// its columns are not what this version expects.
var layoutErrorMessages = []string{
	"no such table",
	"no such column",
}

// SQLite is a Store persisted in an SQLite database file.
type SQLite struct {
	db     *sql.DB
	path   string
	locker sync.Mutex
	closed bool
	clock  func() time.Time
}

var _ Store = (*SQLite)(nil)

// OpenSQLite opens the database at path, creating it (and its directory)
// if absent.
func OpenSQLite(ctx context.Context, path string) (_ret *SQLite, _err error) {
	logger.Tracef(ctx, "OpenSQLite(%s)", path)
	defer func() { logger.Tracef(ctx, "/OpenSQLite(%s): %v", path, _err) }()

	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: unable to create directory '%s': %w", ErrStoreUnavailable, dir, err)
		}
	}

	db, err := sql.Open("sqlite", dataSourceName(path))
	if err != nil {
		return nil, fmt.Errorf("%w: unable to open '%s': %w", ErrStoreUnavailable, path, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: unable to open '%s': %w", ErrStoreUnavailable, path, err)
	}

	s := &SQLite{db: db, path: path, clock: time.Now}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLite) initSchema(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("%w: unable to read the schema version: %w", ErrStoreUnavailable, err)
	}
	logger.Debugf(ctx, "audio store '%s' has schema version %d", s.path, version)

	switch {
	case version == 0:
		ddl := `
CREATE TABLE IF NOT EXISTS ` + tableName + ` (
    id TEXT PRIMARY KEY,
    mime_type TEXT NOT NULL,
    data BLOB NOT NULL,
    created_at TIMESTAMP NOT NULL
);
PRAGMA user_version = 1;
`
		if _, err := s.db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("%w: unable to initialize the schema: %w", ErrStoreUnavailable, err)
		}
		return nil
	case version > SchemaVersion:
		return fmt.Errorf("%w: schema version %d is newer than the supported %d", ErrStoreUnavailable, version, SchemaVersion)
	}

	var name string
	err := s.db.QueryRowContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", tableName).Scan(&name)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("%w: table '%s' is missing", ErrStoreUnavailable, tableName)
	case err != nil:
		return fmt.Errorf("%w: unable to check the schema: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *SQLite) checkOpen() error {
	s.locker.Lock()
	defer s.locker.Unlock()
	if s.closed {
		return fmt.Errorf("%w: closed", ErrStoreUnavailable)
	}
	return nil
}

// dataSourceName builds the URI filename of the database; the path is
// escaped so that '?', '#' and '%' stay part of it.
func dataSourceName(path string) string {
	query := url.Values{}
	query.Add("_pragma", "journal_mode(WAL)")
	query.Add("_pragma", "busy_timeout(5000)")
	return "file:" + (&url.URL{Path: path}).EscapedPath() + "?" + query.Encode()
}

// isLayoutError reports whether the driver rejected a statement because
// the schema is broken.
func isLayoutError(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	if sqliteErr.Code()&0xff != sqlite3.SQLITE_ERROR {
		return false
	}
	for _, msg := range layoutErrorMessages {
		if strings.Contains(sqliteErr.Error(), msg) {
			return true
		}
	}
	return false
}

// wrapErr marks errors caused by a broken layout as ErrStoreUnavailable.
func wrapErr(err error) error {
	if err == nil {
		return nil
	}
	if isLayoutError(err) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return err
}

func (s *SQLite) Save(ctx context.Context, blob format.Blob) (_ret string, _err error) {
	logger.Tracef(ctx, "Save(%s, %d bytes)", blob.MimeType, blob.Len())
	defer func() { logger.Tracef(ctx, "/Save(%s, %d bytes): %v", blob.MimeType, blob.Len(), _err) }()
	if err := s.checkOpen(); err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("unable to begin a transaction: %w", wrapErr(err))
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+tableName); err != nil {
		return "", fmt.Errorf("unable to clear the store: %w", wrapErr(err))
	}
	data := blob.Data
	if data == nil {
		data = []byte{}
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO "+tableName+"(id, mime_type, data, created_at) VALUES(?, ?, ?, ?)",
		RecordID, string(blob.MimeType), data, s.clock().UTC(),
	); err != nil {
		return "", fmt.Errorf("unable to insert the record: %w", wrapErr(err))
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("unable to commit: %w", wrapErr(err))
	}
	return RecordID, nil
}

func (s *SQLite) Get(ctx context.Context, id string) (_ret *format.Blob, _err error) {
	logger.Tracef(ctx, "Get(%s)", id)
	defer func() { logger.Tracef(ctx, "/Get(%s): %v", id, _err) }()
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var (
		mimeType string
		data     []byte
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT mime_type, data FROM "+tableName+" WHERE id = ?", id,
	).Scan(&mimeType, &data)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("unable to read the record: %w", wrapErr(err))
	}
	return &format.Blob{
		MimeType: format.MimeType(mimeType),
		Data:     data,
	}, nil
}

func (s *SQLite) Close() error {
	s.locker.Lock()
	defer s.locker.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
