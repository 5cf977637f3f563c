// Package log provides the zerolog-based package logger. Events go to a
// console writer on stderr and, once Init is called, also to a SQLite table
// so the history of long searches can be read back with GetLastNLogs.
package log

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

var (
	mu        sync.RWMutex
	console   io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	pkgLogger           = zerolog.New(console).With().Timestamp().Logger()
	dbWriter  *sqliteWriter

	ErrNotInitialized = errors.New("log: sqlite sink not initialized, call log.Init() first")
)

type sqliteWriter struct {
	db   *sql.DB
	stmt *sql.Stmt
	mu   sync.Mutex
}

func newSQLiteWriter(dbPath string) (*sqliteWriter, error) {
	dsn := fmt.Sprintf("%s?_pragma=journal_mode=wal&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db %s: %w", dbPath, err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite db %s: %w", dbPath, err)
	}
	_, err = db.Exec(`
    CREATE TABLE IF NOT EXISTS logs (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        inserted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP NOT NULL,
        log_data TEXT NOT NULL
    );`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create logs table: %w", err)
	}
	stmt, err := db.Prepare(`INSERT INTO logs (log_data) VALUES (?)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare insert statement: %w", err)
	}
	return &sqliteWriter{db: db, stmt: stmt}, nil
}

func (w *sqliteWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.stmt.Exec(string(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *sqliteWriter) close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	err := w.stmt.Close()
	if cerr := w.db.Close(); err == nil {
		err = cerr
	}
	return err
}

func rebuild(level zerolog.Level) {
	var out io.Writer = console
	if dbWriter != nil {
		out = zerolog.MultiLevelWriter(console, dbWriter)
	}
	pkgLogger = zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// SetStd points the console sink at w and sets the minimum level.
func SetStd(w io.Writer, level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	mu.Lock()
	defer mu.Unlock()
	console = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339, NoColor: w != os.Stderr}
	rebuild(lvl)
	return nil
}

// Init adds the SQLite sink at dbPath.
func Init(dbPath string) error {
	if dbPath == "" {
		return fmt.Errorf("log: sqlite sink needs an explicit path")
	}
	mu.Lock()
	defer mu.Unlock()
	if dbWriter != nil {
		return fmt.Errorf("log: sqlite sink already initialized")
	}
	w, err := newSQLiteWriter(dbPath)
	if err != nil {
		return fmt.Errorf("log: %w", err)
	}
	dbWriter = w
	rebuild(pkgLogger.GetLevel())
	return nil
}

// Close detaches and closes the SQLite sink. Console logging continues.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if dbWriter == nil {
		return nil
	}
	w := dbWriter
	dbWriter = nil
	rebuild(pkgLogger.GetLevel())
	return w.close()
}

func logger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := pkgLogger
	return &l
}

func Debug() *zerolog.Event { return logger().Debug() }
func Info() *zerolog.Event  { return logger().Info() }
func Warn() *zerolog.Event  { return logger().Warn() }
func Error() *zerolog.Event { return logger().Error() }
func Fatal() *zerolog.Event { return logger().Fatal() }

// Printf sends an info event. Arguments are handled in the manner of fmt.Printf.
func Printf(format string, v ...any) {
	logger().Info().CallerSkipFrame(1).Msgf(format, v...)
}

type LogEntry struct {
	ID         int64
	InsertedAt string
	LogData    string
}

// GetLastNLogs returns the newest n entries of the SQLite sink, oldest first.
func GetLastNLogs(n int) ([]LogEntry, error) {
	mu.RLock()
	w := dbWriter
	mu.RUnlock()
	if w == nil {
		return nil, ErrNotInitialized
	}
	if n <= 0 {
		return []LogEntry{}, nil
	}
	rows, err := w.db.Query(`SELECT id, inserted_at, log_data FROM logs ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, fmt.Errorf("log: failed to query last %d logs: %w", n, err)
	}
	defer rows.Close()

	var logs []LogEntry
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.ID, &e.InsertedAt, &e.LogData); err != nil {
			return nil, fmt.Errorf("log: failed to scan log entry: %w", err)
		}
		logs = append(logs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("log: error iterating log rows: %w", err)
	}
	for i, j := 0, len(logs)-1; i < j; i, j = i+1, j-1 {
		logs[i], logs[j] = logs[j], logs[i]
	}
	return logs, nil
}
