package database

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

const pragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Open opens a SQLite database at the given path and runs migrations.
func Open(dbPath string) (*sql.DB, error) {
	db, err := open(dbPath)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return db, nil
}

// OpenWithoutMigrations opens the database as-is. Used by the migrate command
// so it can report status before applying anything.
func OpenWithoutMigrations(dbPath string) (*sql.DB, error) {
	return open(dbPath)
}

func open(dbPath string) (*sql.DB, error) {
	sep := "?"
	if strings.Contains(dbPath, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite", dbPath+sep+pragmas)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Every connection to :memory: is a separate database.
	if strings.HasPrefix(dbPath, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return db, nil
}

func runMigrations(db *sql.DB) error {
	if err := setup(); err != nil {
		return err
	}
	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}
	return nil
}

// Migrate runs a goose command ("up", "down", "status", "version") against db.
func Migrate(db *sql.DB, command string) error {
	if err := setup(); err != nil {
		return err
	}
	switch command {
	case "up":
		return goose.Up(db, "migrations")
	case "down":
		return goose.Down(db, "migrations")
	case "status":
		return goose.Status(db, "migrations")
	case "version":
		return goose.Version(db, "migrations")
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}

var (
	logMu     sync.Mutex
	migrationLogger *slog.Logger
)

// SetLogger routes goose's migration output through l. A nil logger, the
// default, silences it.
func SetLogger(l *slog.Logger) {
	logMu.Lock()
	defer logMu.Unlock()
	migrationLogger = l
}

// gooseLogger adapts slog to goose.Logger.
type gooseLogger struct {
	l *slog.Logger
}

func (g gooseLogger) Printf(format string, v ...interface{}) {
	g.l.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrate")
}

func (g gooseLogger) Fatalf(format string, v ...interface{}) {
	g.l.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "migrate")
	os.Exit(1)
}

func setup() error {
	logMu.Lock()
	if migrationLogger != nil {
		goose.SetLogger(gooseLogger{l: migrationLogger})
	} else {
		goose.SetLogger(goose.NopLogger())
	}
	logMu.Unlock()

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	return nil
}
