package main

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/riskibarqy/matchfeed/db"
	"github.com/riskibarqy/matchfeed/internal/platform/logging"
)

var logger = logging.NewJSON(logging.LevelInfo)

type command struct {
	usage string
	run   func(m *migrate.Migrate, args []string) error
}

var commands = map[string]command{
	"up":      {usage: "up", run: runUp},
	"down":    {usage: "down [steps]", run: runDown},
	"status":  {usage: "status", run: runStatus},
	"force":   {usage: "force <version>", run: runForce},
	"goto":    {usage: "goto <version>", run: runGoto},
	"version": {usage: "version", run: runStatus},
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	defer func() { _ = logger.Sync() }()

	if len(args) == 0 {
		printUsage()
		return 2
	}
	cmd, ok := commands[strings.ToLower(strings.TrimSpace(args[0]))]
	if !ok {
		printUsage()
		return 2
	}

	dbURL := strings.TrimSpace(os.Getenv("DB_URL"))
	if dbURL == "" {
		logger.Error("DB_URL is required")
		return 1
	}

	m, sourceName, err := newMigrator(withMigrationParams(dbURL))
	if err != nil {
		logger.Error("create migrator", "error", err)
		return 1
	}
	defer closeMigrator(m)

	if err := cmd.run(m, args[1:]); err != nil {
		logger.Error("migration command failed", "command", args[0], "source", sourceName, "error", err)
		return 1
	}
	return 0
}

func runUp(m *migrate.Migrate, _ []string) error {
	return logNoChange(m.Up(), "migrations applied")
}

func runDown(m *migrate.Migrate, args []string) error {
	steps := 1
	if len(args) > 0 {
		n, err := strconv.Atoi(strings.TrimSpace(args[0]))
		if err != nil || n <= 0 {
			return fmt.Errorf("down steps must be a positive integer, got %q", args[0])
		}
		steps = n
	}
	return logNoChange(m.Steps(-steps), "migrations rolled back", "steps", steps)
}

func runForce(m *migrate.Migrate, args []string) error {
	version, err := versionArg(args)
	if err != nil {
		return err
	}
	if err := m.Force(int(version)); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	logger.Info("forced migration version", "version", version)
	return nil
}

func runGoto(m *migrate.Migrate, args []string) error {
	version, err := versionArg(args)
	if err != nil {
		return err
	}
	return logNoChange(m.Migrate(version), "migrated", "version", version)
}

// runStatus prints the applied version and which embedded migrations are
// still pending.
func runStatus(m *migrate.Migrate, _ []string) error {
	version, dirty, err := m.Version()
	applied := !errors.Is(err, migrate.ErrNilVersion)
	if err != nil && applied {
		return fmt.Errorf("read version: %w", err)
	}

	available, err := embeddedVersions()
	if err != nil {
		return err
	}
	var pending []uint
	for _, v := range available {
		if !applied || v > version {
			pending = append(pending, v)
		}
	}

	if !applied {
		fmt.Println("version: none")
	} else {
		fmt.Printf("version: %d\n", version)
	}
	fmt.Printf("dirty: %t\n", dirty)
	fmt.Printf("pending: %v\n", pending)
	return nil
}

func versionArg(args []string) (uint, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("a version argument is required")
	}
	value, err := strconv.ParseUint(strings.TrimSpace(args[0]), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid version %q: %w", args[0], err)
	}
	return uint(value), nil
}

func logNoChange(err error, msg string, args ...any) error {
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migration changes")
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info(msg, args...)
	return nil
}

// embeddedVersions lists the up-migration versions shipped in the binary.
func embeddedVersions() ([]uint, error) {
	entries, err := fs.ReadDir(db.Migrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read embedded migrations: %w", err)
	}
	var versions []uint
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		prefix, _, _ := strings.Cut(name, "_")
		v, err := strconv.ParseUint(prefix, 10, 32)
		if err != nil {
			continue
		}
		versions = append(versions, uint(v))
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions, nil
}

// newMigrator prefers an on-disk migrations directory and falls back to the
// copy embedded in the binary.
func newMigrator(dbURL string) (*migrate.Migrate, string, error) {
	if dir, ok := migrationsDir(); ok {
		sourceURL := "file://" + filepath.ToSlash(dir)
		m, err := migrate.New(sourceURL, dbURL)
		return m, sourceURL, err
	}

	src, err := iofs.New(db.Migrations, "migrations")
	if err != nil {
		return nil, "", fmt.Errorf("open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, dbURL)
	return m, "embedded", err
}

func closeMigrator(m *migrate.Migrate) {
	srcErr, dbErr := m.Close()
	if err := errors.Join(srcErr, dbErr); err != nil {
		logger.Warn("close migrator failed", "error", err)
	}
}

func migrationsDir() (string, bool) {
	for _, candidate := range []string{os.Getenv("MIGRATIONS_DIR"), "./db/migrations", "/app/db/migrations"} {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		if info, err := os.Stat(abs); err == nil && info.IsDir() {
			return abs, true
		}
	}
	return "", false
}

// withMigrationParams tags the migration session and honors the pooler
// workaround flag shared with the API.
func withMigrationParams(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		return raw
	}
	query := parsed.Query()
	if query.Get("application_name") == "" {
		query.Set("application_name", "matchfeed-migration")
	}
	if envBool("DB_DISABLE_PREPARED_BINARY_RESULT") && query.Get("disable_prepared_binary_result") == "" {
		query.Set("disable_prepared_binary_result", "yes")
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func printUsage() {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	bin := filepath.Base(os.Args[0])
	fmt.Fprintf(os.Stderr, "usage: %s <command> [args]\ncommands:\n", bin)
	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %s %s\n", bin, commands[name].usage)
	}
}
