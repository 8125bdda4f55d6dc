package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/saransh1220/notify-relay/pkg/logger"
)

// Config holds migration configuration
type Config struct {
	MigrationsPath string
	DatabaseURL    string
	Logger         *logger.Logger
}

// Runner handles database migrations
type Runner struct {
	config *Config
	logger *logger.Logger
}

// migrateLogger lets golang-migrate log through the service logger.
type migrateLogger struct {
	log *logger.Logger
}

func (l migrateLogger) Printf(format string, v ...any) { l.log.Printf(format, v...) }

func (l migrateLogger) Verbose() bool { return false }

// NewRunner creates a new migration runner
func NewRunner(config *Config) *Runner {
	log := config.Logger
	if log == nil {
		log = logger.New(logger.Options{ServiceName: "migrate"})
	}

	return &Runner{
		config: config,
		logger: log,
	}
}

// Up runs all pending migrations
func (r *Runner) Up() error {
	r.logger.Info(context.Background(), "running database migrations")

	m, err := r.getMigrate()
	if err != nil {
		return fmt.Errorf("failed to initialize migrate: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			r.logger.Info(context.Background(), "no new migrations to run")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	r.logger.Info(context.Background(), "migrations completed successfully")
	return nil
}

// Down rolls back the last migration
func (r *Runner) Down() error {
	r.logger.Info(context.Background(), "rolling back last migration")

	m, err := r.getMigrate()
	if err != nil {
		return fmt.Errorf("failed to initialize migrate: %w", err)
	}
	defer m.Close()

	if err := m.Steps(-1); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			r.logger.Info(context.Background(), "no migrations to roll back")
			return nil
		}
		return fmt.Errorf("failed to rollback migration: %w", err)
	}

	r.logger.Info(context.Background(), "migration rolled back successfully")
	return nil
}

// Force sets the migration version without running migrations
// Use this carefully to fix broken migration states
func (r *Runner) Force(version int) error {
	ctx := r.logger.WithField(context.Background(), "version", version)
	r.logger.Warn(ctx, "forcing migration version", nil)

	m, err := r.getMigrate()
	if err != nil {
		return fmt.Errorf("failed to initialize migrate: %w", err)
	}
	defer m.Close()

	if err := m.Force(version); err != nil {
		return fmt.Errorf("failed to force version: %w", err)
	}

	r.logger.Info(ctx, "migration version forced successfully")
	return nil
}

// Version returns the current migration version
func (r *Runner) Version() (uint, bool, error) {
	m, err := r.getMigrate()
	if err != nil {
		return 0, false, fmt.Errorf("failed to initialize migrate: %w", err)
	}
	defer m.Close()

	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to get version: %w", err)
	}

	return version, dirty, nil
}

// getMigrate creates a new migrate instance
func (r *Runner) getMigrate() (*migrate.Migrate, error) {
	// Open database connection
	db, err := sql.Open("postgres", r.config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Create postgres driver instance
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres driver: %w", err)
	}

	// Create migrate instance
	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", r.config.MigrationsPath),
		"postgres",
		driver,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = migrateLogger{log: r.logger}

	return m, nil
}

// AutoMigrate runs migrations automatically on application start
// This is called from main.go on startup
func AutoMigrate(dbURL, migrationsPath string, log *logger.Logger) error {
	runner := NewRunner(&Config{
		MigrationsPath: migrationsPath,
		DatabaseURL:    dbURL,
		Logger:         log,
	})
	log = runner.logger
	ctx := context.Background()

	// Check current version
	version, dirty, err := runner.Version()
	if err != nil {
		log.Error(ctx, "failed to get migration version", err)
		return err
	}

	if dirty {
		log.Warn(log.WithField(ctx, "version", version), "database is in dirty state, fix it manually or run migrate force", nil)
		return fmt.Errorf("database in dirty state at version %d", version)
	}

	log.Info(log.WithField(ctx, "version", version), "current migration version")

	// Run migrations
	if err := runner.Up(); err != nil {
		return err
	}

	// Get new version
	newVersion, _, err := runner.Version()
	if err != nil {
		return err
	}

	log.Info(log.WithFields(ctx, map[string]any{"from_version": version, "to_version": newVersion}), "migration completed")
	return nil
}
