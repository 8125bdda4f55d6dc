package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/saransh1220/notify-relay/internal/shared/infrastructure/config"
	"github.com/saransh1220/notify-relay/pkg/logger"
	"github.com/saransh1220/notify-relay/pkg/migration"
)

const usage = `usage: migrate [-path dir] <command>

commands:
  up             apply all pending migrations
  down           roll back the last migration
  force VERSION  set the version without running migrations
  version        print the current version
`

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       cfg.App.LogLevel,
		Format:      cfg.App.LogFormat,
	})

	path := flag.String("path", cfg.App.MigrationsPath, "migrations directory")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	runner := migration.NewRunner(&migration.Config{
		MigrationsPath: *path,
		DatabaseURL:    cfg.Database.DSN(),
		Logger:         log,
	})

	if err := execute(runner, flag.Args()); err != nil {
		log.Error(ctx, "migrate failed", err)
		os.Exit(1)
	}
}

type migrator interface {
	Up() error
	Down() error
	Force(version int) error
	Version() (uint, bool, error)
}

func execute(m migrator, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command\n%s", usage)
	}

	switch args[0] {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "force":
		if len(args) < 2 {
			return fmt.Errorf("force needs a version")
		}
		var version int
		if _, err := fmt.Sscanf(args[1], "%d", &version); err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		return m.Force(version)
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("version=%d dirty=%t\n", version, dirty)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}
