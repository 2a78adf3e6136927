// Command migrate applies the embedded schema with goose.
//
//	migrate [up|down|status]
package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"missio.app/internal/config"
	"missio.app/internal/obs"
	"missio.app/migrations"
)

func main() {
	cfg := config.MustLoad()
	obs.InitLogger(obs.LogOptions{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	log := obs.Logger()

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	db, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer func() { _ = db.Close() }()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		log.WithError(err).Fatal("set dialect")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	switch cmd {
	case "up":
		err = goose.UpContext(ctx, db, ".")
	case "down":
		err = goose.DownContext(ctx, db, ".")
	case "status":
		err = goose.StatusContext(ctx, db, ".")
	default:
		log.Fatalf("unknown command %q, want up, down or status", cmd)
	}
	if err != nil {
		log.WithError(err).Fatalf("migrate %s", cmd)
	}
	log.WithField("command", cmd).Info("migrations complete")
}
