package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/phuslu/log"
)

// NewPostgresRecorder connects to PostgreSQL and runs migrations.
func NewPostgresRecorder(dsn string) (*SQLRecorder, error) {
	connector, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	r, err := newSQLRecorder(db, postgresDialect)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("postgres recorder opened")
	return r, nil
}

// Open selects a recorder by driver name. "none" or an empty DSN yields a NoopRecorder.
func Open(driver, dsn string) (Recorder, error) {
	switch driver {
	case "sqlite":
		if dsn == "" {
			return NewNoopRecorder(), nil
		}
		return NewSQLiteRecorder(dsn)
	case "postgres":
		return NewPostgresRecorder(dsn)
	case "none", "":
		return NewNoopRecorder(), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", driver)
	}
}
