// Package actorstore is the reference campaign backend. It keeps every
// entity in SQL through bun and go-repository-bun and answers gateway calls
// either in process (Actor) or over HTTP (Handler).
package actorstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-campaign-client/entity"
	goerrors "github.com/goliatone/go-errors"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.uber.org/zap"
)

const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

type Config struct {
	Driver string
	DSN    string
}

// Store owns the database and one table per entity, keyed by plural name.
type Store struct {
	db     *bun.DB
	tables map[string]table
	logger *zap.Logger
	now    func() time.Time
}

type Option func(*Store)

// WithClock replaces time.Now for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open connects to the configured database. Tables are not created; call
// Migrate.
func Open(ctx context.Context, cfg Config, logger *zap.Logger, opts ...Option) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var db *bun.DB
	switch cfg.Driver {
	case DriverSQLite, "sqlite", "":
		sqldb, err := sql.Open(DriverSQLite, cfg.DSN)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "actorstore: open sqlite")
		}
		// sqlite allows one writer; a single connection avoids SQLITE_BUSY.
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case DriverPostgres:
		sqldb, err := sql.Open(DriverPostgres, cfg.DSN)
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "actorstore: open postgres")
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		return nil, goerrors.New("actorstore: unsupported driver "+cfg.Driver, goerrors.CategoryBadInput).
			WithTextCode("UNSUPPORTED_DRIVER")
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, goerrors.Wrap(err, goerrors.CategoryExternal, "actorstore: ping database")
	}

	s := &Store{db: db, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.register()

	logger.Info("store opened", zap.String("driver", db.Dialect().Name().String()))
	return s, nil
}

func (s *Store) register() {
	now := func() time.Time { return s.now().UTC() }
	all := []table{
		newTable[*entity.Campaign](s.db, now),
		newTable[*entity.Category](s.db, now),
		newTable[*entity.Comment](s.db, now),
		newTable[*entity.Donation](s.db, now),
		newTable[*entity.Petition](s.db, now),
		newTable[*entity.Place](s.db, now),
		newTable[*entity.Region](s.db, now),
		newTable[*entity.Report](s.db, now),
		newTable[*entity.Signature](s.db, now),
		newTable[*entity.Tag](s.db, now),
		newTable[*entity.Update](s.db, now),
		newTable[*entity.User](s.db, now),
		newTable[*entity.Vote](s.db, now),
	}
	s.tables = make(map[string]table, len(all))
	for _, t := range all {
		s.tables[t.descriptor().Plural] = t
	}
}

// Migrate creates the table of every entity that does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, d := range entity.All() {
			if err := s.tables[d.Plural].migrate(ctx, tx); err != nil {
				return goerrors.Wrap(err, goerrors.CategoryInternal, "actorstore: migrate "+d.Plural)
			}
		}
		return nil
	})
}

func (s *Store) DB() *bun.DB { return s.db }

func (s *Store) Close() error {
	return s.db.Close()
}
