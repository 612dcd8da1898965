package store

import (
	"context"
	"fmt"

	mydb "github.com/TimurManjosov/segmentfilter/internal/db"
)

// Options selects and configures a store backend.
type Options struct {
	Type         string // "memory" or "postgres"
	DSN          string // postgres only
	FixturesPath string // memory only; optional
	Migrate      bool   // postgres only; apply embedded migrations
}

// NewStore creates a new store based on the given store type.
// Supported types: "memory", "postgres"
func NewStore(ctx context.Context, opts Options) (Store, error) {
	switch opts.Type {
	case "memory":
		m := NewMemoryStore()
		if opts.FixturesPath != "" {
			f, err := LoadFixtures(opts.FixturesPath)
			if err != nil {
				return nil, err
			}
			m.Seed(f)
		}
		return m, nil
	case "postgres":
		pool, err := mydb.NewPool(ctx, opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("failed to create postgres pool: %w", err)
		}
		if opts.Migrate {
			if err := mydb.Migrate(pool); err != nil {
				pool.Close()
				return nil, err
			}
		}
		return NewPostgresStore(pool), nil
	default:
		return nil, fmt.Errorf("unsupported store type: %s", opts.Type)
	}
}
