package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

func RunMigrations(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger) error {
	migrations := []string{
		createSuggestionsTable,
		addSuggestionsLookupIndex,
	}

	for i, migration := range migrations {
		log.Debug().Msgf("running migration %d/%d", i+1, len(migrations))
		if _, err := pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	log.Info().Int("count", len(migrations)).Msg("migrations completed")
	return nil
}

const createSuggestionsTable = `
CREATE TABLE IF NOT EXISTS suggestions (
  kind TEXT NOT NULL CHECK (kind IN ('consultant', 'contractor')),
  name_key TEXT NOT NULL,
  name TEXT NOT NULL DEFAULT '',
  name_en TEXT NOT NULL DEFAULT '',
  license_no TEXT NOT NULL DEFAULT '',
  phone TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  PRIMARY KEY (kind, name_key)
);
`

const addSuggestionsLookupIndex = `
CREATE INDEX IF NOT EXISTS idx_suggestions_kind_updated ON suggestions(kind, updated_at DESC);
`
