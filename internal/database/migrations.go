package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS gigs (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		owner_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title VARCHAR(255) NOT NULL CHECK (title <> ''),
		description TEXT NOT NULL CHECK (description <> ''),
		budget NUMERIC(12, 2) NOT NULL CHECK (budget > 0),
		status VARCHAR(20) NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'assigned')),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	// Bids go away with their gig. Deleting an assigned gig is refused by
	// GigService, so a hired bid is never removed this way.
	`CREATE TABLE IF NOT EXISTS bids (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		gig_id UUID NOT NULL REFERENCES gigs(id) ON DELETE CASCADE,
		freelancer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		message TEXT NOT NULL CHECK (message <> ''),
		price NUMERIC(12, 2) NOT NULL CHECK (price > 0),
		status VARCHAR(20) NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'hired', 'rejected')),
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(gig_id, freelancer_id)
	)`,

	// At most one hired bid per gig, enforced by the database as well.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_bids_one_hired_per_gig ON bids(gig_id) WHERE status = 'hired'`,

	`CREATE INDEX IF NOT EXISTS idx_gigs_owner_id ON gigs(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_gigs_status ON gigs(status)`,
	`CREATE INDEX IF NOT EXISTS idx_bids_gig_id ON bids(gig_id)`,
	`CREATE INDEX IF NOT EXISTS idx_bids_freelancer_id ON bids(freelancer_id)`,

	`CREATE EXTENSION IF NOT EXISTS pg_trgm`,
	`CREATE INDEX IF NOT EXISTS idx_gigs_title_search ON gigs USING gin (title gin_trgm_ops)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
