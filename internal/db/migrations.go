package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE EXTENSION IF NOT EXISTS "pgcrypto";`,
	`DO $$
	BEGIN
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'candidate_tier') THEN
			CREATE TYPE candidate_tier AS ENUM ('EVALUATED', 'CV_ONLY');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'order_status') THEN
			CREATE TYPE order_status AS ENUM ('DRAFT', 'SUBMITTED', 'APPROVED', 'PAID', 'DELIVERED', 'CANCELLED');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'catalogue_status') THEN
			CREATE TYPE catalogue_status AS ENUM ('BROUILLON', 'GENERE', 'ENVOYE', 'ACCEPTE', 'REFUSE');
		END IF;
		IF NOT EXISTS (SELECT 1 FROM pg_type WHERE typname = 'candidate_status') THEN
			CREATE TYPE candidate_status AS ENUM ('ACTIVE', 'ARCHIVED', 'DELIVERED');
		END IF;
	END
	$$;`,
	`CREATE TABLE IF NOT EXISTS candidates (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		first_name VARCHAR(100) NOT NULL,
		last_name VARCHAR(100) NOT NULL,
		email VARCHAR(200),
		phone VARCHAR(40),
		city VARCHAR(100) NOT NULL,
		province VARCHAR(10) NOT NULL,
		summary TEXT,
		experience TEXT,
		situational_answers TEXT,
		cv_url TEXT,
		video_url TEXT,
		has_evaluation BOOLEAN NOT NULL DEFAULT FALSE,
		status candidate_status NOT NULL DEFAULT 'ACTIVE',
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_candidates_city_province ON candidates (city, province) WHERE status = 'ACTIVE';`,
	`CREATE TABLE IF NOT EXISTS pricing_entries (
		city VARCHAR(100) NOT NULL,
		province VARCHAR(10) NOT NULL,
		evaluated_price NUMERIC(12,2) NOT NULL,
		cv_only_price NUMERIC(12,2) NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (city, province)
	);`,
	`CREATE TABLE IF NOT EXISTS orders (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		client_id UUID NOT NULL,
		status order_status NOT NULL DEFAULT 'DRAFT',
		total_amount NUMERIC(12,2) NOT NULL DEFAULT 0,
		admin_notes TEXT NOT NULL DEFAULT '',
		version INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE INDEX IF NOT EXISTS idx_orders_client_id ON orders (client_id);`,
	`CREATE INDEX IF NOT EXISTS idx_orders_status ON orders (status);`,
	`CREATE TABLE IF NOT EXISTS order_lines (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		city VARCHAR(100) NOT NULL,
		province VARCHAR(10) NOT NULL,
		tier candidate_tier NOT NULL,
		quantity INTEGER NOT NULL CHECK (quantity > 0),
		unit_price NUMERIC(12,2) NOT NULL,
		total_price NUMERIC(12,2) NOT NULL,
		notes TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE INDEX IF NOT EXISTS idx_order_lines_order_id ON order_lines (order_id);`,
	`CREATE INDEX IF NOT EXISTS idx_order_lines_key ON order_lines (city, province, tier);`,
	`CREATE TABLE IF NOT EXISTS catalogues (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		title VARCHAR(200) NOT NULL,
		client_id UUID NOT NULL,
		order_id UUID REFERENCES orders(id),
		custom_message TEXT NOT NULL DEFAULT '',
		inclusion_config JSONB NOT NULL DEFAULT '{}',
		status catalogue_status NOT NULL DEFAULT 'GENERE',
		is_content_restricted BOOLEAN NOT NULL DEFAULT FALSE,
		share_token VARCHAR(64),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_catalogues_share_token ON catalogues (share_token) WHERE share_token IS NOT NULL;`,
	`CREATE TABLE IF NOT EXISTS catalogue_items (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		catalogue_id UUID NOT NULL REFERENCES catalogues(id) ON DELETE CASCADE,
		candidate_id UUID NOT NULL,
		full_name VARCHAR(200) NOT NULL,
		city VARCHAR(100) NOT NULL,
		province VARCHAR(10) NOT NULL,
		contact_email VARCHAR(200) NOT NULL DEFAULT '',
		contact_phone VARCHAR(40) NOT NULL DEFAULT '',
		summary TEXT NOT NULL DEFAULT '',
		experience TEXT NOT NULL DEFAULT '',
		situational_answers TEXT NOT NULL DEFAULT '',
		cv_url TEXT NOT NULL DEFAULT '',
		video_url TEXT NOT NULL DEFAULT ''
	);`,
	`CREATE INDEX IF NOT EXISTS idx_catalogue_items_catalogue_id ON catalogue_items (catalogue_id);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
