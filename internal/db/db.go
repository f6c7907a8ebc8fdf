package db

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aqar-dev/aqarhub/internal/config"
)

var Conn *pgxpool.Pool

// Init connects to Postgres and makes sure the schema is in place.
func Init(cfg *config.Config) {
	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		cfg.DB.User,
		cfg.DB.Password,
		cfg.DB.Host,
		cfg.DB.Port,
		cfg.DB.Name,
	)

	var err error
	Conn, err = pgxpool.New(context.Background(), dsn)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}

	if err = Conn.Ping(context.Background()); err != nil {
		log.Fatalf("Unable to ping database: %v\n", err)
	}

	log.Println("Connected to Postgres successfully")

	ensureUsersTable()
	ensureAdTypesTable()
	ensureListingsTable()
	ensureCommentsTable()
	ensureCommentReportsTable()
	ensurePaymentsTable()
	ensureFavoritesTable()
	ensureSavedSearchesTable()
	ensureNotificationsTable()

	seedAdTypes()
}

// ensureUsersTable creates the users table if not present
func ensureUsersTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            phone TEXT,
            role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin','owner','user')),
            profile_image TEXT,
            is_active BOOLEAN NOT NULL DEFAULT TRUE,
            reset_token TEXT,
            reset_token_expires_at TIMESTAMP WITH TIME ZONE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
    `)
	if err != nil {
		log.Printf("failed to create users table: %v", err)
	}
}

// ensureAdTypesTable creates the ad_types catalog
func ensureAdTypesTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS ad_types (
            id SERIAL PRIMARY KEY,
            name TEXT NOT NULL UNIQUE,
            price BIGINT NOT NULL DEFAULT 0,
            duration_days INTEGER NOT NULL DEFAULT 30
        );
    `)
	if err != nil {
		log.Printf("failed to create ad_types table: %v", err)
	}
}

// ensureListingsTable creates the listings table if not present
func ensureListingsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS listings (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            ad_type_id INTEGER NOT NULL REFERENCES ad_types(id),
            title TEXT NOT NULL,
            description TEXT,
            price BIGINT NOT NULL DEFAULT 0,
            address TEXT,
            city TEXT,
            bedrooms INTEGER,
            bathrooms INTEGER,
            area_sqm INTEGER,
            photos TEXT[] DEFAULT '{}',
            is_paid BOOLEAN NOT NULL DEFAULT FALSE,
            expiry_date TIMESTAMP WITH TIME ZONE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_listings_user ON listings(user_id);
        CREATE INDEX IF NOT EXISTS idx_listings_city ON listings(city);
        CREATE INDEX IF NOT EXISTS idx_listings_paid_expiry ON listings(is_paid, expiry_date);
    `)
	if err != nil {
		log.Printf("failed to create listings table: %v", err)
	}
}

// ensureCommentsTable creates the comments table if not present.
// Deletion is soft: deleted_at is set and the row is kept.
func ensureCommentsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS comments (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            listing_id UUID NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            content TEXT NOT NULL,
            rating INTEGER CHECK (rating BETWEEN 1 AND 5),
            is_approved BOOLEAN NOT NULL DEFAULT TRUE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            deleted_at TIMESTAMP WITH TIME ZONE NULL
        );
        CREATE INDEX IF NOT EXISTS idx_comments_listing ON comments(listing_id, created_at);
        CREATE INDEX IF NOT EXISTS idx_comments_pending ON comments(created_at) WHERE is_approved = FALSE AND deleted_at IS NULL;
    `)
	if err != nil {
		log.Printf("failed to create comments table: %v", err)
	}
}

// ensureCommentReportsTable creates the comment_reports table if not present
func ensureCommentReportsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS comment_reports (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            comment_id UUID NOT NULL REFERENCES comments(id) ON DELETE CASCADE,
            reporter_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            reason TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open','resolved')),
            resolved_by UUID NULL REFERENCES users(id) ON DELETE SET NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            resolved_at TIMESTAMP WITH TIME ZONE NULL
        );
        CREATE INDEX IF NOT EXISTS idx_comment_reports_comment ON comment_reports(comment_id);
        CREATE INDEX IF NOT EXISTS idx_comment_reports_status ON comment_reports(status);
    `)
	if err != nil {
		log.Printf("failed to create comment_reports table: %v", err)
	}
}

// ensurePaymentsTable creates the payments table if not present.
// Payment rows are append-only; there is no delete path.
func ensurePaymentsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS payments (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            listing_id UUID NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
            external_id TEXT NOT NULL,
            method TEXT NOT NULL CHECK (method IN ('stripe','vodafone_cash','bank_transfer','paypal')),
            amount BIGINT NOT NULL,
            currency TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending','completed')),
            receipt_key TEXT,
            notes TEXT,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_payments_user ON payments(user_id, created_at);
        CREATE INDEX IF NOT EXISTS idx_payments_listing ON payments(listing_id);
    `)
	if err != nil {
		log.Printf("failed to create payments table: %v", err)
	}
}

// ensureFavoritesTable creates the favorites table if not present
func ensureFavoritesTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS favorites (
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            listing_id UUID NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            PRIMARY KEY (user_id, listing_id)
        );
    `)
	if err != nil {
		log.Printf("failed to create favorites table: %v", err)
	}
}

// ensureSavedSearchesTable creates the saved_searches table if not present
func ensureSavedSearchesTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS saved_searches (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            name TEXT NOT NULL,
            params JSONB NOT NULL DEFAULT '{}',
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS idx_saved_searches_user ON saved_searches(user_id);
    `)
	if err != nil {
		log.Printf("failed to create saved_searches table: %v", err)
	}
}

// ensureNotificationsTable creates notifications table for in-app alerts
func ensureNotificationsTable() {
	ctx := context.Background()
	_, err := Conn.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS notifications (
            id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            type TEXT NOT NULL,
            title TEXT NOT NULL,
            body TEXT,
            reference UUID NULL,
            created_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP,
            read_at TIMESTAMP WITH TIME ZONE NULL
        );
        CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications(user_id, created_at);
        CREATE INDEX IF NOT EXISTS idx_notifications_user_unread ON notifications(user_id) WHERE read_at IS NULL;
    `)
	if err != nil {
		log.Printf("failed to create notifications table: %v", err)
	}
}

// seedAdTypes inserts the static ad type catalog when empty
func seedAdTypes() {
	ctx := context.Background()
	var count int
	if err := Conn.QueryRow(ctx, `SELECT COUNT(*) FROM ad_types`).Scan(&count); err != nil {
		log.Printf("failed to count ad_types: %v", err)
		return
	}
	if count > 0 {
		return
	}
	_, err := Conn.Exec(ctx, `
        INSERT INTO ad_types (name, price, duration_days) VALUES
            ('free', 0, 14),
            ('standard', 50, 30),
            ('featured', 120, 60)
        ON CONFLICT (name) DO NOTHING
    `)
	if err != nil {
		log.Printf("failed to seed ad_types: %v", err)
		return
	}
	log.Printf("ad_types catalog seeded")
}
