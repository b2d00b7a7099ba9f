package repository_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mohammadpnp/jobposting-import/internal/infrastructure/db/migration"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

const (
	testCompanyID  = "2b0e3f64-5c2d-4f0a-8e5b-7a9c1d2e3f40"
	testUploaderID = "6f1c2a70-0b4e-4a53-9d7a-0d6c1f1e2a01"
)

// openTestDB migrates the database named by TEST_DATABASE_URL and clears the
// import tables. The test is skipped when the variable is unset.
func openTestDB(t *testing.T) (*gorm.DB, *pgxpool.Pool) {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	if err := migration.Run(dsn, zerolog.Nop()); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect db: %v", err)
	}

	cleanupSQL := `
    DELETE FROM job_postings;
    DELETE FROM import_jobs;
    DELETE FROM users;
    DELETE FROM companies;
    `
	if err := db.Exec(cleanupSQL).Error; err != nil {
		t.Fatalf("failed cleanup: %v", err)
	}

	if err := db.Exec(
		"INSERT INTO companies (id, name, region, is_active) VALUES (?, 'Talent Partners', 'IN-MH', TRUE)",
		testCompanyID,
	).Error; err != nil {
		t.Fatalf("failed to seed company: %v", err)
	}
	if err := db.Exec(
		"INSERT INTO users (id, company_id, email) VALUES (?, ?, 'recruiter@example.com')",
		testUploaderID, testCompanyID,
	).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		t.Fatalf("failed to create pgx pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return db, pool
}
