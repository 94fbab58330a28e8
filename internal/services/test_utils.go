//go:build integration
// +build integration

package services

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"studyquiz/internal/config"
	"studyquiz/internal/database"
	"studyquiz/internal/observability"

	"github.com/stretchr/testify/require"
)

// SharedTestDBSetup provides a clean, isolated database for each integration test
func SharedTestDBSetup(t *testing.T) *sql.DB {
	observabilityLogger := observability.NewLogger(&config.OpenTelemetryConfig{EnableLogging: false})
	dbManager := database.NewManager(observabilityLogger)

	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Fatal("TEST_DATABASE_URL environment variable must be set for integration tests")
	}

	db, err := dbManager.InitDB(databaseURL)
	require.NoError(t, err)

	CleanupTestDatabase(db, t)

	return db
}

// CleanupTestDatabase truncates all application tables so each test starts
// from an empty store.
func CleanupTestDatabase(db *sql.DB, t *testing.T) {
	ctx := context.Background()
	_, err := db.ExecContext(ctx, `TRUNCATE quizzes, completed_courses, learner_stats, courses RESTART IDENTITY CASCADE`)
	require.NoError(t, err)
}
