//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// mirrorSchema is a test-only bootstrap of the registry mirror tables.
// In production the schema is owned externally; identifiers match the
// upstream camelCase names, so everything is quoted.
const mirrorSchema = `
CREATE TABLE IF NOT EXISTS "Person" (
	"personId" BIGINT PRIMARY KEY,
	"familyName" TEXT NOT NULL,
	"givenName" TEXT NOT NULL,
	"login" TEXT NOT NULL,
	"emailAddress" TEXT,
	"phoneNumber" TEXT
);

CREATE TABLE IF NOT EXISTS "Proposal" (
	"proposalId" BIGINT PRIMARY KEY,
	"personId" BIGINT NOT NULL,
	"proposalCode" TEXT NOT NULL,
	"proposalNumber" BIGINT NOT NULL,
	"title" TEXT NOT NULL DEFAULT '',
	"state" TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS "BLSession" (
	"sessionId" BIGINT PRIMARY KEY,
	"proposalId" BIGINT NOT NULL,
	"beamLineName" TEXT NOT NULL,
	"beamLineOperator" TEXT,
	"startDate" TIMESTAMP NOT NULL,
	"endDate" TIMESTAMP NOT NULL,
	"scheduled" BOOLEAN,
	"visit_number" INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS "Detector" (
	"detectorId" BIGINT PRIMARY KEY,
	"detectorType" TEXT NOT NULL DEFAULT '',
	"detectorManufacturer" TEXT NOT NULL DEFAULT '',
	"detectorModel" TEXT NOT NULL DEFAULT '',
	"detectorSerialNumber" TEXT NOT NULL DEFAULT '',
	"detectorPixelSizeHorizontal" DOUBLE PRECISION,
	"detectorPixelSizeVertical" DOUBLE PRECISION,
	"detectorDistanceMin" DOUBLE PRECISION,
	"detectorDistanceMax" DOUBLE PRECISION,
	"DETECTORMINRESOLUTION" DOUBLE PRECISION,
	"DETECTORMAXRESOLUTION" DOUBLE PRECISION,
	"trustedPixelValueRangeLower" DOUBLE PRECISION,
	"trustedPixelValueRangeUpper" DOUBLE PRECISION,
	"overload" DOUBLE PRECISION,
	"sensorThickness" DOUBLE PRECISION,
	"detectorRollMin" DOUBLE PRECISION,
	"detectorRollMax" DOUBLE PRECISION,
	"numberOfPixelsX" BIGINT,
	"numberOfPixelsY" BIGINT,
	"localName" TEXT
);
`

// PostgresContainer wraps a testcontainers Postgres instance with the mirror
// schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a new Postgres container and applies the
// mirror schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("beamgate"),
		tcpostgres.WithUsername("beamgate"),
		tcpostgres.WithPassword("beamgate"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres connection: %v", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}

	if _, err := db.ExecContext(ctx, mirrorSchema); err != nil {
		_ = db.Close()
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply mirror schema: %v", err)
	}

	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}
}

// TruncateTables empties the given tables. Use between tests for isolation.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	for _, table := range tables {
		if _, err := p.DB.ExecContext(ctx, fmt.Sprintf(`TRUNCATE TABLE %q CASCADE`, table)); err != nil {
			return fmt.Errorf("truncate %s: %w", table, err)
		}
	}
	return nil
}
