//go:build database

package integration

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestSrcmeasureWithMySQL records run history in a MySQL backend.
func TestSrcmeasureWithMySQL(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "mysql:8",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_ROOT_PASSWORD": "secret123",
			"MYSQL_DATABASE":      "srcmeasure",
		},
		WaitingFor: wait.ForLog("port: 3306  MySQL Community Server").WithStartupTimeout(60 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = mysqlC.Terminate(ctx) }()

	host, err := mysqlC.Host(ctx)
	require.NoError(t, err)
	port, err := mysqlC.MappedPort(ctx, "3306")
	require.NoError(t, err)

	connStr := fmt.Sprintf("root:secret123@tcp(%s:%s)/srcmeasure", host, port.Port())
	runHistoryScenario(t, "mysql", connStr)
}

// TestSrcmeasureWithPostgres records run history in a PostgreSQL backend.
func TestSrcmeasureWithPostgres(t *testing.T) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:18-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_HOST_AUTH_METHOD": "trust",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	pgC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	require.NoError(t, err)
	port, err := pgC.MappedPort(ctx, "5432")
	require.NoError(t, err)

	connStr := fmt.Sprintf("host=%s port=%s user=postgres dbname=postgres sslmode=disable", host, port.Port())
	runHistoryScenario(t, "postgresql", connStr)
}

// runHistoryScenario clears, migrates, measures twice, then checks status and export.
func runHistoryScenario(t *testing.T, backend, connStr string) {
	t.Setenv("SRCMEASURE_HISTORY_BACKEND", backend)
	t.Setenv("SRCMEASURE_HISTORY_DB_CONNECT", connStr)

	ws := newWorkspace(t)

	_, err := runSrcmeasure(t, ws.Dir, ws.args("history", "clear")...)
	require.NoError(t, err)

	output, err := runSrcmeasure(t, ws.Dir, ws.args("history", "migrate")...)
	require.NoError(t, err)
	assert.Contains(t, output, "Successfully migrated")

	for range 2 {
		_, err = runSrcmeasure(t, ws.Dir, ws.args("systems/demo.morph", "--output-file", filepath.Join(t.TempDir(), "results.csv"))...)
		require.NoError(t, err)
	}

	output, err = runSrcmeasure(t, ws.Dir, ws.args("history", "status")...)
	require.NoError(t, err)
	assert.Contains(t, output, "Total Runs: 2")

	exportBase := filepath.Join(t.TempDir(), "history")
	_, err = runSrcmeasure(t, ws.Dir, ws.args("history", "export", "--output-file", exportBase)...)
	require.NoError(t, err)
	for _, suffix := range []string{".runs.parquet", ".metrics.parquet"} {
		info, err := os.Stat(exportBase + suffix)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	_, err = runSrcmeasure(t, ws.Dir, ws.args("history", "clear")...)
	require.NoError(t, err)
}
