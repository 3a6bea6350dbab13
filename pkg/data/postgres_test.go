package data

import (
	"context"
	"testing"

	"github.com/mchmarny/nanotox/pkg/toxicity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const postgresImage = "postgres:16-alpine"

func setupPostgresDSN(t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, postgresImage,
		postgres.WithDatabase("nanotox"),
		postgres.WithUsername("nanotox"),
		postgres.WithPassword("nanotox"),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err)

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

func TestPostgres_SaveAndLoadTable(t *testing.T) {
	dsn := setupPostgresDSN(t)
	require.Equal(t, driverPostgres, DriverName(dsn))

	require.NoError(t, Init(dsn))
	require.NoError(t, Init(dsn))

	db, err := GetDB(dsn)
	require.NoError(t, err)
	defer db.Close()

	_, err = SaveTable(db, toxicity.Builtin())
	require.NoError(t, err)

	tbl, err := LoadTable(db, "postgres")
	require.NoError(t, err)
	assertSameTable(t, toxicity.Builtin(), tbl)

	info, err := GetTableInfo(db)
	require.NoError(t, err)
	assert.Equal(t, toxicity.BuiltinSource, info.Source)
	assert.Equal(t, int64(30), info.Entries)
}
