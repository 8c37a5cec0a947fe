package database

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/route-network-api/pkg/config"
)

func TestMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		default:
			t.Errorf("unexpected file %s", name)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestMigrationsCreateQueriedTables(t *testing.T) {
	raw, err := fs.ReadFile(migrationFS, "migrations/000001_route_network.up.sql")
	require.NoError(t, err)
	schema := string(raw)

	for _, table := range []string{
		"airports", "runways", "aircraft", "aircraft_dynamic_info", "aircraft_device_lives",
		"employees", "employee_logs", "route_templates", "flights", "flight_employees", "schedule_config",
	} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
}

func TestDSN(t *testing.T) {
	assert.Equal(t, "host=db port=5433 user=ops password=secret dbname=flights sslmode=require",
		DSN(config.DatabaseConfig{Host: "db", Port: 5433, User: "ops", Password: "secret", Name: "flights", SSLMode: "require"}))
}
