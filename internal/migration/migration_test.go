package migration

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/smallbiznis/invoicely/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunAutoMigratesSQLite(t *testing.T) {
	conn := db.NewTest(t)

	require.NoError(t, Run(conn))
	require.NoError(t, Run(conn), "second run is a no-op")

	for _, table := range []string{"users", "sessions", "invoices"} {
		assert.True(t, conn.Migrator().HasTable(table), table)
	}
	assert.True(t, conn.Migrator().HasColumn("invoices", "client_name"))
	assert.True(t, conn.Migrator().HasColumn("invoices", "invoice_number"))
}

func TestRunRejectsNilHandle(t *testing.T) {
	assert.Error(t, Run(nil))
	assert.Error(t, RunMigrations(nil))
}

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	src, err := newSource()
	require.NoError(t, err)
	defer src.Close()

	version, err := src.First()
	require.NoError(t, err)

	count := 0
	for {
		count++
		up, _, err := src.ReadUp(version)
		require.NoError(t, err, "up migration %d", version)
		_ = up.Close()
		down, _, err := src.ReadDown(version)
		require.NoError(t, err, "down migration %d", version)
		_ = down.Close()

		next, err := src.Next(version)
		if errors.Is(err, fs.ErrNotExist) {
			break
		}
		require.NoError(t, err)
		version = next
	}
	assert.Equal(t, 3, count)
}
