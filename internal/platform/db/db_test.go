package db

import (
	"context"
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doctor-appointments-api/db/migrations"
)

func TestNewPoolRejectsBadURL(t *testing.T) {
	_, err := NewPool(context.Background(), "postgres://%zz", 4, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse database url")
}

func TestMigrationsArePaired(t *testing.T) {
	names, err := fs.Glob(migrations.FS, "*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, n := range names {
		switch {
		case strings.HasSuffix(n, ".up.sql"):
			ups[strings.TrimSuffix(n, ".up.sql")] = true
		case strings.HasSuffix(n, ".down.sql"):
			downs[strings.TrimSuffix(n, ".down.sql")] = true
		default:
			t.Errorf("unexpected migration file %s", n)
		}
	}
	assert.Equal(t, ups, downs)
}

func TestInitMigrationHasSlotIndex(t *testing.T) {
	b, err := fs.ReadFile(migrations.FS, "000001_init.up.sql")
	require.NoError(t, err)
	sql := string(b)
	assert.Contains(t, sql, "appointments_doctor_slot_key")
	assert.Contains(t, sql, "users_email_key")
	assert.Contains(t, sql, "WHERE status <> 'CANCELADA'")
}
