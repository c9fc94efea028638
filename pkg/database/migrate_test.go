package database

import (
	"io"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsStartAtInitSchema(t *testing.T) {
	source, err := iofs.New(migrationsFS, "migrations")
	require.NoError(t, err)
	defer source.Close()

	first, err := source.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	up, identifier, err := source.ReadUp(first)
	require.NoError(t, err)
	defer up.Close()
	assert.Equal(t, "init_schema", identifier)

	body, err := io.ReadAll(up)
	require.NoError(t, err)
	for _, table := range []string{"auth_identities", "refresh_tokens", "users", "students", "faculty", "courses", "enrollments", "attendance", "grades", "announcements", "activity_logs"} {
		assert.Contains(t, string(body), "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
	assert.True(t, strings.Contains(string(body), "UNIQUE (student_id, course_id, date)"))

	down, _, err := source.ReadDown(first)
	require.NoError(t, err)
	down.Close()
}
