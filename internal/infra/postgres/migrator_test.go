package postgres_test

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fazenda-socios/portal-bfa-go/internal/infra/postgres"
	"github.com/fazenda-socios/portal-bfa-go/migrations"
)

func TestSplitStatements_KeepsFunctionBodies(t *testing.T) {
	script := `-- events
CREATE TABLE events (id uuid primary key);

CREATE OR REPLACE FUNCTION delete_old_events() RETURNS void
LANGUAGE plpgsql AS $$
BEGIN
  DELETE FROM events WHERE start_date < current_date;
END;
$$;

-- trailing comment
`
	stmts := postgres.SplitStatements(script)
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "CREATE TABLE events")
	assert.Contains(t, stmts[1], "DELETE FROM events")
	assert.Contains(t, stmts[1], "END;")
}

func TestPending_SortsAndSkipsApplied(t *testing.T) {
	files := fstest.MapFS{
		"002_b.sql":  {Data: []byte("select 2;")},
		"001_a.sql":  {Data: []byte("select 1;")},
		"003_c.sql":  {Data: []byte("select 3;")},
		"README.txt": {Data: []byte("x")},
	}

	names, err := postgres.Pending(files, map[string]bool{"002_b.sql": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"001_a.sql", "003_c.sql"}, names)
}

func TestEmbeddedMigrations_Split(t *testing.T) {
	names, err := postgres.Pending(migrations.FS, nil)
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for _, name := range names {
		content, err := migrations.FS.ReadFile(name)
		require.NoError(t, err)
		assert.NotEmpty(t, postgres.SplitStatements(string(content)), name)
	}
}
