package dbinit

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrationFilesAreSortedSQL(t *testing.T) {
	t.Parallel()

	files, err := migrationFiles()
	require.NoError(t, err)
	require.NotEmpty(t, files)
	require.True(t, sort.StringsAreSorted(files))
	for _, f := range files {
		require.Regexp(t, `^\d{4}_.+\.sql$`, f)
	}
}

func TestReplaceDBName(t *testing.T) {
	t.Parallel()

	out, err := replaceDBName("postgres://app:pw@db:5432/postgres?sslmode=disable", "inkwell")
	require.NoError(t, err)
	require.Equal(t, "postgres://app:pw@db:5432/inkwell?sslmode=disable", out)

	_, err = replaceDBName("://bad", "inkwell")
	require.Error(t, err)
}
