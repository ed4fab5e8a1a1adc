package storage

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenDB_AppliesEveryStepOnce(t *testing.T) {
	dir := t.TempDir()
	db, err := OpenDB(dir)
	require.NoError(t, err)
	v, err := db.Version()
	require.NoError(t, err)
	assert.Equal(t, len(migrations), v)
	require.NoError(t, db.Close())

	// A second open must not try to create the table again.
	db, err = OpenDB(dir)
	require.NoError(t, err)
	defer db.Close()
	v, err = db.Version()
	require.NoError(t, err)
	assert.Equal(t, len(migrations), v)
}

func TestOpenDB_RejectsNewerSchema(t *testing.T) {
	dir := t.TempDir()
	db, err := OpenDB(dir)
	require.NoError(t, err)
	_, err = db.Conn().Exec(fmt.Sprintf(`PRAGMA user_version = %d`, len(migrations)+1))
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = OpenDB(dir)
	assert.ErrorContains(t, err, "newer than this build")
}
