package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) *BookmarkStore {
	t.Helper()
	db, err := OpenDB(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	bs := NewBookmarkStore(db)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bs.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return bs
}

func TestBookmarkStore_AddListRemove(t *testing.T) {
	bs := newStore(t)

	added, err := bs.Add("iiif://viewer/#aor", "Collection: aor")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = bs.Add("iiif://viewer/#aor/m1/p1/image", "Page p1 of m1 (aor)", "livy", "annotated")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = bs.Add("iiif://viewer/#aor", "again")
	require.NoError(t, err)
	assert.False(t, added, "duplicate address")

	list, err := bs.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "iiif://viewer/#aor/m1/p1/image", list[0].Address, "newest first")
	assert.Equal(t, []string{"livy", "annotated"}, list[0].Tags)
	assert.Equal(t, "Collection: aor", list[1].Title)
	assert.True(t, list[0].CreatedAt.After(list[1].CreatedAt))

	assert.True(t, bs.Has("iiif://viewer/#aor"))
	removed, err := bs.Remove("iiif://viewer/#aor")
	require.NoError(t, err)
	assert.True(t, removed)
	assert.False(t, bs.Has("iiif://viewer/#aor"))

	n, err := bs.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBookmarkStore_Search(t *testing.T) {
	bs := newStore(t)
	_, err := bs.Add("iiif://viewer/#aor", "Collection: aor")
	require.NoError(t, err)
	_, err = bs.Add("iiif://viewer/#rose/r1/thumb", "Thumbnails: r1 (rose)")
	require.NoError(t, err)

	got, err := bs.Search("rose")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "iiif://viewer/#rose/r1/thumb", got[0].Address)

	got, err = bs.Search("nothing")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBookmarkStore_Toggle(t *testing.T) {
	bs := newStore(t)

	saved, err := bs.Toggle("iiif://viewer/#aor", "aor")
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = bs.Toggle("iiif://viewer/#aor", "aor")
	require.NoError(t, err)
	assert.False(t, saved)
	assert.False(t, bs.Has("iiif://viewer/#aor"))
}

func TestBookmarkStore_AddRequiresAddress(t *testing.T) {
	bs := newStore(t)
	_, err := bs.Add("", "nothing")
	assert.ErrorIs(t, err, ErrNoAddress)
}

func TestOpenDB_Reopen(t *testing.T) {
	dir := t.TempDir()
	db, err := OpenDB(dir)
	require.NoError(t, err)
	_, err = NewBookmarkStore(db).Add("iiif://viewer/#aor", "aor")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = OpenDB(dir)
	require.NoError(t, err)
	defer db.Close()
	assert.True(t, NewBookmarkStore(db).Has("iiif://viewer/#aor"))
	assert.Contains(t, db.Path(), "iiifnav.db")
}
