package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoAddress is returned when adding a bookmark without an address.
var ErrNoAddress = errors.New("bookmark without an address")

// Bookmark is a saved viewer address.
type Bookmark struct {
	ID        int64
	Address   string
	Title     string
	Tags      []string
	CreatedAt time.Time
}

// BookmarkStore manages bookmarks persisted in SQLite.
type BookmarkStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewBookmarkStore creates a bookmark store using the given database.
func NewBookmarkStore(db *DB) *BookmarkStore {
	return &BookmarkStore{db: db.Conn(), now: time.Now}
}

// Add saves an address. It reports false if the address was already saved.
func (bs *BookmarkStore) Add(address, title string, tags ...string) (bool, error) {
	if address == "" {
		return false, ErrNoAddress
	}
	res, err := bs.db.Exec(
		`INSERT OR IGNORE INTO bookmarks (address, title, tags, created_at) VALUES (?, ?, ?, ?)`,
		address, title, strings.Join(tags, ","), bs.now().UnixNano(),
	)
	if err != nil {
		return false, fmt.Errorf("adding bookmark: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("adding bookmark: %w", err)
	}
	return n > 0, nil
}

// Remove deletes the bookmark for an address. It reports false if none existed.
func (bs *BookmarkStore) Remove(address string) (bool, error) {
	res, err := bs.db.Exec(`DELETE FROM bookmarks WHERE address = ?`, address)
	if err != nil {
		return false, fmt.Errorf("removing bookmark: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Toggle adds the address if it is not saved and removes it otherwise. It
// reports whether the address is saved afterwards.
func (bs *BookmarkStore) Toggle(address, title string) (bool, error) {
	removed, err := bs.Remove(address)
	if err != nil || removed {
		return false, err
	}
	return bs.Add(address, title)
}

// Has reports whether an address is bookmarked.
func (bs *BookmarkStore) Has(address string) bool {
	var count int
	err := bs.db.QueryRow(`SELECT COUNT(*) FROM bookmarks WHERE address = ?`, address).Scan(&count)
	return err == nil && count > 0
}

// List returns all bookmarks, newest first.
func (bs *BookmarkStore) List() ([]Bookmark, error) {
	rows, err := bs.db.Query(
		`SELECT id, address, title, tags, created_at FROM bookmarks ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing bookmarks: %w", err)
	}
	defer rows.Close()
	return scanBookmarks(rows)
}

// Search finds bookmarks whose title or address contains query.
func (bs *BookmarkStore) Search(query string) ([]Bookmark, error) {
	like := "%" + query + "%"
	rows, err := bs.db.Query(
		`SELECT id, address, title, tags, created_at FROM bookmarks
		 WHERE title LIKE ? OR address LIKE ?
		 ORDER BY created_at DESC, id DESC`,
		like, like,
	)
	if err != nil {
		return nil, fmt.Errorf("searching bookmarks: %w", err)
	}
	defer rows.Close()
	return scanBookmarks(rows)
}

// Count returns the number of bookmarks.
func (bs *BookmarkStore) Count() (int, error) {
	var count int
	if err := bs.db.QueryRow(`SELECT COUNT(*) FROM bookmarks`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting bookmarks: %w", err)
	}
	return count, nil
}

func scanBookmarks(rows *sql.Rows) ([]Bookmark, error) {
	var bookmarks []Bookmark
	for rows.Next() {
		var b Bookmark
		var tags string
		var created int64
		if err := rows.Scan(&b.ID, &b.Address, &b.Title, &tags, &created); err != nil {
			return nil, fmt.Errorf("scanning bookmark: %w", err)
		}
		if tags != "" {
			b.Tags = strings.Split(tags, ",")
		}
		b.CreatedAt = time.Unix(0, created)
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, rows.Err()
}
