package pubcontent

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eringen/pubcontent/schema"
)

const postColumns = `slug, id, path, title, description, pub_date, updated_date, hero_image, social_image, tags, body, checksum`

// Store wraps a SQLite database holding the validated collection.
type Store struct {
	db *sql.DB
}

// SyncStats reports what Sync changed.
type SyncStats struct {
	Saved   int
	Removed int
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the API read while an index run writes; the busy timeout makes
	// writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// schemaVersion is stored in PRAGMA user_version. The table only holds
// derived data, so an older layout is dropped and rebuilt by the next sync.
const schemaVersion = 2

func (s *Store) ensureSchema() error {
	var version int
	if err := s.db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return err
	}
	if version != schemaVersion {
		if _, err := s.db.Exec(`DROP TABLE IF EXISTS posts`); err != nil {
			return err
		}
	}
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS posts (
    slug TEXT PRIMARY KEY,
    id TEXT NOT NULL,
    path TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL,
    pub_date INTEGER NOT NULL,
    updated_date INTEGER,
    hero_image TEXT NOT NULL DEFAULT '',
    social_image TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL,
    tag_index TEXT NOT NULL,
    body TEXT NOT NULL,
    checksum TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_posts_pub_date ON posts(pub_date);
`)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, schemaVersion))
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SavePost upserts an entry keyed by slug.
func (s *Store) SavePost(ctx context.Context, e Entry) error {
	return savePost(ctx, s.db, e)
}

func savePost(ctx context.Context, db execer, e Entry) error {
	tags, err := json.Marshal(e.Data.Tags)
	if err != nil {
		return err
	}
	hero, err := encodeAsset(e.Data.HeroImage)
	if err != nil {
		return err
	}
	social, err := encodeAsset(e.Data.SocialImage)
	if err != nil {
		return err
	}
	// Dates are Unix milliseconds: they cover every accepted year and
	// sort numerically.
	var updated sql.NullInt64
	if t, ok := e.Data.UpdatedDate.Get(); ok {
		updated = sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
	}
	_, err = db.ExecContext(ctx, `INSERT OR REPLACE INTO posts (`+postColumns+`, tag_index) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Slug, e.ID, e.Path, e.Data.Title, e.Data.Description,
		e.Data.PubDate.UnixMilli(), updated, hero, social,
		string(tags), e.Body, e.Checksum, JoinTags(e.Data.Tags))
	return err
}

// Sync makes the table mirror entries: every entry is upserted and rows whose
// slug is not in entries are removed, in one transaction.
func (s *Store) Sync(ctx context.Context, entries []Entry) (SyncStats, error) {
	var stats SyncStats
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, err
	}
	defer tx.Rollback()

	keep := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if err := savePost(ctx, tx, e); err != nil {
			return stats, fmt.Errorf("save %s: %w", e.Slug, err)
		}
		keep[e.Slug] = struct{}{}
		stats.Saved++
	}

	rows, err := tx.QueryContext(ctx, `SELECT slug FROM posts`)
	if err != nil {
		return stats, err
	}
	var stale []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			rows.Close()
			return stats, err
		}
		if _, ok := keep[slug]; !ok {
			stale = append(stale, slug)
		}
	}
	if err := rows.Close(); err != nil {
		return stats, err
	}
	for _, slug := range stale {
		if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE slug = ?`, slug); err != nil {
			return stats, err
		}
		stats.Removed++
	}
	return stats, tx.Commit()
}

// ListPosts returns all posts ordered by pubDate descending. If tag is
// non-empty, results are filtered to posts carrying that tag.
func (s *Store) ListPosts(ctx context.Context, tag string) ([]Entry, error) {
	var rows *sql.Rows
	var err error
	if tag == "" {
		rows, err = s.db.QueryContext(ctx, `SELECT `+postColumns+` FROM posts ORDER BY pub_date DESC, slug`)
	} else {
		rows, err = s.db.QueryContext(ctx, `SELECT `+postColumns+` FROM posts WHERE instr(tag_index, ',' || ? || ',') > 0 ORDER BY pub_date DESC, slug`, normalizeTag(tag))
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []Entry{}
	for rows.Next() {
		e, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, e)
	}
	return posts, rows.Err()
}

// ListTags returns a sorted, deduplicated slice of all normalized tags.
func (s *Store) ListTags(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT tag_index FROM posts`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var tags string
		if err := rows.Scan(&tags); err != nil {
			return nil, err
		}
		for _, t := range ParseTags(tags) {
			set[t] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	result := make([]string, 0, len(set))
	for t := range set {
		result = append(result, t)
	}
	sort.Strings(result)
	return result, nil
}

// GetPost returns a single post by slug, or ErrNotFound.
func (s *Store) GetPost(ctx context.Context, slug string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = ?`, slug)
	return scanPost(row)
}

// DeletePost removes a post by slug.
func (s *Store) DeletePost(ctx context.Context, slug string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE slug = ?`, slug)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (Entry, error) {
	var (
		e                       Entry
		pubDate                 int64
		updated                 sql.NullInt64
		hero, social, tags, sum string
	)
	if err := row.Scan(&e.Slug, &e.ID, &e.Path, &e.Data.Title, &e.Data.Description,
		&pubDate, &updated, &hero, &social, &tags, &e.Body, &sum); err != nil {
		return Entry{}, err
	}
	e.Checksum = sum

	e.Data.PubDate = time.UnixMilli(pubDate).UTC()
	if updated.Valid {
		e.Data.UpdatedDate = schema.Some(time.UnixMilli(updated.Int64).UTC())
	}
	var err error
	if e.Data.HeroImage, err = decodeAsset(hero); err != nil {
		return Entry{}, fmt.Errorf("post %s: hero_image: %w", e.Slug, err)
	}
	if e.Data.SocialImage, err = decodeAsset(social); err != nil {
		return Entry{}, fmt.Errorf("post %s: social_image: %w", e.Slug, err)
	}
	if err := json.Unmarshal([]byte(tags), &e.Data.Tags); err != nil {
		return Entry{}, fmt.Errorf("post %s: tags: %w", e.Slug, err)
	}
	return e, nil
}

func encodeAsset(o schema.Optional[schema.AssetRef]) (string, error) {
	ref, ok := o.Get()
	if !ok {
		return "", nil
	}
	b, err := json.Marshal(ref)
	return string(b), err
}

func decodeAsset(s string) (schema.Optional[schema.AssetRef], error) {
	if strings.TrimSpace(s) == "" {
		return schema.None[schema.AssetRef](), nil
	}
	var ref schema.AssetRef
	if err := json.Unmarshal([]byte(s), &ref); err != nil {
		return schema.None[schema.AssetRef](), err
	}
	return schema.Some(ref), nil
}
