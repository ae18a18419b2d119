package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"fujirock/internal/core"
	"fujirock/pkg/fuzzy"
)

const artistColumns = `id, name, normalized_name, description, image_url, genres,
	spotify_id, wiki_extract, wiki_url, is_festival_artist, created_at, updated_at`

// ListArtists returns every artist in insertion order.
func (s *Store) ListArtists(ctx context.Context) ([]core.Artist, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+artistColumns+` FROM artists ORDER BY created_at ASC, rowid ASC`)
	if err != nil {
		return nil, unavailable("listing artists", err)
	}
	return collectArtists(rows)
}

// ListFestivalArtists returns a page of festival artists ordered by name and
// the total number of festival artists.
func (s *Store) ListFestivalArtists(ctx context.Context, offset, limit int) ([]core.Artist, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM artists WHERE is_festival_artist = 1`).Scan(&total); err != nil {
		return nil, 0, unavailable("counting festival artists", err)
	}

	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+artistColumns+` FROM artists WHERE is_festival_artist = 1
		ORDER BY name COLLATE NOCASE ASC LIMIT ? OFFSET ?`, limit, max(offset, 0))
	if err != nil {
		return nil, 0, unavailable("listing festival artists", err)
	}

	artists, err := collectArtists(rows)
	if err != nil {
		return nil, 0, err
	}
	return artists, total, nil
}

// CountArtists returns the number of stored artists.
func (s *Store) CountArtists(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM artists`).Scan(&n); err != nil {
		return 0, unavailable("counting artists", err)
	}
	return n, nil
}

// GetArtistByName returns the artist whose name matches exactly, or
// core.ErrNotFound.
func (s *Store) GetArtistByName(ctx context.Context, name string) (*core.Artist, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+artistColumns+` FROM artists WHERE name = ? ORDER BY created_at ASC LIMIT 1`, name)
	return scanOne(row, "getting artist by name")
}

// GetArtistByID returns the artist with the given id, or core.ErrNotFound.
func (s *Store) GetArtistByID(ctx context.Context, id string) (*core.Artist, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+artistColumns+` FROM artists WHERE id = ?`, id)
	return scanOne(row, "getting artist by id")
}

// InsertArtist stores a new artist. An artist whose normalized name is
// already taken is rejected with core.ErrDuplicateName.
func (s *Store) InsertArtist(ctx context.Context, in core.NewArtist) (*core.Artist, error) {
	now := s.now()
	a := &core.Artist{
		ID:             uuid.New().String(),
		Name:           in.Name,
		NormalizedName: fuzzy.Normalize(in.Name),
		Description:    in.Description,
		ImageURL:       in.ImageURL,
		Genres:         in.Genres,
		IsFestival:     in.IsFestival,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO artists (
			id, name, normalized_name, description, image_url, genres,
			spotify_id, wiki_extract, wiki_url, is_festival_artist, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, '', '', '', ?, ?, ?)
		ON CONFLICT (normalized_name) DO NOTHING`,
		a.ID, a.Name, a.NormalizedName, a.Description, a.ImageURL, marshalStrings(a.Genres),
		boolToInt(a.IsFestival), formatTime(now), formatTime(now),
	)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintUnique) {
			return nil, fmt.Errorf("inserting artist %q: %w", in.Name, core.ErrDuplicateName)
		}
		return nil, unavailable("inserting artist", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, unavailable("inserting artist", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("inserting artist %q: %w", in.Name, core.ErrDuplicateName)
	}

	return a, nil
}

// UpdateArtistEnrichment merges externally sourced fields into an artist.
// Empty fields keep their stored value.
func (s *Store) UpdateArtistEnrichment(ctx context.Context, id string, e core.ArtistEnrichment) error {
	var genres any
	if len(e.Genres) > 0 {
		genres = marshalStrings(e.Genres)
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE artists SET
			description  = COALESCE(NULLIF(?, ''), description),
			image_url    = COALESCE(NULLIF(?, ''), image_url),
			genres       = COALESCE(?, genres),
			spotify_id   = COALESCE(NULLIF(?, ''), spotify_id),
			wiki_extract = COALESCE(NULLIF(?, ''), wiki_extract),
			wiki_url     = COALESCE(NULLIF(?, ''), wiki_url),
			updated_at   = ?
		WHERE id = ?`,
		e.Description, e.ImageURL, genres, e.SpotifyID, e.WikiExtract, e.WikiURL,
		formatTime(s.now()), id,
	)
	if err != nil {
		return unavailable("updating artist enrichment", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("updating artist enrichment", err)
	}
	if n == 0 {
		return fmt.Errorf("artist %s: %w", id, core.ErrNotFound)
	}
	return nil
}

func scanOne(row *sql.Row, op string) (*core.Artist, error) {
	a, err := scanArtist(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, unavailable(op, err)
	}
	return a, nil
}

func collectArtists(rows *sql.Rows) ([]core.Artist, error) {
	defer rows.Close() //nolint:errcheck

	artists := []core.Artist{}
	for rows.Next() {
		a, err := scanArtist(rows)
		if err != nil {
			return nil, unavailable("scanning artist row", err)
		}
		artists = append(artists, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterating artist rows", err)
	}
	return artists, nil
}

func scanArtist(row interface{ Scan(...any) error }) (*core.Artist, error) {
	var a core.Artist
	var genres, createdAt, updatedAt string
	var festival int

	err := row.Scan(
		&a.ID, &a.Name, &a.NormalizedName, &a.Description, &a.ImageURL, &genres,
		&a.SpotifyID, &a.WikiExtract, &a.WikiURL, &festival, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.Genres = unmarshalStrings(genres)
	a.IsFestival = festival == 1
	a.CreatedAt = parseTime(createdAt)
	a.UpdatedAt = parseTime(updatedAt)
	return &a, nil
}
