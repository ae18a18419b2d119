package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"fujirock/internal/core"
)

const songColumns = `id, artist_id, title, album_name, duration_ms, preview_url,
	spotify_id, itunes_url, created_at`

// UpsertSong stores a song keyed by artist and title. On conflict, non-empty
// incoming fields replace stored ones.
func (s *Store) UpsertSong(ctx context.Context, song core.Song) (*core.Song, error) {
	if song.ID == "" {
		song.ID = uuid.New().String()
	}
	song.CreatedAt = s.now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO songs (`+songColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (artist_id, title) DO UPDATE SET
			album_name  = COALESCE(NULLIF(excluded.album_name, ''), songs.album_name),
			duration_ms = CASE WHEN excluded.duration_ms > 0 THEN excluded.duration_ms ELSE songs.duration_ms END,
			preview_url = COALESCE(NULLIF(excluded.preview_url, ''), songs.preview_url),
			spotify_id  = COALESCE(NULLIF(excluded.spotify_id, ''), songs.spotify_id),
			itunes_url  = COALESCE(NULLIF(excluded.itunes_url, ''), songs.itunes_url)`,
		song.ID, song.ArtistID, song.Title, song.AlbumName, song.Duration.Milliseconds(),
		song.PreviewURL, song.SpotifyID, song.ITunesURL, formatTime(song.CreatedAt),
	)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
			return nil, fmt.Errorf("artist %s: %w", song.ArtistID, core.ErrNotFound)
		}
		return nil, unavailable("upserting song", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+songColumns+` FROM songs WHERE artist_id = ? AND title = ?`, song.ArtistID, song.Title)
	stored, err := scanSong(row)
	if err != nil {
		return nil, unavailable("reading upserted song", err)
	}
	return stored, nil
}

// ListSongsByArtist returns the songs of an artist in insertion order.
func (s *Store) ListSongsByArtist(ctx context.Context, artistID string) ([]core.Song, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+songColumns+` FROM songs WHERE artist_id = ? ORDER BY created_at ASC, rowid ASC`, artistID)
	if err != nil {
		return nil, unavailable("listing songs", err)
	}
	defer rows.Close() //nolint:errcheck

	songs := []core.Song{}
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, unavailable("scanning song row", err)
		}
		songs = append(songs, *song)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterating song rows", err)
	}
	return songs, nil
}

func scanSong(row interface{ Scan(...any) error }) (*core.Song, error) {
	var song core.Song
	var durationMs int64
	var createdAt string

	err := row.Scan(
		&song.ID, &song.ArtistID, &song.Title, &song.AlbumName, &durationMs,
		&song.PreviewURL, &song.SpotifyID, &song.ITunesURL, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	song.Duration = time.Duration(durationMs) * time.Millisecond
	song.CreatedAt = parseTime(createdAt)
	return &song, nil
}

// InsertAIDescription stores a generated description.
func (s *Store) InsertAIDescription(ctx context.Context, d core.AIDescription) (*core.AIDescription, error) {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Language == "" {
		d.Language = core.DefaultLanguage
	}
	d.CreatedAt = s.now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ai_descriptions (id, artist_id, content, language, provider, model, tokens_used, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.ArtistID, d.Content, d.Language, d.Provider, d.Model, d.TokensUsed, formatTime(d.CreatedAt),
	)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
			return nil, fmt.Errorf("artist %s: %w", d.ArtistID, core.ErrNotFound)
		}
		return nil, unavailable("inserting ai description", err)
	}
	return &d, nil
}

// LatestAIDescription returns the newest description of an artist in the
// given language, or core.ErrNotFound.
func (s *Store) LatestAIDescription(ctx context.Context, artistID, language string) (*core.AIDescription, error) {
	var d core.AIDescription
	var createdAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, artist_id, content, language, provider, model, tokens_used, created_at
		FROM ai_descriptions WHERE artist_id = ? AND language = ?
		ORDER BY created_at DESC, rowid DESC LIMIT 1`, artistID, language,
	).Scan(&d.ID, &d.ArtistID, &d.Content, &d.Language, &d.Provider, &d.Model, &d.TokensUsed, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, unavailable("getting ai description", err)
	}

	d.CreatedAt = parseTime(createdAt)
	return &d, nil
}
