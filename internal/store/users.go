package store

import (
	"context"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"fujirock/internal/core"
)

// AddFavorite saves an artist for a user. Saving it again replaces the tags
// and notes.
func (s *Store) AddFavorite(ctx context.Context, fav core.Favorite) (*core.Favorite, error) {
	fav.CreatedAt = s.now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_favorites (user_id, artist_id, tags, notes, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id, artist_id) DO UPDATE SET
			tags  = excluded.tags,
			notes = excluded.notes`,
		fav.UserID, fav.ArtistID, marshalStrings(fav.Tags), fav.Notes, formatTime(fav.CreatedAt),
	)
	if err != nil {
		if isConstraint(err, sqlite3.ErrConstraintForeignKey) {
			return nil, fmt.Errorf("artist %s: %w", fav.ArtistID, core.ErrNotFound)
		}
		return nil, unavailable("adding favorite", err)
	}
	return &fav, nil
}

// RemoveFavorite deletes a saved artist. Removing an artist that was not
// saved returns core.ErrNotFound.
func (s *Store) RemoveFavorite(ctx context.Context, userID, artistID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM user_favorites WHERE user_id = ? AND artist_id = ?`, userID, artistID)
	if err != nil {
		return unavailable("removing favorite", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("removing favorite", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ListFavorites returns a user's saved artists, newest first.
func (s *Store) ListFavorites(ctx context.Context, userID string) ([]core.Favorite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT f.user_id, f.artist_id, f.tags, f.notes, f.created_at,
			a.id, a.name, a.normalized_name, a.description, a.image_url, a.genres,
			a.spotify_id, a.wiki_extract, a.wiki_url, a.is_festival_artist, a.created_at, a.updated_at
		FROM user_favorites f JOIN artists a ON a.id = f.artist_id
		WHERE f.user_id = ?
		ORDER BY f.created_at DESC, f.rowid DESC`, userID)
	if err != nil {
		return nil, unavailable("listing favorites", err)
	}
	defer rows.Close() //nolint:errcheck

	favorites := []core.Favorite{}
	for rows.Next() {
		var fav core.Favorite
		var tags, favCreated string
		var a core.Artist
		var genres, createdAt, updatedAt string
		var festival int

		if err := rows.Scan(
			&fav.UserID, &fav.ArtistID, &tags, &fav.Notes, &favCreated,
			&a.ID, &a.Name, &a.NormalizedName, &a.Description, &a.ImageURL, &genres,
			&a.SpotifyID, &a.WikiExtract, &a.WikiURL, &festival, &createdAt, &updatedAt,
		); err != nil {
			return nil, unavailable("scanning favorite row", err)
		}

		a.Genres = unmarshalStrings(genres)
		a.IsFestival = festival == 1
		a.CreatedAt = parseTime(createdAt)
		a.UpdatedAt = parseTime(updatedAt)

		fav.Tags = unmarshalStrings(tags)
		fav.CreatedAt = parseTime(favCreated)
		fav.Artist = &a
		favorites = append(favorites, fav)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterating favorite rows", err)
	}
	return favorites, nil
}

// RecordSearch appends a search to the history.
func (s *Store) RecordSearch(ctx context.Context, rec core.SearchRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO search_history (user_id, search_query, search_type, results_count, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.UserID, rec.Query, rec.SearchType, rec.ResultsCount, formatTime(rec.CreatedAt),
	)
	if err != nil {
		return unavailable("recording search", err)
	}
	return nil
}

// PopularSearches returns the most frequent non-empty queries recorded since
// the given time, most frequent first.
func (s *Store) PopularSearches(ctx context.Context, since time.Time, limit int) ([]core.PopularSearch, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT LOWER(TRIM(search_query)) AS q, COUNT(*) AS n
		FROM search_history
		WHERE created_at >= ? AND TRIM(search_query) != ''
		GROUP BY q
		ORDER BY n DESC, q ASC
		LIMIT ?`, formatTime(since), limit)
	if err != nil {
		return nil, unavailable("listing popular searches", err)
	}
	defer rows.Close() //nolint:errcheck

	popular := []core.PopularSearch{}
	for rows.Next() {
		var p core.PopularSearch
		if err := rows.Scan(&p.Query, &p.Count); err != nil {
			return nil, unavailable("scanning popular search row", err)
		}
		popular = append(popular, p)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterating popular search rows", err)
	}
	return popular, nil
}
