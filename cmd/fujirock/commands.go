package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"fujirock/internal/preview"
	"fujirock/pkg/fuzzy"
)

const commandTimeout = 30 * time.Second

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and print the schema version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withCore(cmd, func(ctx context.Context, svcs *services) error {
			v, err := svcs.store.SchemaVersion()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (%s)\n", v, config.Store.Path)
			return nil
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Rank stored artists against a query",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		offset, _ := cmd.Flags().GetInt("offset")
		limit, _ := cmd.Flags().GetInt("limit")
		query := ""
		if len(args) == 1 {
			query = args[0]
		}

		return withCore(cmd, func(ctx context.Context, svcs *services) error {
			res, err := svcs.resolver.Search(ctx, query, fuzzy.Page{Offset: offset, Limit: limit})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %d of %d\n", res.SearchType, len(res.Artists), res.Total)
			for i, c := range res.Artists {
				fmt.Fprintf(out, "%3d. %-40s %.3f %-6s %s\n", res.Offset+i+1, c.Artist.Name, c.Score, c.Tier, c.Artist.ID)
			}
			return nil
		})
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <name>",
	Short: "Resolve a free-text artist name to a stored artist",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(cmd, func(ctx context.Context, svcs *services) error {
			res, err := svcs.resolver.ResolveByName(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !res.Found {
				fmt.Fprintf(out, "no artist matches %q\n", args[0])
				return nil
			}
			fmt.Fprintf(out, "%s (%s) %s %.3f %s\n", res.Artist.Name, res.Artist.ID, res.MatchType, res.Score, res.Tier)
			for _, alt := range res.Alternatives {
				fmt.Fprintf(out, "  also: %s %.3f %s\n", alt.Artist.Name, alt.Score, alt.Tier)
			}
			return nil
		})
	},
}

var previewCmd = &cobra.Command{
	Use:   "preview <artist> [track]",
	Short: "Find a preview clip for a track, or list an artist's songs, in the iTunes catalog",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(cmd, func(ctx context.Context, svcs *services) error {
			if len(args) == 1 {
				return listArtistTracks(ctx, cmd, svcs, args[0])
			}

			match, err := svcs.previews.Match(ctx, args[0], args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if match == nil {
				fmt.Fprintf(out, "no preview for %s - %s\n", args[0], args[1])
				return nil
			}
			fmt.Fprintf(out, "%s - %s [%s", match.Track.ArtistName, match.Track.TrackName, match.Strategy)
			if match.Strategy == preview.StrategyFuzzy {
				fmt.Fprintf(out, " %.2f", match.Score)
			}
			fmt.Fprintln(out, "]")
			if match.Track.HasPreview() {
				fmt.Fprintln(out, match.Track.PreviewURL)
			}
			return nil
		})
	},
}

func listArtistTracks(ctx context.Context, cmd *cobra.Command, svcs *services, artist string) error {
	tracks, err := svcs.catalog.ArtistTracks(ctx, artist, config.ITunes.SearchLimit*4)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(tracks) == 0 {
		fmt.Fprintf(out, "no songs by %s\n", artist)
		return nil
	}
	for _, t := range tracks {
		marker := " "
		if t.HasPreview() {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s (%s)\n", marker, t.TrackName, t.AlbumName)
	}
	return nil
}

// withCore runs fn with the store and matching services open.
func withCore(cmd *cobra.Command, fn func(ctx context.Context, svcs *services) error) error {
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()

	svcs, err := initializeCore(ctx)
	if err != nil {
		return err
	}
	defer svcs.close()

	if err := fn(ctx, svcs); err != nil {
		logger.Debug("Command failed", zap.String("command", cmd.Name()), zap.Error(err))
		return fmt.Errorf("%s: %w", strings.TrimSpace(cmd.Name()), err)
	}
	return nil
}
