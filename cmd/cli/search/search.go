package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ugaemi/jetlagged-server/internal/config"
	"github.com/ugaemi/jetlagged-server/internal/geocode"
)

var Group = &cobra.Group{
	ID:    "places",
	Title: "Place lookup",
}

var Command = &cobra.Command{
	Use:     "search [query]",
	GroupID: "places",
	Short:   "Search hideout candidates",
	Long:    `Looks up places through Nominatim the same way the hider's search box does`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
		defer cancel()

		n := geocode.NewNominatim(cfg.NominatimURL, cfg.NominatimUserAgent)
		results, err := n.Search(ctx, strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}
		out := cmd.OutOrStdout()
		if len(results) == 0 {
			fmt.Fprintln(out, "no results")
			return nil
		}
		for _, r := range results {
			fmt.Fprintf(out, "%-10s %9.5f %10.5f  %s\n", r.Kind, r.Coordinate.Lat, r.Coordinate.Lon, r.Label)
		}
		return nil
	},
}

var Popular = &cobra.Command{
	Use:     "popular",
	GroupID: "places",
	Short:   "List built-in starting cities",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		for _, p := range geocode.PopularLocations() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-14s %9.5f %10.5f  %s\n", p.Name, p.Coordinate.Lat, p.Coordinate.Lon, p.DisplayName)
		}
	},
}
