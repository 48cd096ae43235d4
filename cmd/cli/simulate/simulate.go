package simulate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/exp/rand"

	"github.com/ugaemi/jetlagged-server/internal/config"
	"github.com/ugaemi/jetlagged-server/internal/game"
	"github.com/ugaemi/jetlagged-server/internal/geo"
	"github.com/ugaemi/jetlagged-server/internal/geocode"
	"github.com/ugaemi/jetlagged-server/internal/locator"
	"github.com/ugaemi/jetlagged-server/internal/sim"
)

var Group = &cobra.Group{
	ID:    "game",
	Title: "Game operations",
}

func init() {
	f := Command.Flags()
	f.String("city", "New York", "starting city, one of the popular cities unless --online")
	f.Float64("lat", 0, "hideout latitude, defaults to the city center")
	f.Float64("lon", 0, "hideout longitude, defaults to the city center")
	f.String("label", "", "hideout address, used by letter questions")
	f.Int("rounds", 10, "questions to play")
	f.Uint64("seed", 0, "random seed, 0 picks one from the clock")
	f.Bool("online", false, "use Nominatim and the language model instead of synthetic addresses only")
	f.Bool("wait", false, "let every question time out instead of answering at once")
	f.Float64("letters", -1, "letter question chance, negative uses LETTER_CHANCE")
}

var Command = &cobra.Command{
	Use:     "simulate",
	GroupID: "game",
	Short:   "Play a game against the seeker",
	Long:    `Runs a whole game headlessly and prints every question and answer`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		f := cmd.Flags()
		cityName, _ := f.GetString("city")
		label, _ := f.GetString("label")
		rounds, _ := f.GetInt("rounds")
		seed, _ := f.GetUint64("seed")
		online, _ := f.GetBool("online")
		wait, _ := f.GetBool("wait")
		letters, _ := f.GetFloat64("letters")
		if seed == 0 {
			seed = uint64(time.Now().UnixNano())
		}
		if letters < 0 {
			letters = cfg.LetterChance
		}

		ctx := cmd.Context()
		var nominatim *geocode.Nominatim
		if online {
			nominatim = geocode.NewNominatim(cfg.NominatimURL, cfg.NominatimUserAgent)
		}

		city, err := findCity(ctx, cityName, nominatim)
		if err != nil {
			return err
		}
		hideout := city.Coordinate
		if f.Changed("lat") {
			hideout.Lat, _ = f.GetFloat64("lat")
		}
		if f.Changed("lon") {
			hideout.Lon, _ = f.GetFloat64("lon")
		}

		var resolver locator.Resolver
		if online {
			resolver = locator.FromConfig(cfg, nominatim, seed)
		} else {
			resolver = locator.New(locator.NewSynthetic(seed), locator.WithTimeout(cfg.LocatorTimeout))
		}

		sum, err := sim.Run(ctx, cmd.OutOrStdout(), sim.Options{
			City:         city,
			Hideout:      hideoutAddress(ctx, hideout, label, city, nominatim),
			Rounds:       rounds,
			Resolver:     resolver,
			Rand:         rand.New(rand.NewSource(seed)),
			LetterChance: letters,
			Instant:      !wait,
		})
		if err != nil && !errors.Is(err, sim.ErrTickBudget) {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "\n%d rounds in %d ticks, score %d\n", sum.Rounds, sum.Ticks, sum.Score)
		if sum.Seeker != nil {
			fmt.Fprintf(out, "seeker finished %.2f mi from the hideout\n", sum.MissMiles)
		}
		if sum.Estimate != nil {
			fmt.Fprintf(out, "estimate: within %g mi of (%.5f, %.5f)\n",
				sum.Estimate.RadiusMiles, sum.Estimate.Center.Lat, sum.Estimate.Center.Lon)
		}
		return err
	},
}

// findCity matches a popular city by name, or searches for it when a geocoder is given.
func findCity(ctx context.Context, name string, nominatim *geocode.Nominatim) (game.City, error) {
	for _, p := range geocode.PopularLocations() {
		if strings.EqualFold(p.Name, strings.TrimSpace(name)) {
			return p.City(), nil
		}
	}
	if nominatim == nil {
		return game.City{}, fmt.Errorf("unknown city %q, pick a popular city or pass --online", name)
	}
	results, err := nominatim.Search(ctx, name)
	if err != nil {
		return game.City{}, fmt.Errorf("searching for %q: %w", name, err)
	}
	if len(results) == 0 {
		return game.City{}, fmt.Errorf("no place found for %q", name)
	}
	return game.City{Name: name, Coordinate: results[0].Coordinate}, nil
}

func hideoutAddress(ctx context.Context, c geo.Coordinate, label string, city game.City, nominatim *geocode.Nominatim) game.Address {
	if label != "" {
		return game.NewAddress(label, c, game.KindStreet, 1)
	}
	if nominatim != nil {
		if addr, err := nominatim.Reverse(ctx, c); err == nil {
			return addr
		}
	}
	return game.NewAddress("Hideout, "+city.Name, c, game.KindStreet, 1)
}
