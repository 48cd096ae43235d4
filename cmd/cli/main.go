package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ugaemi/jetlagged-server/cmd/cli/search"
	"github.com/ugaemi/jetlagged-server/cmd/cli/simulate"
)

func init() {
	// .env is optional; the environment wins either way.
	_ = godotenv.Load()
	rootCmd.AddGroup(simulate.Group)
	rootCmd.AddCommand(simulate.Command)
	rootCmd.AddGroup(search.Group)
	rootCmd.AddCommand(search.Command, search.Popular)
}

var rootCmd = &cobra.Command{
	Use:          "jetlagged-cli",
	Long:         `Command line utilities for the jetlagged seeker server`,
	SilenceUsage: true,
}

func Execute() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func main() {
	Execute()
}
