package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var debug bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

var rootCmd = &cobra.Command{
	Use:   "chordscroll",
	Short: "Chord sheet practice engine",
	Long:  `Chord sheet practice engine. Parses chord sheets, lays them out on a beat timeline and plays them back in sync.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logLevel := slog.LevelInfo
		if debug {
			logLevel = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: logLevel,
		})))
	},
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
