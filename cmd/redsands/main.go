// Command redsands runs the Red Sands Mars colony simulation.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/talgya/red-sands/internal/config"
	"github.com/talgya/red-sands/internal/scenario"
)

var (
	v       = viper.New()
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:           "redsands",
	Short:         "Red Sands - a Mars colony simulation",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		level, _ := cfg.SlogLevel()
		logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
			Level: level,
		}))
		slog.SetDefault(logger)
		return nil
	},
}

func main() {
	addPersistentFlags()
	rootCmd.AddCommand(runCmd(), reportCmd(), checkCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addPersistentFlags() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default ./redsands.yaml if present)")
	flags.Int64("seed", 42, "random seed (0 = random)")
	flags.String("db", "data/redsands.db", "run journal path (empty disables)")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("scenario", "", "YAML scenario file (default: procedural colony)")
	_ = v.BindPFlag("seed", flags.Lookup("seed"))
	_ = v.BindPFlag("db.path", flags.Lookup("db"))
	_ = v.BindPFlag("logLevel", flags.Lookup("log-level"))
	_ = v.BindPFlag("scenario", flags.Lookup("scenario"))
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <scenario.yaml>",
		Short: "Validate a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := scenario.Load(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d settlements, %d vehicles, %d people\n",
				args[0], len(sc.Settlements), len(sc.Vehicles), len(sc.People))
			return nil
		},
	}
}
