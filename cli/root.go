package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ankit-chaubey/media-metadata-guard/internal/config"
	"github.com/ankit-chaubey/media-metadata-guard/internal/logging"
)

// app carries state resolved once per invocation.
type app struct {
	cfgFile string
	cfg     config.Config
	log     *slog.Logger
}

// newRootCmd builds a fresh command tree, so tests can run commands in
// isolation.
func newRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:   "mediaguard",
		Short: "Block media files that leak GPS location before they are published.",
		Long: `mediaguard inspects the EXIF metadata of images and decides whether
each file can be published without revealing where it was taken.
Files carrying GPS data, and files whose metadata cannot be verified,
are blocked.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd, a.cfgFile)
			if err != nil {
				return err
			}
			level, _ := logging.ParseLevel(cfg.Log.Level)
			logging.Init(level, cfg.Log.Format, cmd.ErrOrStderr())
			a.cfg = cfg
			a.log = logging.New(cmd.Name())
			return nil
		},
	}
	cmd.Version = version

	pf := cmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.mediaguard.yaml or ./.mediaguard.yaml)")
	pf.String("log-level", "info", `log level ("debug", "info", "warn", "error")`)
	pf.String("log-format", "text", `log format ("text", "json")`)

	cmd.AddCommand(newAssertCmd(a))
	cmd.AddCommand(newViewCmd(a))
	return cmd
}
