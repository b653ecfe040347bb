package main

import (
	"github.com/spf13/cobra"

	"github.com/shortontech/devprint/internal/logging"
	"github.com/shortontech/devprint/pkg/config"
)

// app holds state shared by subcommands once flags are parsed.
type app struct {
	cfgPath string
	cfg     config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "devprint",
		Short:         "Device fingerprinting and similarity engine",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.cfgPath, cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			return logging.Configure(cfg.Log.Level, cfg.Log.Format)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgPath, "config", "c", "", "path to a YAML config file")
	pf.String("log.level", "info", "log level (trace, debug, info, warn, error)")
	pf.String("log.format", "json", "log format (json, console)")

	root.AddCommand(newServeCmd(a), newCaptureCmd(a), newCompareCmd(a))
	return root
}
