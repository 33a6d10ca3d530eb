package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

type rootCommand struct {
	cfg Config
}

func newRootCommand() *cobra.Command {
	c := &rootCommand{cfg: defaultConfig()}
	cmd := &cobra.Command{
		Use:           "liveserver [dir]",
		Short:         "Serve a directory over HTTP on the local network",
		Long:          "liveserver lists directories and streams files from a local folder,\nprints a QR code for the LAN address and opens a browser.",
		Version:       Version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          c.run,
	}
	c.cfg.bindFlags(cmd.Flags())
	return cmd
}

func (c *rootCommand) run(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		c.cfg.Dir = args[0]
	}
	if err := c.cfg.validate(); err != nil {
		return err
	}

	logger, err := newLogger(c.cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return NewApp(c.cfg, logger, cmd.OutOrStdout()).Run(ctx)
}

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		cmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
