package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/cmd"
	"github.com/update-dotnet-sdk/update-dotnet-sdk/pkg/tui"
)

// Globals for Debug logging flag and version reporting.
var (
	debug   bool
	version string
)

func newRootCmd() *cobra.Command {
	updateCmd := cmd.NewUpdateCmd()

	rootCmd := &cobra.Command{
		Use:   "update-dotnet-sdk",
		Short: "update-dotnet-sdk",
		Long:  "Updates the .NET SDK pinned by a global.json file and opens a pull request for the change",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if debug || viper.GetBool("debug") {
				log.SetLevel(log.DebugLevel)
			}
		},
		// Run as the update command when invoked without a subcommand, as Actions does.
		RunE: func(c *cobra.Command, args []string) error {
			updateCmd.SetContext(c.Context())
			return updateCmd.RunE(updateCmd, args)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}

	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&debug, "debug", false, "enable debug level logging")

	// The update flags are shared so the root command accepts them too.
	rootCmd.Flags().AddFlagSet(updateCmd.Flags())

	rootCmd.AddCommand(updateCmd)
	return rootCmd
}

func initConfig() {
	viper.SetEnvPrefix(cmd.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// The runner sets RUNNER_DEBUG=1 when debug logging is enabled for a workflow run.
	_ = viper.BindEnv("debug", cmd.EnvPrefix+"_DEBUG", "RUNNER_DEBUG")
}

func main() {
	cobra.OnInitialize(initConfig)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		reportError(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func reportError(w io.Writer, err error) {
	log.WithError(err).Error("Failed to check for updates to .NET SDK")
	// %+v includes the stack trace of errors wrapped with github.com/pkg/errors.
	log.Debugf("%+v", err)
	fmt.Fprint(w, tui.RenderError(tui.ErrorInfo{
		Title:   "Failed to check for updates to .NET SDK",
		Message: err.Error(),
	}))
}
