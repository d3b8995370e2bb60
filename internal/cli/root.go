package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"ticksched/internal/client"
	"ticksched/internal/logging"
	"ticksched/internal/sched"
)

var (
	flagConfig    string
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string
	flagPolicy    string
	flagSocket    string

	cfg    sched.Config
	logger *slog.Logger
)

// NewRootCmd creates the root cobra command for the ticksched CLI.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "ticksched",
		Short:             "Tick-driven CPU scheduling simulator",
		Long:              "ticksched runs a simulated single CPU that schedules client applications over a unix socket.",
		PersistentPreRunE: setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}
	addGlobalFlags(root)

	root.AddCommand(
		newServeCmd(),
		newAppCmd(),
		newBurstCmd(),
		newHistoryCmd(),
	)
	return root
}

// NewAppCmd creates the standalone client command: app <name> <time_s>.
func NewAppCmd() *cobra.Command {
	cmd := newAppCmd()
	cmd.PersistentPreRunE = setup
	cmd.SilenceErrors = true
	addGlobalFlags(cmd)
	return cmd
}

func addGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&flagConfig, "config", "ticksched.yml", "Config file (missing file means defaults)")
	cmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "Log format (text, json)")
	cmd.PersistentFlags().StringVar(&flagPolicy, "policy", "", "Scheduling policy (fifo, rr, sjf, mlfq)")
	cmd.PersistentFlags().StringVar(&flagSocket, "socket", "", "Unix socket path")
}

// setup loads the config file and applies flag overrides on top of it.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = sched.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if flagDebug {
		cfg.LogLevel = "debug"
	}
	if flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}
	if flagPolicy != "" {
		cfg.Policy = flagPolicy
	}
	if flagSocket != "" {
		cfg.SocketPath = flagSocket
	}
	logger = logging.NewLoggerWithWriter(logging.ParseLevel(cfg.LogLevel), cfg.LogFormat, cmd.ErrOrStderr())
	return nil
}

// ExitCode maps an error returned by a command to a process exit status.
// Client failures get one status per failing handshake step.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var se *client.StepError
	if errors.As(err, &se) {
		return se.ExitCode()
	}
	return 1
}

// Fail prints err the way the commands report errors.
func Fail(cmd *cobra.Command, err error) {
	fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
}
