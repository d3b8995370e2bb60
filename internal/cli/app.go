package cli

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"ticksched/internal/client"
)

// maxSeconds keeps the requested time representable in milliseconds on the wire.
const maxSeconds = math.MaxUint32 / 1000

func newAppCmd() *cobra.Command {
	var retries uint64

	cmd := &cobra.Command{
		Use:   "app <name> <time_s>",
		Short: "Run one application that needs the CPU for time_s seconds",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			seconds, err := parseSeconds(args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Application %s started, will need the CPU for %d seconds\n", name, seconds)

			res, err := client.Run(cmd.Context(), client.Options{
				Socket:      cfg.SocketPath,
				PID:         int32(os.Getpid()),
				Seconds:     seconds,
				DialRetries: retries,
			})
			if err != nil {
				logger.Debug("exchange failed", "app", name, "error", err)
				return err
			}
			printResult(out, name, res)
			return nil
		},
	}

	cmd.Flags().Uint64Var(&retries, "retries", 0, "Extra connect attempts while the daemon starts")
	return cmd
}

func parseSeconds(s string) (uint32, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", s)
	}
	if v < 0 || v > maxSeconds {
		return 0, fmt.Errorf("value out of range: %d", v)
	}
	return uint32(v), nil
}

func printResult(w io.Writer, name string, res client.Result) {
	fmt.Fprintf(w, "Application %s (PID %d) finished at time %d ms, Elapsed: %.03f seconds, CPU: %.03f seconds\n",
		name, res.PID, res.FinishMS, res.Elapsed(), res.CPU())
}
