package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ticksched/internal/job"
)

func newBurstCmd() *cobra.Command {
	var retries uint64

	cmd := &cobra.Command{
		Use:   "burst <workload.yml>",
		Short: "Launch every application of a workload file against the daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := job.LoadWorkload(args[0])
			if err != nil {
				return err
			}

			logger.Info("launching workload", "file", args[0], "apps", len(w.Apps), "socket", cfg.SocketPath)
			out := cmd.OutOrStdout()
			outcomes := job.Launch(cmd.Context(), w, int32(os.Getpid()), job.ClientLauncher(cfg.SocketPath, retries))

			failed := 0
			for _, o := range outcomes {
				if o.Err != nil {
					failed++
					fmt.Fprintf(out, "Application %s (PID %d) failed: %v\n", o.App.Name, o.PID, o.Err)
					continue
				}
				printResult(out, o.App.Name, o.Result)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d applications failed", failed, len(outcomes))
			}
			return nil
		},
	}

	cmd.Flags().Uint64Var(&retries, "retries", 3, "Extra connect attempts per application")
	return cmd
}
