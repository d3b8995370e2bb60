package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"ticksched/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded runs, or the statistics of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("db") {
				cfg.HistoryDB = dbPath
			}
			if cfg.HistoryDB == "" {
				return errors.New("no history database: set history_db or pass --db")
			}

			store, err := history.Open(cfg.HistoryDB, logger)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Migrate(cmd.Context()); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				runs, err := store.Runs(cmd.Context())
				if err != nil {
					return err
				}
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded.")
					return nil
				}
				table := tablewriter.NewWriter(out)
				table.SetHeader([]string{"Run", "Policy", "Tasks", "Started"})
				for _, r := range runs {
					table.Append([]string{r.RunID, r.Policy, strconv.Itoa(r.Tasks), r.FirstSeen.Format("2006-01-02 15:04:05")})
				}
				table.Render()
				return nil
			}

			rs, err := store.ListRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(rs) == 0 {
				return fmt.Errorf("run %s not found", args[0])
			}
			printRun(out, rs)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite history database (overrides history_db)")
	return cmd
}

func printRun(w io.Writer, rs []history.Retirement) {
	sum := history.Summarize(rs)
	fmt.Fprintf(w, "Run:     %s\n", rs[0].RunID)
	fmt.Fprintf(w, "Policy:  %s\n", rs[0].Policy)
	fmt.Fprintf(w, "Tasks:   %d\n", sum.Tasks)

	rows := make([][]string, 0, len(rs))
	for _, r := range rs {
		rows = append(rows, []string{
			strconv.FormatUint(r.TaskID, 10),
			strconv.FormatInt(int64(r.Client), 10),
			ms(r.RequestedMS), ms(r.AdmittedMS), ms(r.FinishedMS),
			ms(r.Turnaround()), ms(r.Waiting()), ms(r.Response()),
			strconv.Itoa(r.Dispatches),
		})
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Task", "Client", "Requested", "Admitted", "Finished", "Turnaround", "Waiting", "Response", "Dispatches"})
	table.AppendBulk(rows)
	table.Render()

	fmt.Fprintf(w, "Average turnaround: %.1f ms\n", sum.AvgTurnaround)
	fmt.Fprintf(w, "Average waiting:    %.1f ms\n", sum.AvgWaiting)
	fmt.Fprintf(w, "Average response:   %.1f ms\n", sum.AvgResponse)
	fmt.Fprintf(w, "Makespan:           %d ms\n", sum.Makespan)
	fmt.Fprintf(w, "Throughput:         %.3f tasks/s\n", sum.Throughput)
}

func ms(v uint32) string { return strconv.FormatUint(uint64(v), 10) }
