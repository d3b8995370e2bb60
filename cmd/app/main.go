// Command app asks the scheduler daemon for time_s seconds of CPU and
// prints its timing statistics once the work is done.
//
//	app <name> <time_s>
package main

import (
	"context"
	"os"
	"os/signal"

	"ticksched/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := cli.NewAppCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		cli.Fail(cmd, err)
		stop()
		os.Exit(cli.ExitCode(err))
	}
}
