package main

import (
	"context"
	"os"

	"ticksched/internal/cli"
)

func main() {
	root := cli.NewRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		cli.Fail(root, err)
		os.Exit(cli.ExitCode(err))
	}
}
