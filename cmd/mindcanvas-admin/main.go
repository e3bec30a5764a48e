package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/mindcanvas/internal/cli"
	"github.com/dmitrijs2005/mindcanvas/internal/config"
)

func main() {

	ctx := context.Background()

	// mindcanvas-admin <command> [flags]: the command goes first so the
	// shared config loader only sees flags.
	var args []string
	if len(os.Args) > 1 && !strings.HasPrefix(os.Args[1], "-") {
		args = os.Args[1:]
	}
	cfg := config.LoadConfig()

	app, err := cli.NewApp(ctx, cfg, os.Stdin, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

}
