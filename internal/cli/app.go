// Package cli implements mindcanvas-admin, the operator tool for first-run
// setup, credential rotation, export and backup inspection.
//
// Commands are given first, followed by any flags:
//
//	mindcanvas-admin init
//	mindcanvas-admin passwd
//	mindcanvas-admin export -o journal.json
//	mindcanvas-admin backups
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/mindcanvas/internal/bootstrap"
	"github.com/dmitrijs2005/mindcanvas/internal/common"
	"github.com/dmitrijs2005/mindcanvas/internal/config"
	"github.com/dmitrijs2005/mindcanvas/internal/logging"
)

var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrPasswordMismatch = errors.New("passwords do not match")
	ErrAlreadyInit      = errors.New("credentials already initialised, use passwd to change them")
)

type App struct {
	config     *config.Config
	components *bootstrap.Components
	reader     *bufio.Reader
	out        io.Writer
	logger     logging.Logger
}

func NewApp(ctx context.Context, c *config.Config, in io.Reader, out io.Writer) (*App, error) {
	logger := logging.New(c.LogPath, c.LogLevel)
	return newApp(ctx, c, logger, in, out)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, in io.Reader, out io.Writer) (*App, error) {
	comps, err := bootstrap.New(ctx, c, logger, nil)
	if err != nil {
		return nil, err
	}
	return &App{
		config:     c,
		components: comps,
		reader:     bufio.NewReader(in),
		out:        out,
		logger:     logger,
	}, nil
}

// Run executes the command named by args[0] with the remaining args.
func (a *App) Run(ctx context.Context, args []string) error {
	defer a.components.Close()

	if len(args) == 0 {
		a.help()
		return nil
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "init":
		return a.cmdInit(ctx)
	case "passwd":
		return a.cmdPasswd(ctx)
	case "export":
		return a.cmdExport(ctx, rest)
	case "backups":
		return a.cmdBackups()
	case "help", "-h", "--help":
		a.help()
		return nil
	default:
		a.help()
		return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
	}
}

func (a *App) help() {
	fmt.Fprintln(a.out, `Usage: mindcanvas-admin <command> [flags]

Commands:
  init      create the journal key, a blank journal and the admin credentials
  passwd    change the admin username and/or password
  export    write the decrypted journal as JSON (-o file, default stdout)
  backups   list backup files, newest first
  help      show this message

Global flags (-j, -b, -k, -m, -c ...) match the server's.`)
}

func wipe(b []byte) { common.WipeByteArray(b) }
