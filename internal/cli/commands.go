package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/mindcanvas/internal/common"
	"github.com/dmitrijs2005/mindcanvas/internal/credentials"
	"github.com/dmitrijs2005/mindcanvas/internal/filex"
	"github.com/dmitrijs2005/mindcanvas/internal/flagx"
)

// cmdInit bootstraps the key and journal and sets the first admin credentials.
func (a *App) cmdInit(ctx context.Context) error {
	if err := a.components.EnsureFiles(ctx); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Journal: %s\nKey:     %s (back this file up)\n",
		a.config.JournalPath, a.config.KeyPath)

	exists, err := a.components.Credentials.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return ErrAlreadyInit
	}

	username, err := GetSimpleText(a.reader, "Admin username (empty for \"admin\")", a.out)
	if err != nil {
		return err
	}
	if username == "" {
		username = credentials.DefaultUsername
	}

	pw, err := GetNewPassword(a.out)
	if err != nil {
		return err
	}
	if pw == nil {
		return fmt.Errorf("%w: a password is required", common.ErrValidation)
	}
	defer wipe(pw)
	password := string(pw)

	if err := a.components.Credentials.UpdateCredentials(ctx, credentials.Update{
		Username: &username,
		Password: &password,
	}); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Admin credentials saved.")
	return nil
}

// cmdPasswd rotates the username and/or password. Empty answers keep the
// current value.
func (a *App) cmdPasswd(ctx context.Context) error {
	username, err := GetSimpleText(a.reader, "New username (empty to keep)", a.out)
	if err != nil {
		return err
	}

	pw, err := GetNewPassword(a.out)
	if err != nil {
		return err
	}
	defer wipe(pw)

	var u credentials.Update
	if username != "" {
		u.Username = &username
	}
	if pw != nil {
		password := string(pw)
		u.Password = &password
	}
	if u.Username == nil && u.Password == nil {
		fmt.Fprintln(a.out, "Nothing changed.")
		return nil
	}

	if err := a.components.Credentials.UpdateCredentials(ctx, u); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Admin credentials updated.")
	return nil
}

func (a *App) cmdExport(ctx context.Context, args []string) error {
	var outPath string
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&outPath, "o", "", "output file")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-o"})); err != nil {
		return err
	}

	doc, err := a.components.Entries.Export(ctx)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(doc, "", "    ")
	if err != nil {
		return err
	}

	if outPath == "" {
		_, err := fmt.Fprintln(a.out, string(data))
		return err
	}
	if err := filex.WriteFileAtomic(outPath, data, 0o600); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Exported %d entries to %s\n", len(doc.Entries), outPath)
	return nil
}

func (a *App) cmdBackups() error {
	list, err := a.components.Backups.List()
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "No backups in", a.components.Backups.Dir())
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tTIME (UTC)\tSIZE")
	for _, b := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", b.Name, b.Time.Format(time.DateTime), b.Size)
	}
	return tw.Flush()
}
