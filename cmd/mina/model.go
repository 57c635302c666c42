package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

func (rt *runtime) modelStatusAction(c *cli.Context) error {
	ch := rt.channel(c)
	md := rt.release.LoadMetadata()

	fmt.Fprintf(c.App.Writer, "channel:   %s\n", ch)
	fmt.Fprintf(c.App.Writer, "path:      %s\n", rt.release.ModelPath(ch))
	fmt.Fprintf(c.App.Writer, "installed: %t\n", rt.release.ModelExists(ch))
	if md != nil {
		fmt.Fprintf(c.App.Writer, "updated:   %s (%s, %d bytes)\n", md.UpdatedAt, md.Channel, md.SizeBytes)
	}
	if c.Bool(flagOffline) {
		return nil
	}

	check, err := rt.release.CheckForUpdate(c.Context, ch)
	if err != nil {
		return err
	}
	if check.HasUpdate {
		fmt.Fprintf(c.App.Writer, "update available: %s\n", check.NewDate)
	} else {
		fmt.Fprintln(c.App.Writer, "up to date")
	}
	return nil
}

func (rt *runtime) modelUpdateAction(c *cli.Context) error {
	ch := rt.channel(c)
	if c.Bool(flagForce) {
		md, err := rt.release.ForceUpdate(c.Context, ch, progressPrinter(c))
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "downloaded %s model from %s\n", ch, md.UpdatedAt)
		return nil
	}

	before := rt.release.LoadMetadata()
	md, err := rt.release.Ensure(c.Context, ch, progressPrinter(c))
	if err != nil {
		return err
	}
	if before != nil && *before == *md {
		fmt.Fprintf(c.App.Writer, "%s model is up to date (%s)\n", ch, md.UpdatedAt)
		return nil
	}
	fmt.Fprintf(c.App.Writer, "downloaded %s model from %s\n", ch, md.UpdatedAt)
	return nil
}
