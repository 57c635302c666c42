package main

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/fishcareyolo/mina/history"
)

func (rt *runtime) historyListAction(c *cli.Context) error {
	store, err := rt.history()
	if err != nil {
		return err
	}
	items, err := store.Items()
	if err != nil {
		return err
	}
	if c.Bool(flagJSON) {
		return printJSON(c, items)
	}
	if len(items) == 0 {
		fmt.Fprintln(c.App.Writer, "no saved results")
		return nil
	}

	w := newTable(c)
	fmt.Fprintln(w, "ID\tTAKEN\tDETECTIONS\tTOP FINDING")
	for _, item := range items {
		top := "-"
		if len(item.Results.Detections) > 0 {
			top = summary(item.Results.Detections[0])
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", item.ID, formatTime(item.Timestamp), len(item.Results.Detections), top)
	}
	return w.Flush()
}

func (rt *runtime) historyShowAction(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("no id given")
	}
	store, err := rt.history()
	if err != nil {
		return err
	}
	item, err := store.Item(id)
	if err != nil {
		return err
	}
	if item == nil {
		return errors.Errorf("no saved result %q", id)
	}
	return printJSON(c, item)
}

func (rt *runtime) historyDeleteAction(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return errors.New("no id given")
	}
	store, err := rt.history()
	if err != nil {
		return err
	}
	err = store.DeleteSession(id)
	if history.IsItemID(id) {
		err = multierr.Append(err, store.DeleteItem(id))
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "deleted %s\n", id)
	return nil
}

func (rt *runtime) historyClearAction(c *cli.Context) error {
	store, err := rt.history()
	if err != nil {
		return err
	}
	items, err := store.Items()
	if err != nil {
		return err
	}
	for _, item := range items {
		if err := store.DeleteItem(item.ID); err != nil {
			return err
		}
	}
	if err := store.ClearSessions(); err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "deleted %d saved results\n", len(items))
	return nil
}

func formatTime(ms int64) string {
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}
