package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/fishcareyolo/mina/annotate"
	"github.com/fishcareyolo/mina/diagnosis"
	"github.com/fishcareyolo/mina/models/release"
)

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(c *cli.Context) *tabwriter.Writer {
	return tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
}

func summary(d diagnosis.Detection) string {
	return annotate.Label(d)
}

func printResult(c *cli.Context, result diagnosis.InferenceResult) {
	if len(result.Detections) == 0 {
		fmt.Fprintf(c.App.Writer, "no findings (%d ms)\n", result.InferenceTimeMs)
		return
	}

	fmt.Fprintf(c.App.Writer, "%d findings (%d ms)\n", len(result.Detections), result.InferenceTimeMs)
	w := newTable(c)
	fmt.Fprintln(w, "ID\tFINDING\tX\tY\tWIDTH\tHEIGHT")
	for _, d := range result.Detections {
		b := d.BoundingBox
		fmt.Fprintf(w, "%s\t%s\t%.3f\t%.3f\t%.3f\t%.3f\n", d.ID, summary(d), b.X, b.Y, b.Width, b.Height)
	}
	// Writes to the app writer only fail with it.
	_ = w.Flush()
}

func progressPrinter(c *cli.Context) release.ProgressFunc {
	last := -1
	return func(p float64) {
		pct := int(p * 100)
		if pct == last {
			return
		}
		last = pct
		fmt.Fprintf(c.App.ErrWriter, "\rdownloading model: %3d%%", pct)
		if pct == 100 {
			fmt.Fprintln(c.App.ErrWriter)
		}
	}
}
