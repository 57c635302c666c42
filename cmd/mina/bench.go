package main

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/fishcareyolo/mina/benchmark"
)

func (rt *runtime) benchAction(c *cli.Context) (err error) {
	path := c.Args().First()
	if path == "" {
		return errors.New("no photos given. pass a photo or a directory")
	}
	photos, err := benchmark.LoadPhotos(path)
	if err != nil {
		return err
	}

	engine, closeEngine, err := rt.engine(c)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, closeEngine()) }()

	suite := benchmark.NewSuite(engine, rt.logger.Named("benchmark"))
	suite.AddPhotos(photos...)

	backend := c.String(flagProvider)
	if backend == "" {
		backend = rt.cfg.Provider
	}
	metrics, err := suite.Run(c.Context, benchmark.Scenario{
		Name:       fmt.Sprintf("%s-%d", backend, rt.cfg.InputSize),
		Iterations: c.Int(flagIterations),
		WarmupRuns: c.Int(flagWarmup),
	})
	if err != nil {
		return err
	}

	if c.Bool(flagJSON) {
		return printJSON(c, metrics)
	}
	w := newTable(c)
	fmt.Fprintf(w, "scenario\t%s\n", metrics.Scenario.Name)
	fmt.Fprintf(w, "photos\t%d\n", len(photos))
	fmt.Fprintf(w, "fps\t%.2f\n", metrics.FramesPerSecond)
	fmt.Fprintf(w, "mean\t%s\n", metrics.MeanLatency.Round(time.Microsecond))
	fmt.Fprintf(w, "p50\t%s\n", metrics.P50Latency.Round(time.Microsecond))
	fmt.Fprintf(w, "p95\t%s\n", metrics.P95Latency.Round(time.Microsecond))
	fmt.Fprintf(w, "max\t%s\n", metrics.MaxLatency.Round(time.Microsecond))
	fmt.Fprintf(w, "errors\t%.1f%%\n", metrics.ErrorRate*100)
	if err := w.Flush(); err != nil {
		return err
	}

	if dir := c.String(flagOutput); dir != "" {
		jsonPath, csvPath, err := benchmark.SaveResults(dir, suite.Results(), time.Now())
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "results saved to %s and %s\n", jsonPath, csvPath)
	}
	return nil
}
