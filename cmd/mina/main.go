// Package main is the mina command line tool.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

const (
	flagEnvFile  = "env-file"
	flagDebug    = "debug"
	flagJSON     = "json"
	flagImage    = "image"
	flagOutput   = "output"
	flagSave     = "save"
	flagOffline  = "offline"
	flagChannel  = "channel"
	flagForce    = "force"
	flagProvider = "provider"

	flagIterations = "iterations"
	flagWarmup     = "warmup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	var rt runtime

	return &cli.App{
		Name:  "mina",
		Usage: "detect fish diseases in photos",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  flagEnvFile,
				Usage: "load settings from `FILE`",
				Value: cli.NewStringSlice(".env"),
			},
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			return rt.init(c)
		},
		After: func(c *cli.Context) error {
			return rt.close()
		},
		Commands: []*cli.Command{
			{
				Name:      "detect",
				Usage:     "run the disease model on a photo",
				ArgsUsage: "[photo]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    flagImage,
						Aliases: []string{"i"},
						Usage:   "photo to diagnose",
					},
					&cli.StringFlag{
						Name:    flagOutput,
						Aliases: []string{"o"},
						Usage:   "write the annotated photo to `FILE`",
					},
					&cli.BoolFlag{
						Name:  flagSave,
						Usage: "save the result to history",
					},
					&cli.BoolFlag{
						Name:  flagOffline,
						Usage: "use the installed model without checking for updates",
					},
					&cli.StringFlag{
						Name:  flagProvider,
						Usage: "execution provider: cpu, coreml or cuda",
					},
					&cli.BoolFlag{
						Name:  flagJSON,
						Usage: "print the result as JSON",
					},
				},
				Action: rt.detectAction,
			},
			{
				Name:      "bench",
				Usage:     "measure inference latency over a photo or a directory of photos",
				ArgsUsage: "<photo|dir>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: flagIterations, Usage: "timed runs", Value: 50},
					&cli.IntFlag{Name: flagWarmup, Usage: "untimed runs first", Value: 5},
					&cli.StringFlag{
						Name:    flagOutput,
						Aliases: []string{"o"},
						Usage:   "save JSON and CSV results into `DIR`",
					},
					&cli.BoolFlag{Name: flagOffline, Usage: "use the installed model without checking for updates"},
					&cli.StringFlag{Name: flagProvider, Usage: "execution provider: cpu, coreml or cuda"},
					&cli.BoolFlag{Name: flagJSON, Usage: "print the result as JSON"},
				},
				Action: rt.benchAction,
			},
			{
				Name:  "history",
				Usage: "work with saved results",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "list saved results, newest first",
						Flags:  []cli.Flag{&cli.BoolFlag{Name: flagJSON, Usage: "print as JSON"}},
						Action: rt.historyListAction,
					},
					{
						Name:      "show",
						Usage:     "show one saved result",
						ArgsUsage: "<id>",
						Action:    rt.historyShowAction,
					},
					{
						Name:      "delete",
						Usage:     "delete a saved result and its images",
						ArgsUsage: "<id>",
						Action:    rt.historyDeleteAction,
					},
					{
						Name:   "clear",
						Usage:  "delete every saved result",
						Action: rt.historyClearAction,
					},
				},
			},
			{
				Name:      "diseases",
				Usage:     "describe the diseases the model recognizes",
				ArgsUsage: "[class]",
				Flags:     []cli.Flag{&cli.BoolFlag{Name: flagJSON, Usage: "print as JSON"}},
				Action:    rt.diseasesAction,
			},
			{
				Name:  "model",
				Usage: "manage the installed model",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagChannel,
						Usage: "release channel: dev or prod",
					},
				},
				Subcommands: []*cli.Command{
					{
						Name:   "status",
						Usage:  "show the installed model and check for an update",
						Flags:  []cli.Flag{&cli.BoolFlag{Name: flagOffline, Usage: "do not contact GitHub"}},
						Action: rt.modelStatusAction,
					},
					{
						Name:   "update",
						Usage:  "download the latest model if it changed",
						Flags:  []cli.Flag{&cli.BoolFlag{Name: flagForce, Usage: "download even if up to date"}},
						Action: rt.modelUpdateAction,
					},
				},
			},
		},
	}
}
