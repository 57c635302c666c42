package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"github.com/fishcareyolo/mina/annotate"
	"github.com/fishcareyolo/mina/diagnosis"
	"github.com/fishcareyolo/mina/inference"
)

func (rt *runtime) detectAction(c *cli.Context) (err error) {
	photo := c.String(flagImage)
	if photo == "" {
		photo = c.Args().First()
	}
	if photo == "" {
		return errors.New("no photo given. pass --image or a path argument")
	}
	data, err := os.ReadFile(photo)
	if err != nil {
		return errors.Wrap(err, "read photo")
	}

	engine, closeEngine, err := rt.engine(c)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, closeEngine()) }()

	result, err := engine.PredictImage(c.Context, data)
	if err != nil {
		return err
	}

	annotated := c.String(flagOutput)
	if annotated == "" && c.Bool(flagSave) {
		tmp, err := os.MkdirTemp("", "mina-")
		if err != nil {
			return errors.Wrap(err, "create temporary directory")
		}
		defer os.RemoveAll(tmp)
		annotated = filepath.Join(tmp, annotatedName(photo))
	}
	if annotated != "" {
		if err := annotate.Render(photo, annotated, result.Detections); err != nil {
			return err
		}
	}

	var saved *diagnosis.HistoryItem
	if c.Bool(flagSave) {
		item, err := rt.save(photo, annotated, result)
		if err != nil {
			return err
		}
		saved = &item
	}

	if c.Bool(flagJSON) {
		if saved != nil {
			return printJSON(c, saved)
		}
		return printJSON(c, result)
	}
	printResult(c, result)
	if c.String(flagOutput) != "" {
		fmt.Fprintf(c.App.Writer, "annotated photo written to %s\n", c.String(flagOutput))
	}
	if saved != nil {
		fmt.Fprintf(c.App.Writer, "saved to history as %s\n", saved.ID)
	}
	return nil
}

// engine ensures the model is installed and loads it. The returned func
// closes the engine and then the onnxruntime environment.
func (rt *runtime) engine(c *cli.Context) (*inference.Engine, func() error, error) {
	if err := rt.ensureModel(c); err != nil {
		return nil, nil, err
	}

	env, err := inference.NewEnvironment(rt.cfg.ORTLibrary)
	if err != nil {
		return nil, nil, err
	}

	backend := c.String(flagProvider)
	if backend == "" {
		backend = rt.cfg.Provider
	}
	engine, err := inference.NewEngineBuilder().
		WithEnvironment(env).
		WithBackend(backend).
		WithModel(rt.cfg.ModelConfig()).
		WithLogger(rt.logger.Named("inference")).
		Build()
	if err != nil {
		return nil, nil, multierr.Append(err, env.Close())
	}
	return engine, func() error {
		return multierr.Append(engine.Close(), env.Close())
	}, nil
}

// ensureModel installs or updates the release model unless the model path was
// overridden or --offline was given.
func (rt *runtime) ensureModel(c *cli.Context) error {
	ch := rt.channel(c)
	if rt.cfg.ModelPath != rt.release.ModelPath(ch) {
		return nil
	}
	if c.Bool(flagOffline) {
		if !rt.release.ModelExists(ch) {
			return errors.Errorf("no %s model installed at %s. run `mina model update`", ch, rt.cfg.ModelPath)
		}
		return nil
	}
	_, err := rt.release.Ensure(c.Context, ch, progressPrinter(c))
	return err
}

func (rt *runtime) save(photo, annotated string, result diagnosis.InferenceResult) (diagnosis.HistoryItem, error) {
	store, err := rt.history()
	if err != nil {
		return diagnosis.HistoryItem{}, err
	}
	item, err := store.SaveItem(diagnosis.HistoryItem{
		OriginalImageURI:  photo,
		ProcessedImageURI: annotated,
		Results:           result,
	})
	if err != nil {
		return diagnosis.HistoryItem{}, err
	}
	return item, store.SaveSession(item.Session())
}

func annotatedName(photo string) string {
	base := filepath.Base(photo)
	return strings.TrimSuffix(base, filepath.Ext(base)) + "_annotated.png"
}
