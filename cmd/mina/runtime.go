package main

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/fishcareyolo/mina/config"
	"github.com/fishcareyolo/mina/history"
	"github.com/fishcareyolo/mina/logging"
	"github.com/fishcareyolo/mina/models/release"
)

// runtime holds what every command shares. The history store is opened on
// first use.
type runtime struct {
	cfg     *config.Config
	logger  *zap.SugaredLogger
	store   *history.Store
	release *release.Manager
}

func (rt *runtime) init(c *cli.Context) error {
	if err := config.LoadEnvFiles(c.StringSlice(flagEnvFile)...); err != nil {
		return err
	}
	rt.cfg = config.Load()
	if err := rt.cfg.Validate(); err != nil {
		return err
	}

	level := rt.cfg.LogLevel
	if c.Bool(flagDebug) {
		level = "debug"
	}
	logger, err := logging.NewLogger("mina", level)
	if err != nil {
		return err
	}
	rt.logger = logger

	rt.release = release.NewManager(release.Options{
		Dir:         rt.cfg.ModelDir(),
		Repo:        rt.cfg.ReleaseRepo,
		Asset:       rt.cfg.ModelAsset,
		APIURL:      rt.cfg.GitHubAPIURL,
		DownloadURL: rt.cfg.GitHubURL,
		Logger:      logger.Named("release"),
	})
	return nil
}

func (rt *runtime) history() (*history.Store, error) {
	if rt.store != nil {
		return rt.store, nil
	}
	store, err := history.Open(rt.cfg.DBPath, rt.cfg.HistoryDir(), rt.logger.Named("history"))
	if err != nil {
		return nil, errors.Wrap(err, "open history")
	}
	rt.store = store
	return store, nil
}

// channel is the --channel flag when set, otherwise the configured channel.
func (rt *runtime) channel(c *cli.Context) release.Channel {
	for _, ctx := range c.Lineage() {
		if v := ctx.String(flagChannel); v != "" {
			return release.ParseChannel(v)
		}
	}
	return release.ParseChannel(rt.cfg.ModelChannel)
}

func (rt *runtime) close() error {
	var err error
	if rt.store != nil {
		err = multierr.Append(err, rt.store.Close())
	}
	if rt.logger != nil {
		// Sync fails on terminals; nothing to report.
		_ = rt.logger.Sync()
	}
	return err
}
