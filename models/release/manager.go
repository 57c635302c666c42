package release

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/fishcareyolo/mina/logging"
)

const metadataFile = "metadata.json"

// ErrHTTPStatus is returned for a non-200 response from GitHub.
var ErrHTTPStatus = errors.New("unexpected HTTP status")

// ProgressFunc receives the downloaded fraction in [0, 1].
type ProgressFunc func(progress float64)

// Options configures a Manager.
type Options struct {
	// Directory that holds model files and metadata.json.
	Dir string
	// owner/name of the GitHub repository.
	Repo string
	// Model file name among the release assets.
	Asset string
	// Defaults to https://api.github.com.
	APIURL string
	// Defaults to https://github.com.
	DownloadURL string
	Client      *http.Client
	Logger      *zap.SugaredLogger
}

// Manager installs and updates the local model file.
type Manager struct {
	opts   Options
	client *http.Client
	logger *zap.SugaredLogger
}

// NewManager creates a manager.
func NewManager(opts Options) *Manager {
	if opts.APIURL == "" {
		opts.APIURL = "https://api.github.com"
	}
	if opts.DownloadURL == "" {
		opts.DownloadURL = "https://github.com"
	}
	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{opts: opts, client: client, logger: logger}
}

// ModelPath returns where the model for ch is stored.
func (m *Manager) ModelPath(ch Channel) string {
	return filepath.Join(m.opts.Dir, string(ch)+"_model.onnx")
}

func (m *Manager) releaseURL(ch Channel) string {
	return fmt.Sprintf("%s/repos/%s/releases/tags/%s", m.opts.APIURL, m.opts.Repo, ch)
}

func (m *Manager) assetURL(ch Channel) string {
	return fmt.Sprintf("%s/%s/releases/download/%s/%s", m.opts.DownloadURL, m.opts.Repo, ch, m.opts.Asset)
}

// LoadMetadata returns the installed model's metadata, or nil when there is
// none or it cannot be read.
func (m *Manager) LoadMetadata() *Metadata {
	data, err := os.ReadFile(filepath.Join(m.opts.Dir, metadataFile))
	if err != nil {
		return nil
	}
	return decodeMetadata(data)
}

// SaveMetadata records the installed model.
func (m *Manager) SaveMetadata(md Metadata) error {
	if err := os.MkdirAll(m.opts.Dir, 0o755); err != nil {
		return errors.Wrap(err, "create model directory")
	}
	data, err := json.MarshalIndent(md, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encode metadata")
	}
	return errors.Wrap(os.WriteFile(filepath.Join(m.opts.Dir, metadataFile), data, 0o644), "write metadata")
}

// ClearMetadata forgets the installed model so the next Ensure downloads it.
func (m *Manager) ClearMetadata() error {
	err := os.Remove(filepath.Join(m.opts.Dir, metadataFile))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "remove metadata")
	}
	return nil
}

// ModelExists reports whether the model file for ch is on disk.
func (m *Manager) ModelExists(ch Channel) bool {
	info, err := os.Stat(m.ModelPath(ch))
	return err == nil && !info.IsDir()
}

// FetchRelease reads the release for ch from the GitHub API.
func (m *Manager) FetchRelease(ctx context.Context, ch Channel) (*Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.releaseURL(ch), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build release request")
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "Mina-App")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch release info")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrHTTPStatus, "failed to fetch release info: %s", resp.Status)
	}

	var r Release
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, errors.Wrap(err, "decode release info")
	}
	return &r, nil
}

// CheckForUpdate compares the installed model with the release for ch.
//
// A missing install or one from another channel always needs an update.
// Otherwise the release date must differ from the installed one.
func (m *Manager) CheckForUpdate(ctx context.Context, ch Channel) (UpdateCheck, error) {
	local := m.LoadMetadata()

	r, err := m.FetchRelease(ctx, ch)
	if err != nil {
		return UpdateCheck{}, err
	}
	remote, _ := ParseReleaseDate(r.Body)

	if local == nil || local.Channel != ch {
		check := UpdateCheck{HasUpdate: true, NewDate: remote}
		if local != nil {
			check.CurrentDate = local.UpdatedAt
		}
		return check, nil
	}

	return UpdateCheck{
		HasUpdate:   remote != local.UpdatedAt,
		NewDate:     remote,
		CurrentDate: local.UpdatedAt,
	}, nil
}

// Download fetches the model for ch, replaces the local file and records its
// metadata. The file is written to a temporary name first so a failed
// download never leaves a truncated model behind.
func (m *Manager) Download(ctx context.Context, ch Channel, progress ProgressFunc) (*Metadata, error) {
	if err := os.MkdirAll(m.opts.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create model directory")
	}

	r, err := m.FetchRelease(ctx, ch)
	if err != nil {
		return nil, err
	}
	asset, _ := lo.Find(r.Assets, func(a Asset) bool { return a.Name == m.opts.Asset })

	url := m.assetURL(ch)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build download request")
	}
	req.Header.Set("User-Agent", "Mina-App")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "download model")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(ErrHTTPStatus, "download failed with status: %s", resp.Status)
	}

	total := resp.ContentLength
	if total <= 0 {
		total = asset.Size
	}

	dst := m.ModelPath(ch)
	if err := writeAtomic(dst, &progressReader{r: resp.Body, total: total, fn: progress}); err != nil {
		return nil, err
	}

	size := asset.Size
	if size == 0 {
		if info, err := os.Stat(dst); err == nil {
			size = info.Size()
		}
	}
	md := Metadata{Channel: ch, UpdatedAt: r.UpdatedAt(), SizeBytes: size, DownloadURL: url}
	if err := m.SaveMetadata(md); err != nil {
		return nil, err
	}

	m.logger.Infow("model downloaded", "channel", ch, "updatedAt", md.UpdatedAt, "bytes", size)
	return &md, nil
}

// Ensure makes sure a model for ch is installed and current.
//
// A missing model or one from another channel is downloaded. Otherwise the
// release is checked and a newer model downloaded; if the check itself fails
// the installed model is kept and the failure logged.
func (m *Manager) Ensure(ctx context.Context, ch Channel, progress ProgressFunc) (*Metadata, error) {
	local := m.LoadMetadata()
	if !m.ModelExists(ch) || local == nil || local.Channel != ch {
		md, err := m.Download(ctx, ch, progress)
		return md, errors.Wrap(err, "failed to initialize model")
	}

	check, err := m.CheckForUpdate(ctx, ch)
	if err != nil {
		m.logger.Warnw("update check failed, using local model", "error", err)
		return local, nil
	}
	if !check.HasUpdate {
		return local, nil
	}

	md, err := m.Download(ctx, ch, progress)
	return md, errors.Wrap(err, "failed to update model")
}

// ForceUpdate forgets the installed model and downloads it again.
func (m *Manager) ForceUpdate(ctx context.Context, ch Channel, progress ProgressFunc) (*Metadata, error) {
	if err := m.ClearMetadata(); err != nil {
		return nil, err
	}
	md, err := m.Download(ctx, ch, progress)
	return md, errors.Wrap(err, "failed to update model")
}

func writeAtomic(dst string, r io.Reader) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*.part")
	if err != nil {
		return errors.Wrap(err, "create temporary model file")
	}
	defer func() {
		if err != nil {
			err = multierr.Append(err, os.Remove(tmp.Name()))
		}
	}()

	if _, err = io.Copy(tmp, r); err != nil {
		return multierr.Append(errors.Wrap(err, "write model"), tmp.Close())
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "close model file")
	}
	return errors.Wrap(os.Rename(tmp.Name(), dst), "install model")
}

type progressReader struct {
	r       io.Reader
	total   int64
	written int64
	fn      ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.written += int64(n)
	if p.fn != nil && p.total > 0 && n > 0 {
		p.fn(min(1, float64(p.written)/float64(p.total)))
	}
	return n, err
}
