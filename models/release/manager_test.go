package release

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fishcareyolo/mina/logging"
)

const testAsset = "best.onnx"

type fakeGitHub struct {
	updated   atomic.Value
	model     []byte
	releases  atomic.Int32
	downloads atomic.Int32
	fail      atomic.Bool
}

func newFakeGitHub(t *testing.T, updated string, model []byte) (*fakeGitHub, *httptest.Server) {
	t.Helper()
	f := &fakeGitHub{model: model}
	f.updated.Store(updated)

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/fish/mina/releases/tags/", func(w http.ResponseWriter, r *http.Request) {
		f.releases.Add(1)
		if f.fail.Load() {
			http.Error(w, "rate limited", http.StatusForbidden)
			return
		}
		assert.Equal(t, "Mina-App", r.Header.Get("User-Agent"))
		_ = json.NewEncoder(w).Encode(Release{
			TagName: filepath.Base(r.URL.Path),
			Body:    fmt.Sprintf("Model build\n\n**Updated:** %s\n", f.updated.Load()),
			Assets:  []Asset{{Name: testAsset, Size: int64(len(f.model))}},
		})
	})
	mux.HandleFunc("/fish/mina/releases/download/", func(w http.ResponseWriter, r *http.Request) {
		f.downloads.Add(1)
		_, _ = w.Write(f.model)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return f, srv
}

func newTestManager(t *testing.T, srv *httptest.Server) *Manager {
	t.Helper()
	return NewManager(Options{
		Dir:         filepath.Join(t.TempDir(), "models"),
		Repo:        "fish/mina",
		Asset:       testAsset,
		APIURL:      srv.URL,
		DownloadURL: srv.URL,
		Client:      srv.Client(),
		Logger:      logging.NewTestLogger(t),
	})
}

func TestParseReleaseDate(t *testing.T) {
	tests := []struct {
		body string
		want string
		ok   bool
	}{
		{body: "**Updated:** 2024-01-15 10:30 UTC", want: "2024-01-15 10:30 UTC", ok: true},
		{body: "Notes\n**Updated:**   2025-06-01   08:05 UTC\nmore", want: "2025-06-01   08:05 UTC", ok: true},
		{body: "**Updated:** yesterday", ok: false},
		{body: "", ok: false},
	}

	for _, tt := range tests {
		got, ok := ParseReleaseDate(tt.body)
		assert.Equal(t, tt.ok, ok, tt.body)
		assert.Equal(t, tt.want, got, tt.body)
	}
}

func TestParseChannel(t *testing.T) {
	assert.Equal(t, ChannelDev, ParseChannel("dev"))
	assert.Equal(t, ChannelDev, ParseChannel(" DEV "))
	assert.Equal(t, ChannelProd, ParseChannel("prod"))
	assert.Equal(t, ChannelProd, ParseChannel("beta"))
	assert.Equal(t, ChannelProd, ParseChannel(""))
}

func TestDownload(t *testing.T) {
	model := []byte("onnx model bytes")
	_, srv := newFakeGitHub(t, "2024-01-15 10:30 UTC", model)
	m := newTestManager(t, srv)

	var progress []float64
	md, err := m.Download(context.Background(), ChannelDev, func(p float64) { progress = append(progress, p) })
	require.NoError(t, err)

	assert.Equal(t, ChannelDev, md.Channel)
	assert.Equal(t, "2024-01-15 10:30 UTC", md.UpdatedAt)
	assert.Equal(t, int64(len(model)), md.SizeBytes)
	assert.Equal(t, srv.URL+"/fish/mina/releases/download/dev/best.onnx", md.DownloadURL)

	data, err := os.ReadFile(m.ModelPath(ChannelDev))
	require.NoError(t, err)
	assert.Equal(t, model, data)

	require.NotEmpty(t, progress)
	assert.Equal(t, 1.0, progress[len(progress)-1])

	assert.Equal(t, md, m.LoadMetadata())
}

func TestCheckForUpdate(t *testing.T) {
	fake, srv := newFakeGitHub(t, "2024-01-15 10:30 UTC", []byte("v1"))
	m := newTestManager(t, srv)
	ctx := context.Background()

	check, err := m.CheckForUpdate(ctx, ChannelProd)
	require.NoError(t, err)
	assert.Equal(t, UpdateCheck{HasUpdate: true, NewDate: "2024-01-15 10:30 UTC"}, check)

	_, err = m.Download(ctx, ChannelProd, nil)
	require.NoError(t, err)

	check, err = m.CheckForUpdate(ctx, ChannelProd)
	require.NoError(t, err)
	assert.False(t, check.HasUpdate)

	fake.updated.Store("2024-02-01 09:00 UTC")
	check, err = m.CheckForUpdate(ctx, ChannelProd)
	require.NoError(t, err)
	assert.Equal(t, UpdateCheck{HasUpdate: true, NewDate: "2024-02-01 09:00 UTC", CurrentDate: "2024-01-15 10:30 UTC"}, check)

	check, err = m.CheckForUpdate(ctx, ChannelDev)
	require.NoError(t, err)
	assert.True(t, check.HasUpdate, "another channel always needs a download")
}

func TestEnsure(t *testing.T) {
	fake, srv := newFakeGitHub(t, "2024-01-15 10:30 UTC", []byte("v1"))
	m := newTestManager(t, srv)
	ctx := context.Background()

	md, err := m.Ensure(ctx, ChannelProd, nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-01-15 10:30 UTC", md.UpdatedAt)
	assert.Equal(t, int32(1), fake.downloads.Load())

	_, err = m.Ensure(ctx, ChannelProd, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), fake.downloads.Load(), "current model is not downloaded again")

	fake.updated.Store("2024-03-01 12:00 UTC")
	md, err = m.Ensure(ctx, ChannelProd, nil)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01 12:00 UTC", md.UpdatedAt)
	assert.Equal(t, int32(2), fake.downloads.Load())

	fake.fail.Store(true)
	md, err = m.Ensure(ctx, ChannelProd, nil)
	require.NoError(t, err, "a failed update check keeps the local model")
	assert.Equal(t, "2024-03-01 12:00 UTC", md.UpdatedAt)
}

func TestEnsureWithoutNetwork(t *testing.T) {
	fake, srv := newFakeGitHub(t, "2024-01-15 10:30 UTC", []byte("v1"))
	fake.fail.Store(true)
	m := newTestManager(t, srv)

	_, err := m.Ensure(context.Background(), ChannelProd, nil)
	assert.True(t, errors.Is(err, ErrHTTPStatus))
	assert.False(t, m.ModelExists(ChannelProd))
}

func TestForceUpdate(t *testing.T) {
	fake, srv := newFakeGitHub(t, "2024-01-15 10:30 UTC", []byte("v1"))
	m := newTestManager(t, srv)
	ctx := context.Background()

	_, err := m.Ensure(ctx, ChannelProd, nil)
	require.NoError(t, err)
	_, err = m.ForceUpdate(ctx, ChannelProd, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fake.downloads.Load())
}

func TestLoadMetadataCorrupt(t *testing.T) {
	_, srv := newFakeGitHub(t, "2024-01-15 10:30 UTC", nil)
	m := newTestManager(t, srv)

	assert.Nil(t, m.LoadMetadata())
	require.NoError(t, os.MkdirAll(m.opts.Dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(m.opts.Dir, metadataFile), []byte("{not json"), 0o644))
	assert.Nil(t, m.LoadMetadata())
	require.NoError(t, m.ClearMetadata())
	require.NoError(t, m.ClearMetadata(), "clearing twice is fine")
}
