// Package release - Downloads and updates the model from GitHub releases.
//
// Each channel (dev, prod) is a release tag. The release body carries a line
// "**Updated:** YYYY-MM-DD HH:MM UTC"; a local model is stale when that date
// differs from the one recorded when it was downloaded.
package release

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
)

// Channel is a model release track.
type Channel string

const (
	// ChannelDev tracks models built from the development branch.
	ChannelDev Channel = "dev"
	// ChannelProd tracks released models.
	ChannelProd Channel = "prod"
)

// ParseChannel returns dev for "dev" and prod for anything else.
func ParseChannel(s string) Channel {
	if strings.EqualFold(strings.TrimSpace(s), string(ChannelDev)) {
		return ChannelDev
	}
	return ChannelProd
}

// Metadata records which model file is installed locally.
type Metadata struct {
	Channel     Channel `json:"channel"`
	UpdatedAt   string  `json:"updatedAt"`
	SizeBytes   int64   `json:"sizeBytes"`
	DownloadURL string  `json:"downloadUrl"`
}

// UpdateCheck is the result of comparing the local model with the release.
type UpdateCheck struct {
	HasUpdate bool `json:"hasUpdate"`
	// Release date of the remote model; empty when the body has none.
	NewDate string `json:"newDate,omitempty"`
	// Release date of the local model; empty when none is installed.
	CurrentDate string `json:"currentDate,omitempty"`
}

// Asset is one file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Release is the subset of the GitHub release object the manager reads.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Body        string    `json:"body"`
	PublishedAt time.Time `json:"published_at"`
	Assets      []Asset   `json:"assets"`
}

var updatedPattern = regexp.MustCompile(`\*\*Updated:\*\*\s*(\d{4}-\d{2}-\d{2}\s+\d{2}:\d{2}\s+UTC)`)

// ParseReleaseDate extracts the "**Updated:**" date from a release body.
//
// Example:
//
// ```go
//
//	date, ok := ParseReleaseDate("**Updated:** 2024-01-15 10:30 UTC") // "2024-01-15 10:30 UTC", true
//
// ```
func ParseReleaseDate(body string) (string, bool) {
	m := updatedPattern.FindStringSubmatch(body)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// UpdatedAt returns the body date, or the publish time when the body has none.
func (r Release) UpdatedAt() string {
	if date, ok := ParseReleaseDate(r.Body); ok {
		return date
	}
	if r.PublishedAt.IsZero() {
		return ""
	}
	return r.PublishedAt.UTC().Format(time.RFC3339)
}

// decodeMetadata returns nil for anything that is not a metadata object.
func decodeMetadata(data []byte) *Metadata {
	var m Metadata
	if err := json.Unmarshal(data, &m); err != nil || m.Channel == "" {
		return nil
	}
	return &m
}
