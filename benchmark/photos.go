package benchmark

import (
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/fishcareyolo/mina/images"
)

// Photo is a decoded benchmark input.
type Photo struct {
	// Path is the file the photo was read from.
	Path  string
	Image image.Image
}

// LoadPhotos reads a photo file, or every JPEG and PNG in a directory sorted
// by name. Decoding happens up front so it is not timed.
//
// Arguments:
//   - path: A photo or a directory of photos.
//
// Returns:
//   - []Photo: The decoded photos.
//   - error: Error if a photo cannot be read or decoded, or none were found.
func LoadPhotos(path string) ([]Photo, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat photo path")
	}
	if !info.IsDir() {
		photo, err := loadPhoto(path)
		if err != nil {
			return nil, err
		}
		return []Photo{photo}, nil
	}

	files, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read directory")
	}

	var photos []Photo
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(file.Name())) {
		case ".jpg", ".jpeg", ".png", ".webp":
			photo, err := loadPhoto(filepath.Join(path, file.Name()))
			if err != nil {
				return nil, err
			}
			photos = append(photos, photo)
		}
	}
	if len(photos) == 0 {
		return nil, errors.Errorf("no photos found in directory: %s", path)
	}

	sort.Slice(photos, func(i, j int) bool {
		return photos[i].Path < photos[j].Path
	})
	return photos, nil
}

func loadPhoto(path string) (Photo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Photo{}, errors.Wrap(err, "failed to read photo")
	}
	encoded, err := images.NewImage(data)
	if err != nil {
		return Photo{}, errors.Wrap(err, path)
	}
	img, err := encoded.Decode()
	if err != nil {
		return Photo{}, errors.Wrap(err, path)
	}
	return Photo{Path: path, Image: img}, nil
}
