// Package assets resolves named image and sound assets from a directory
// tree. The runtime never embeds asset bytes; a missing asset is an error the
// caller maps to a benign outcome (image cleared, sound skipped).
package assets

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"canvaslink/core"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif"}
var soundExtensions = []string{".wav", ".mp3", ".caf"}

type store struct {
	root string
}

// NewStore creates an asset store rooted at basePath. Images live under
// images/, sounds under sounds/; lookups try each known extension.
func NewStore(basePath string) core.AssetStore {
	return &store{root: basePath}
}

func (s *store) Image(ctx context.Context, name string) (image.Image, error) {
	log := logrus.WithField("asset", name)

	path, err := s.resolve("images", name, imageExtensions)
	if err != nil {
		log.WithError(err).Warn("image asset not found")
		return nil, err
	}

	img, err := imaging.Open(path)
	if err != nil {
		log.WithError(err).Warn("image asset failed to decode")
		return nil, fmt.Errorf("decode image %s: %w", name, err)
	}
	return img, nil
}

func (s *store) Sound(ctx context.Context, name string) ([]byte, error) {
	log := logrus.WithField("asset", name)

	path, err := s.resolve("sounds", name, soundExtensions)
	if err != nil {
		log.WithError(err).Warn("sound asset not found")
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.WithError(err).Warn("sound asset failed to read")
		return nil, fmt.Errorf("read sound %s: %w", name, err)
	}
	return data, nil
}

// resolve finds the asset file for name, trying the name verbatim first and
// then each known extension.
func (s *store) resolve(kind, name string, extensions []string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty asset name")
	}

	verbatim := filepath.Join(s.root, kind, name)
	if fileExists(verbatim) {
		return verbatim, nil
	}
	for _, ext := range extensions {
		candidate := verbatim + ext
		if fileExists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("asset %s/%s not found under %s", kind, name, s.root)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
