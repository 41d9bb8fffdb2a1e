package texture

import (
	"image"

	"github.com/disintegration/imaging"
)

// UsageClass determines how large a decoded image may stay before caching.
type UsageClass int

const (
	// UsageBackground covers full-canvas backdrops.
	UsageBackground UsageClass = iota
	// UsageGraphic covers foreground graphics.
	UsageGraphic
)

// Per-class maximum pixel dimensions. Anything larger is downscaled before it
// enters the cache so a single oversized asset cannot dominate the budget.
const (
	maxBackgroundDim = 2000
	maxGraphicDim    = 500
)

// MaxDimension returns the per-side pixel ceiling for a usage class.
func MaxDimension(class UsageClass) int {
	if class == UsageBackground {
		return maxBackgroundDim
	}
	return maxGraphicDim
}

// Clamp downscales img to fit within the usage class ceiling, preserving
// aspect ratio. Images already within bounds are returned unchanged.
func Clamp(img image.Image, class UsageClass) image.Image {
	if img == nil {
		return nil
	}
	limit := MaxDimension(class)
	bounds := img.Bounds()
	if bounds.Dx() <= limit && bounds.Dy() <= limit {
		return img
	}
	return imaging.Fit(img, limit, limit, imaging.Lanczos)
}

// AddClamped clamps img for its usage class and inserts it; the entry's cost
// reflects the stored (possibly downscaled) size.
func (c *Cache) AddClamped(key string, img image.Image, class UsageClass) image.Image {
	clamped := Clamp(img, class)
	c.Add(key, clamped)
	return clamped
}
