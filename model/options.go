package model

import (
	"fmt"
	"strings"
)

// Quality selects how embedded images are re-encoded in the output document.
type Quality int

const (
	// QualityBalanced re-encodes JPEG sources at quality 85 and caps images
	// at 1500 pixels wide.
	QualityBalanced Quality = iota
	// QualityFast re-encodes JPEG sources at quality 60 and caps images at
	// 750 pixels wide.
	QualityFast
	// QualityHigh keeps full resolution and stores every image as PNG.
	QualityHigh
)

// String returns the display name of the quality level.
func (q Quality) String() string {
	switch q {
	case QualityFast:
		return "Fast"
	case QualityHigh:
		return "High Quality"
	default:
		return "Balanced"
	}
}

// Slug returns the lower-case identifier used in forms, flags and config.
func (q Quality) Slug() string {
	switch q {
	case QualityFast:
		return "fast"
	case QualityHigh:
		return "high"
	default:
		return "balanced"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (q Quality) MarshalText() ([]byte, error) {
	return []byte(q.Slug()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (q *Quality) UnmarshalText(b []byte) error {
	parsed, err := ParseQuality(string(b))
	if err != nil {
		return err
	}
	*q = parsed
	return nil
}

// Qualities lists the quality levels in slider order.
func Qualities() []Quality {
	return []Quality{QualityFast, QualityBalanced, QualityHigh}
}

// ParseQuality parses a quality name. Matching ignores case, spaces, dashes
// and underscores, so "High Quality", "high-quality" and "high" are equal.
// An empty string yields QualityBalanced.
func ParseQuality(s string) (Quality, error) {
	key := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))

	switch key {
	case "", "balanced":
		return QualityBalanced, nil
	case "fast":
		return QualityFast, nil
	case "high", "highquality":
		return QualityHigh, nil
	default:
		return QualityBalanced, fmt.Errorf("unknown quality %q (want fast, balanced or high)", s)
	}
}

// Options are the per-request conversion switches.
type Options struct {
	IncludeImages bool    `json:"include_images" yaml:"include_images"`
	IncludeTables bool    `json:"include_tables" yaml:"include_tables"`
	Quality       Quality `json:"quality" yaml:"quality"`
}

// DefaultOptions returns options with images and tables enabled at balanced
// quality.
func DefaultOptions() Options {
	return Options{
		IncludeImages: true,
		IncludeTables: true,
		Quality:       QualityBalanced,
	}
}

// Want returns the extraction work these options require from a source.
func (o Options) Want() Want {
	return Want{Tables: o.IncludeTables, Images: o.IncludeImages}
}
