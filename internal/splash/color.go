// Package splash resolves manifest splash settings into the visual
// parameters written into a launch screen document.
package splash

import (
	"fmt"
	"regexp"
	"strconv"

	"go.uber.org/zap"
)

// RGB is a color with each channel in [0,1].
type RGB struct {
	R float64
	G float64
	B float64
}

// White is the fallback for unparseable colors.
var White = RGB{R: 1, G: 1, B: 1}

var hexColor = regexp.MustCompile(`(?i)^#?([a-f\d]{2})([a-f\d]{2})([a-f\d]{2})$`)

// ConfigParseError reports a manifest color that is not #RRGGBB.
type ConfigParseError struct {
	Value string
}

func (e *ConfigParseError) Error() string {
	return fmt.Sprintf("invalid hex color %q: expected #RRGGBB", e.Value)
}

// ParseHex parses "#RRGGBB" (leading # optional, any case).
func ParseHex(s string) (RGB, error) {
	m := hexColor.FindStringSubmatch(s)
	if m == nil {
		return White, &ConfigParseError{Value: s}
	}
	return RGB{R: channel(m[1]), G: channel(m[2]), B: channel(m[3])}, nil
}

// ResolveColor parses s and degrades to White with a warning when s is
// malformed. Bad color data never fails a build.
func ResolveColor(s string, logger *zap.Logger) RGB {
	rgb, err := ParseHex(s)
	if err != nil {
		if logger == nil {
			logger = zap.NewNop()
		}
		logger.Warn("Falling back to white launch screen background", zap.Error(err))
		return White
	}
	return rgb
}

func channel(hex string) float64 {
	// The regexp guarantees two hex digits.
	v, _ := strconv.ParseUint(hex, 16, 8)
	return float64(v) / 255
}
