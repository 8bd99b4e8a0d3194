package api

// Platform names a manifest section that can override shared keys.
type Platform string

// PlatformIOS is the only platform the launch screen pipeline targets.
const PlatformIOS Platform = "ios"

// Splash is the resolved splash section of an application manifest.
// Empty strings mean the field was not configured.
type Splash struct {
	// BackgroundColor is a hex color string, e.g. "#112233".
	BackgroundColor string `json:"backgroundColor,omitempty" yaml:"backgroundColor,omitempty"`
	// ImageURL is the phone (or universal) splash image. Remote URL or local path.
	ImageURL string `json:"imageUrl,omitempty" yaml:"imageUrl,omitempty"`
	// TabletImageURL is the tablet splash image, taken from the same section as ImageURL.
	TabletImageURL string `json:"tabletImageUrl,omitempty" yaml:"tabletImageUrl,omitempty"`
	// ResizeMode is "cover" or anything else (treated as "contain").
	ResizeMode string `json:"resizeMode,omitempty" yaml:"resizeMode,omitempty"`
}
