package xib

import (
	"strconv"

	"github.com/agentic-research/splash/internal/splash"
)

const (
	colorTag           = "color"
	keyAttr            = "key"
	backgroundColorKey = "backgroundColor"
	contentModeAttr    = "contentMode"
)

// ApplyBackgroundColor writes rgb into the backgroundColor <color> that is a
// direct child of the view identified by viewID. A missing view or color
// node leaves the document unchanged.
func ApplyBackgroundColor(doc *Document, viewID string, rgb splash.RGB) {
	view := doc.ElementByID(viewID)
	if view == nil {
		return
	}
	for _, c := range view.FindElements(".//" + colorTag) {
		parent := c.Parent()
		if parent == nil || parent.SelectAttrValue(idAttr, "") != viewID {
			continue
		}
		if c.SelectAttrValue(keyAttr, "") != backgroundColorKey {
			continue
		}
		c.CreateAttr("red", formatChannel(rgb.R))
		c.CreateAttr("green", formatChannel(rgb.G))
		c.CreateAttr("blue", formatChannel(rgb.B))
		return
	}
}

// ApplyContentMode sets contentMode on the image view identified by
// imageViewID. A missing image view leaves the document unchanged.
func ApplyContentMode(doc *Document, imageViewID string, mode splash.ContentMode) {
	imageView := doc.ElementByID(imageViewID)
	if imageView == nil {
		return
	}
	imageView.CreateAttr(contentModeAttr, string(mode))
}

// Mutator applies resolved parameters to the nodes named by a template's
// fixed identifiers.
type Mutator struct {
	BackgroundViewID      string
	BackgroundImageViewID string
}

// Apply runs both mutations. Applying the same params twice is a no-op.
func (m Mutator) Apply(doc *Document, params splash.Params) {
	ApplyBackgroundColor(doc, m.BackgroundViewID, params.Color)
	ApplyContentMode(doc, m.BackgroundImageViewID, params.Mode)
}

func formatChannel(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
