package splash

// ContentMode is an Interface Builder image view content mode.
type ContentMode string

const (
	// ContentModeFill scales the image to fill the view, cropping as needed.
	ContentModeFill ContentMode = "scaleAspectFill"
	// ContentModeFit scales the image to fit inside the view.
	ContentModeFit ContentMode = "scaleAspectFit"
)

const resizeCover = "cover"

// ResolveContentMode maps a manifest resizeMode to a content mode. Only the
// exact string "cover" fills; everything else, including "", fits.
func ResolveContentMode(resizeMode string) ContentMode {
	if resizeMode == resizeCover {
		return ContentModeFill
	}
	return ContentModeFit
}

// Params are the resolved visual parameters for one run.
type Params struct {
	Color RGB
	Mode  ContentMode
}
