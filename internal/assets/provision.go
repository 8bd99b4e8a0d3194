// Package assets places splash images into the workspace.
package assets

import (
	"context"
	"errors"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agentic-research/splash/api"
)

const (
	// UniversalImageName has no device qualifier; it is the default slot.
	UniversalImageName = "launch_background_image.png"
	// PhoneImageName is only selected on phones.
	PhoneImageName = "launch_background_image~iphone.png"
)

// Output is one image to fetch and the file name it is saved under.
type Output struct {
	Source   string
	Filename string
}

// Plan returns the outputs for a phone and optional tablet image.
// With a tablet image the tablet takes the unqualified (default) name and the
// phone image is saved under the phone-qualified name.
func Plan(phone, tablet string) []Output {
	switch {
	case phone == "":
		return nil
	case tablet == "":
		return []Output{{Source: phone, Filename: UniversalImageName}}
	default:
		return []Output{
			{Source: phone, Filename: PhoneImageName},
			{Source: tablet, Filename: UniversalImageName},
		}
	}
}

// Fetcher fetches an image (remote URL or path relative to baseDir) and
// saves it at dest.
type Fetcher interface {
	FetchAndSave(ctx context.Context, baseDir, source, dest string) error
}

// Provisioner writes planned images concurrently.
type Provisioner struct {
	Fetcher Fetcher
	Logger  *zap.Logger
}

// Provision fetches every planned image for s into targetDir and returns the
// written paths. All fetches run to completion; every failure is returned
// joined, none is dropped. No image URL means nothing is written.
func (p *Provisioner) Provision(ctx context.Context, s api.Splash, baseDir, targetDir string) ([]string, error) {
	outputs := Plan(s.ImageURL, s.TabletImageURL)
	if len(outputs) == 0 {
		return nil, nil
	}
	if p.Fetcher == nil {
		return nil, errors.New("assets: no fetcher configured")
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	paths := make([]string, len(outputs))
	errs := make([]error, len(outputs))

	// A plain Group: one failed fetch must not cancel its sibling.
	var g errgroup.Group
	for i, out := range outputs {
		dest := filepath.Join(targetDir, out.Filename)
		paths[i] = dest
		g.Go(func() error {
			logger.Debug("Fetching splash image", zap.String("url", out.Source), zap.String("path", dest))
			if err := p.Fetcher.FetchAndSave(ctx, baseDir, out.Source, dest); err != nil {
				errs[i] = err
				return err
			}
			return nil
		})
	}
	_ = g.Wait() // every error is in errs

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return paths, nil
}
