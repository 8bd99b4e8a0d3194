// Package workspace resolves build workspace paths and performs the file
// operations the launch screen pipeline needs.
package workspace

import (
	"path/filepath"

	"github.com/agentic-research/splash/api"
)

const (
	// DefaultSupportingName is the iOS target directory under <project>/ios.
	DefaultSupportingName = "App"
	// DefaultIntermediatesDir is relative to the project root.
	DefaultIntermediatesDir = ".splash/intermediates"
)

// Layout customizes where the workspace keeps its files.
type Layout struct {
	SupportingName   string
	IntermediatesDir string // relative to the project root, or absolute
}

func (l Layout) withDefaults() Layout {
	if l.SupportingName == "" {
		l.SupportingName = DefaultSupportingName
	}
	if l.IntermediatesDir == "" {
		l.IntermediatesDir = DefaultIntermediatesDir
	}
	return l
}

// Paths are the resolved workspace locations for one build context.
type Paths struct {
	ProjectDir       string
	SupportingDir    string
	IntermediatesDir string
	// AssetBaseDir resolves relative image paths from the manifest.
	AssetBaseDir string
}

// PathsFor resolves paths for bc. It never touches the filesystem.
func PathsFor(bc api.BuildContext, layout Layout) Paths {
	layout = layout.withDefaults()
	project := bc.Project()

	intermediates := layout.IntermediatesDir
	if !filepath.IsAbs(intermediates) {
		intermediates = filepath.Join(project, intermediates)
	}

	p := Paths{
		ProjectDir:       project,
		SupportingDir:    filepath.Join(project, "ios", layout.SupportingName, "Supporting"),
		IntermediatesDir: intermediates,
	}
	switch bc.Kind() {
	case api.KindUser:
		p.AssetBaseDir = project
	default:
		p.AssetBaseDir = p.SupportingDir
	}
	return p
}

// SharedTemplatePath is where a service build finds the launch screen
// template inside the shared source tree.
func SharedTemplatePath(sc api.ServiceContext, name string) string {
	return filepath.Join(sc.SourcePath, "ios", "Supporting", name)
}
