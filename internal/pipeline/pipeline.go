// Package pipeline configures a launch screen for one build: it acquires the
// template, optionally customizes it from the manifest, and finalizes it as a
// template copy or a compiled artifact.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/agentic-research/splash/api"
	"github.com/agentic-research/splash/internal/assets"
	"github.com/agentic-research/splash/internal/manifest"
	"github.com/agentic-research/splash/internal/splash"
	"github.com/agentic-research/splash/internal/workspace"
	"github.com/agentic-research/splash/internal/xib"
)

// Contract with the launch screen template.
const (
	// DefaultBackgroundColor applies when no color is configured anywhere.
	DefaultBackgroundColor = "#FFFFFF"
	// BackgroundViewID is the root view whose backgroundColor is rewritten.
	BackgroundViewID = "OfY-5Y-tS4"
	// BackgroundImageViewID is the image view whose contentMode is rewritten.
	BackgroundImageViewID = "Bsh-cT-K4l"

	TemplateName     = "LaunchScreen.xib"
	CompiledName     = "LaunchScreen.nib"
	baseLocalization = "Base.lproj"
)

// State is the furthest stage a run reached.
type State int

const (
	StateTemplateAcquired State = iota + 1
	StateCustomized
	StateFinalized
)

func (s State) String() string {
	switch s {
	case StateTemplateAcquired:
		return "template-acquired"
	case StateCustomized:
		return "customized"
	case StateFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Compiler compiles a template into its binary form.
type Compiler interface {
	Compile(ctx context.Context, src, dest string) error
}

// Pipeline holds the collaborators for launch screen runs. A Pipeline may be
// reused, but concurrent runs against the same workspace are not supported.
type Pipeline struct {
	FS       *workspace.FS
	Fetcher  assets.Fetcher
	Compiler Compiler
	Layout   workspace.Layout
	// Platform selects the manifest override section. Defaults to iOS.
	Platform api.Platform
	// TemplatePath overrides the shared template for service builds.
	TemplatePath string
	Logger       *zap.Logger
}

// Result describes a completed run.
type Result struct {
	State        State
	Intermediate string
	Artifact     string
	Customized   bool
	Params       splash.Params // zero unless Customized
	Images       []string
}

// Run executes TemplateAcquired → (Customized) → Finalized. Any IO, network,
// format or tool failure aborts the run with a *StepError.
func (p *Pipeline) Run(ctx context.Context, m *manifest.Manifest, bc api.BuildContext) (*Result, error) {
	logger := p.logger().With(zap.String("context", string(bc.Kind())))
	paths := workspace.PathsFor(bc, p.Layout)
	intermediate := filepath.Join(paths.IntermediatesDir, TemplateName)

	logger.Info("Configuring launch screen", zap.String("project", paths.ProjectDir))

	if err := p.FS.EnsureDir(paths.IntermediatesDir); err != nil {
		return nil, ioError(StepEnsureDir, paths.IntermediatesDir, err)
	}

	src, err := p.templateSource(bc, paths)
	if err != nil {
		return nil, &StepError{Step: StepAcquireTemplate, Kind: KindIO, Err: err}
	}
	if err := p.FS.CopyFile(src, intermediate); err != nil {
		return nil, ioError(StepAcquireTemplate, src, err)
	}
	res := &Result{State: StateTemplateAcquired, Intermediate: intermediate}
	logger.Debug("Template acquired", zap.String("step", string(StepAcquireTemplate)), zap.String("path", src))

	platform := p.platform()
	if m.UsesSplash(platform) {
		s := m.Splash(platform)
		res.Params = ResolveParams(s, logger)
		if err := p.customize(intermediate, res.Params); err != nil {
			return nil, err
		}

		prov := &assets.Provisioner{Fetcher: p.Fetcher, Logger: logger}
		images, err := prov.Provision(ctx, s, paths.AssetBaseDir, paths.SupportingDir)
		if err != nil {
			return nil, provisionError(err)
		}
		res.Images = images
		res.Customized = true
		res.State = StateCustomized
		logger.Debug("Template customized", zap.String("step", string(StepCustomize)), zap.Int("images", len(images)))
	} else {
		logger.Debug("Manifest does not customize the splash; keeping template as is")
	}

	artifact, err := p.finalize(ctx, bc, paths, intermediate)
	if err != nil {
		return nil, err
	}
	res.Artifact = artifact
	res.State = StateFinalized
	logger.Info("Launch screen ready", zap.String("path", artifact), zap.Bool("customized", res.Customized))
	return res, nil
}

// ResolveParams turns a splash section into visual parameters. A missing
// color becomes DefaultBackgroundColor; a malformed one becomes white.
func ResolveParams(s api.Splash, logger *zap.Logger) splash.Params {
	color := s.BackgroundColor
	if color == "" {
		color = DefaultBackgroundColor
	}
	return splash.Params{
		Color: splash.ResolveColor(color, logger),
		Mode:  splash.ResolveContentMode(s.ResizeMode),
	}
}

func (p *Pipeline) templateSource(bc api.BuildContext, paths workspace.Paths) (string, error) {
	switch c := bc.(type) {
	case api.UserContext:
		return filepath.Join(paths.SupportingDir, TemplateName), nil
	case api.ServiceContext:
		if p.TemplatePath != "" {
			return p.TemplatePath, nil
		}
		return workspace.SharedTemplatePath(c, TemplateName), nil
	default:
		return "", fmt.Errorf("unsupported build context %T", bc)
	}
}

// customize rewrites the intermediate template in place. Parse failures
// abort before any mutation, so no partially customized document survives.
func (p *Pipeline) customize(path string, params splash.Params) error {
	content, err := p.FS.ReadFile(path)
	if err != nil {
		return ioError(StepCustomize, path, err)
	}
	doc, err := xib.Parse(content)
	if err != nil {
		return &StepError{Step: StepCustomize, Kind: KindFormat, Path: path, Err: err}
	}

	mutator := xib.Mutator{BackgroundViewID: BackgroundViewID, BackgroundImageViewID: BackgroundImageViewID}
	mutator.Apply(doc, params)

	out, err := doc.Serialize()
	if err != nil {
		return &StepError{Step: StepCustomize, Kind: KindFormat, Path: path, Err: err}
	}
	if err := p.FS.WriteFileAtomic(path, out); err != nil {
		return ioError(StepCustomize, path, err)
	}
	return nil
}

func (p *Pipeline) finalize(ctx context.Context, bc api.BuildContext, paths workspace.Paths, intermediate string) (string, error) {
	if bc.Kind() == api.KindUser {
		dest := filepath.Join(paths.SupportingDir, TemplateName)
		if err := p.FS.CopyFile(intermediate, dest); err != nil {
			return "", ioError(StepFinalize, dest, err)
		}
		return dest, nil
	}

	outDir := filepath.Join(paths.SupportingDir, baseLocalization)
	if err := p.FS.EnsureDir(outDir); err != nil {
		return "", ioError(StepFinalize, outDir, err)
	}
	dest := filepath.Join(outDir, CompiledName)
	if p.Compiler == nil {
		return "", &StepError{Step: StepFinalize, Kind: KindTool, Path: dest, Err: fmt.Errorf("no compiler configured")}
	}
	if err := p.Compiler.Compile(ctx, intermediate, dest); err != nil {
		return "", &StepError{Step: StepFinalize, Kind: KindTool, Path: dest, Err: err}
	}
	return dest, nil
}

func (p *Pipeline) platform() api.Platform {
	if p.Platform == "" {
		return api.PlatformIOS
	}
	return p.Platform
}

func (p *Pipeline) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}
