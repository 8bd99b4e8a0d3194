package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentic-research/splash/api"
	"github.com/agentic-research/splash/internal/assets"
	"github.com/agentic-research/splash/internal/config"
	"github.com/agentic-research/splash/internal/ibtool"
	"github.com/agentic-research/splash/internal/manifest"
	"github.com/agentic-research/splash/internal/pipeline"
	"github.com/agentic-research/splash/internal/workspace"
)

var (
	manifestPath string
	projectPath  string
	contextKind  string
	sourcePath   string
	templatePath string
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Write the launch screen for a build workspace",
	Long: `Copies the LaunchScreen.xib template into the workspace, applies the
manifest's splash settings (background color, resize mode, images) and
finalizes it: user builds keep the .xib, service builds compile a .nib.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if templatePath != "" {
			cfg.TemplatePath = templatePath
		}
		start := time.Now()
		res, err := configure(cmd.Context(), cfg, manifestPath, contextKind, projectPath, sourcePath)
		if err != nil {
			return err
		}
		logger.Debug("Configure finished", zap.Duration("elapsed", time.Since(start)))
		_, err = fmt.Fprintln(cmd.OutOrStdout(), res.Artifact)
		return err
	},
}

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Create a default splash.hcl",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		path := filepath.Join(dir, config.FileName)
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		_, err := fmt.Fprintln(cmd.OutOrStdout(), path)
		return err
	},
}

func init() {
	configureCmd.Flags().StringVarP(&manifestPath, "manifest", "m", "app.json", "Path to the app manifest (JSON or YAML)")
	configureCmd.Flags().StringVarP(&projectPath, "project", "p", ".", "Workspace (project) root")
	configureCmd.Flags().StringVar(&contextKind, "context", string(api.KindUser), "Build context: user or service")
	configureCmd.Flags().StringVar(&sourcePath, "source", "", "Shared template source tree (service context)")
	configureCmd.Flags().StringVar(&templatePath, "template", "", "Override the shared template path")
	rootCmd.AddCommand(configureCmd)
	rootCmd.AddCommand(initCmd)
}

// configure loads the manifest and runs the pipeline once. It backs both the
// CLI and the MCP tool.
func configure(ctx context.Context, c config.Config, manifestFile, kind, project, source string) (*pipeline.Result, error) {
	bc, err := buildContext(kind, project, source)
	if err != nil {
		return nil, err
	}
	m, err := manifest.Load(manifestFile)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	p, closePipeline, err := newPipeline(c, logger)
	if err != nil {
		return nil, err
	}
	defer closePipeline()
	return p.Run(ctx, m, bc)
}

func buildContext(kind, project, source string) (api.BuildContext, error) {
	if project == "" {
		return nil, fmt.Errorf("project path is required")
	}
	project, err := filepath.Abs(project)
	if err != nil {
		return nil, err
	}
	switch api.ContextKind(kind) {
	case api.KindUser:
		return api.UserContext{ProjectPath: project}, nil
	case api.KindService:
		if source == "" {
			return nil, fmt.Errorf("--source is required for the service context")
		}
		source, err := filepath.Abs(source)
		if err != nil {
			return nil, err
		}
		return api.ServiceContext{ProjectPath: project, SourcePath: source}, nil
	default:
		return nil, fmt.Errorf("unknown build context %q (want user or service)", kind)
	}
}

// newPipeline wires production collaborators. The returned func releases the
// asset cache, if one is configured.
func newPipeline(c config.Config, l *zap.Logger) (*pipeline.Pipeline, func(), error) {
	timeout, err := c.Timeout()
	if err != nil {
		return nil, nil, err
	}
	ws := workspace.OS()
	fetcher := assets.NewHTTPFetcher(ws, timeout)
	fetcher.Logger = l

	closeFn := func() {}
	if c.AssetCache != "" {
		if err := os.MkdirAll(filepath.Dir(c.AssetCache), 0o755); err != nil {
			return nil, nil, fmt.Errorf("asset cache dir: %w", err)
		}
		cache, err := assets.OpenCache(c.AssetCache)
		if err != nil {
			return nil, nil, err
		}
		fetcher.Cache = cache
		closeFn = func() { _ = cache.Close() }
	}

	return &pipeline.Pipeline{
		FS:           ws,
		Fetcher:      fetcher,
		Compiler:     ibtool.Compiler{Path: c.Compiler},
		Layout:       c.Layout(),
		Platform:     api.Platform(c.Platform),
		TemplatePath: c.TemplatePath,
		Logger:       l,
	}, closeFn, nil
}
