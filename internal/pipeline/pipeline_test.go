package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/agentic-research/splash/api"
	"github.com/agentic-research/splash/internal/assets"
	"github.com/agentic-research/splash/internal/ibtool"
	"github.com/agentic-research/splash/internal/manifest"
	"github.com/agentic-research/splash/internal/workspace"
	"github.com/agentic-research/splash/internal/xib"
)

const (
	projectDir   = "/proj"
	sourceDir    = "/src"
	supporting   = "/proj/ios/App/Supporting"
	userTemplate = supporting + "/LaunchScreen.xib"
	sharedTmpl   = "/src/ios/Supporting/LaunchScreen.xib"
	compiledPath = supporting + "/Base.lproj/LaunchScreen.nib"
)

// fakeFetcher writes "image:<source>" to dest through the workspace.
type fakeFetcher struct {
	fs   *workspace.FS
	mu   sync.Mutex
	urls []string
	fail map[string]error
}

func (f *fakeFetcher) FetchAndSave(_ context.Context, _, source, dest string) error {
	f.mu.Lock()
	f.urls = append(f.urls, source)
	f.mu.Unlock()
	if err := f.fail[source]; err != nil {
		return err
	}
	return f.fs.WriteFile(dest, []byte("image:"+source))
}

// fakeCompiler "compiles" by prefixing the source document.
type fakeCompiler struct {
	fs    *workspace.FS
	err   error
	calls int
}

func (c *fakeCompiler) Compile(_ context.Context, src, dest string) error {
	c.calls++
	if c.err != nil {
		return c.err
	}
	data, err := c.fs.ReadFile(src)
	if err != nil {
		return err
	}
	return c.fs.WriteFile(dest, append([]byte("NIB\n"), data...))
}

type fixture struct {
	ws       *workspace.FS
	fetcher  *fakeFetcher
	compiler *fakeCompiler
	pipeline *Pipeline
	template []byte
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	template, err := os.ReadFile(filepath.Join("testdata", "LaunchScreen.xib"))
	require.NoError(t, err)

	ws := workspace.New(memfs.New())
	require.NoError(t, ws.WriteFile(userTemplate, template))
	require.NoError(t, ws.WriteFile(sharedTmpl, template))

	f := &fixture{
		ws:       ws,
		fetcher:  &fakeFetcher{fs: ws},
		compiler: &fakeCompiler{fs: ws},
		template: template,
	}
	f.pipeline = &Pipeline{FS: ws, Fetcher: f.fetcher, Compiler: f.compiler}
	return f
}

func mustManifest(t *testing.T, s string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.ParseJSON([]byte(s))
	require.NoError(t, err)
	return m
}

func channel(t *testing.T, doc *xib.Document, attr string) float64 {
	t.Helper()
	view := doc.ElementByID(BackgroundViewID)
	require.NotNil(t, view)
	for _, c := range view.SelectElements("color") {
		if c.SelectAttrValue("key", "") == "backgroundColor" {
			v, err := strconv.ParseFloat(c.SelectAttrValue(attr, ""), 64)
			require.NoError(t, err)
			return v
		}
	}
	t.Fatal("background color node missing")
	return 0
}

func TestRun_UserContextColorOnly(t *testing.T) {
	f := newFixture(t)
	m := mustManifest(t, `{"splash": {"backgroundColor": "#112233"}}`)

	res, err := f.pipeline.Run(context.Background(), m, api.UserContext{ProjectPath: projectDir})
	require.NoError(t, err)
	assert.Equal(t, StateFinalized, res.State)
	assert.True(t, res.Customized)
	assert.Equal(t, userTemplate, res.Artifact)
	assert.Empty(t, res.Images)

	out, err := f.ws.ReadFile(userTemplate)
	require.NoError(t, err)
	doc, err := xib.Parse(out)
	require.NoError(t, err)
	assert.InDelta(t, 0.067, channel(t, doc, "red"), 0.001)
	assert.InDelta(t, 0.133, channel(t, doc, "green"), 0.001)
	assert.InDelta(t, 0.2, channel(t, doc, "blue"), 0.001)
	assert.Equal(t, "scaleAspectFit", doc.ElementByID(BackgroundImageViewID).SelectAttrValue("contentMode", ""))

	assert.Empty(t, f.fetcher.urls)
	assert.False(t, f.ws.Exists(filepath.Join(supporting, assets.UniversalImageName)))
	assert.Zero(t, f.compiler.calls)
	assert.True(t, f.ws.Exists(filepath.Join(projectDir, ".splash/intermediates/LaunchScreen.xib")))
}

func TestRun_ServiceContextImagesAndCompile(t *testing.T) {
	f := newFixture(t)
	m := mustManifest(t, `{"splash": {"imageUrl": "http://x/p.png", "tabletImageUrl": "http://x/t.png", "resizeMode": "cover"}}`)

	res, err := f.pipeline.Run(context.Background(), m, api.ServiceContext{ProjectPath: projectDir, SourcePath: sourceDir})
	require.NoError(t, err)
	assert.Equal(t, compiledPath, res.Artifact)
	assert.Equal(t, 1, f.compiler.calls)

	phone, err := f.ws.ReadFile(filepath.Join(supporting, "launch_background_image~iphone.png"))
	require.NoError(t, err)
	assert.Equal(t, "image:http://x/p.png", string(phone))
	universal, err := f.ws.ReadFile(filepath.Join(supporting, "launch_background_image.png"))
	require.NoError(t, err)
	assert.Equal(t, "image:http://x/t.png", string(universal))
	assert.ElementsMatch(t, []string{
		filepath.Join(supporting, "launch_background_image~iphone.png"),
		filepath.Join(supporting, "launch_background_image.png"),
	}, res.Images)

	compiled, err := f.ws.ReadFile(compiledPath)
	require.NoError(t, err)
	doc, err := xib.Parse(compiled[len("NIB\n"):])
	require.NoError(t, err)
	assert.Equal(t, "scaleAspectFill", doc.ElementByID(BackgroundImageViewID).SelectAttrValue("contentMode", ""))
	assert.InDelta(t, 1.0, channel(t, doc, "red"), 1e-9, "unset color defaults to white")
}

func TestRun_WithoutSplashCopiesVerbatim(t *testing.T) {
	f := newFixture(t)
	// Not parseable: any parse attempt would fail the run.
	garbage := []byte("<document><not-closed")
	require.NoError(t, f.ws.WriteFile(userTemplate, garbage))

	m := mustManifest(t, `{"name": "app", "android": {"splash": {"backgroundColor": "#000000"}}}`)
	res, err := f.pipeline.Run(context.Background(), m, api.UserContext{ProjectPath: projectDir})
	require.NoError(t, err)
	assert.False(t, res.Customized)
	assert.Equal(t, StateFinalized, res.State)

	out, err := f.ws.ReadFile(userTemplate)
	require.NoError(t, err)
	assert.Equal(t, garbage, out, "template must be byte-identical")
	assert.Empty(t, f.fetcher.urls)
}

func TestRun_NilManifestServiceContext(t *testing.T) {
	f := newFixture(t)
	res, err := f.pipeline.Run(context.Background(), nil, api.ServiceContext{ProjectPath: projectDir, SourcePath: sourceDir})
	require.NoError(t, err)
	assert.False(t, res.Customized)

	compiled, err := f.ws.ReadFile(compiledPath)
	require.NoError(t, err)
	assert.Equal(t, append([]byte("NIB\n"), f.template...), compiled)
}

func TestRun_TemplatePathOverride(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ws.WriteFile("/custom/LaunchScreen.xib", []byte("<document/>")))
	f.pipeline.TemplatePath = "/custom/LaunchScreen.xib"

	_, err := f.pipeline.Run(context.Background(), nil, api.ServiceContext{ProjectPath: projectDir, SourcePath: sourceDir})
	require.NoError(t, err)
	compiled, err := f.ws.ReadFile(compiledPath)
	require.NoError(t, err)
	assert.Equal(t, "NIB\n<document/>", string(compiled))
}

func TestRun_MalformedTemplateAbortsBeforeMutation(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ws.WriteFile(userTemplate, []byte("<document>\n<view id=broken/>\n</document>")))
	m := mustManifest(t, `{"splash": {"backgroundColor": "#112233", "imageUrl": "http://x/p.png"}}`)

	_, err := f.pipeline.Run(context.Background(), m, api.UserContext{ProjectPath: projectDir})
	require.Error(t, err)
	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StepCustomize, se.Step)
	assert.Equal(t, KindFormat, se.Kind)
	var fe *xib.FormatError
	assert.ErrorAs(t, err, &fe)

	assert.Empty(t, f.fetcher.urls, "no images after a format failure")
	out, err := f.ws.ReadFile(userTemplate)
	require.NoError(t, err)
	assert.Contains(t, string(out), "id=broken", "final artifact untouched")
}

func TestRun_FetchFailureSurfaces(t *testing.T) {
	f := newFixture(t)
	f.fetcher.fail = map[string]error{
		"http://x/t.png": &assets.FetchError{Source: "http://x/t.png", Dest: "d", Network: true, Err: errors.New("connection refused")},
	}
	m := mustManifest(t, `{"ios": {"splash": {"imageUrl": "http://x/p.png", "tabletImageUrl": "http://x/t.png"}}}`)

	_, err := f.pipeline.Run(context.Background(), m, api.ServiceContext{ProjectPath: projectDir, SourcePath: sourceDir})
	require.Error(t, err)
	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StepProvisionImages, se.Step)
	assert.Equal(t, KindNetwork, se.Kind)
	assert.Equal(t, "http://x/t.png", se.URL)
	assert.Contains(t, err.Error(), "connection refused")

	assert.ElementsMatch(t, []string{"http://x/p.png", "http://x/t.png"}, f.fetcher.urls)
	assert.Zero(t, f.compiler.calls, "no finalization after a failed step")
	assert.False(t, f.ws.Exists(compiledPath))
}

func TestRun_MixedFetchFailuresReportTheDownload(t *testing.T) {
	f := newFixture(t)
	f.fetcher.fail = map[string]error{
		"http://x/p.png": &assets.FetchError{Source: "http://x/p.png", Dest: "dp", Err: os.ErrPermission},
		"http://x/t.png": &assets.FetchError{Source: "http://x/t.png", Dest: "dt", Network: true, Err: errors.New("connection refused")},
	}
	m := mustManifest(t, `{"ios": {"splash": {"imageUrl": "http://x/p.png", "tabletImageUrl": "http://x/t.png"}}}`)

	_, err := f.pipeline.Run(context.Background(), m, api.ServiceContext{ProjectPath: projectDir, SourcePath: sourceDir})
	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KindNetwork, se.Kind)
	assert.Equal(t, "http://x/t.png", se.URL)
	assert.Equal(t, "dt", se.Path)
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestProvisionError_LocalOnly(t *testing.T) {
	err := errors.Join(
		&assets.FetchError{Source: "img/p.png", Dest: "dp", Err: os.ErrNotExist},
		&assets.FetchError{Source: "img/t.png", Dest: "dt", Err: os.ErrNotExist},
	)
	se := provisionError(err)
	assert.Equal(t, KindIO, se.Kind)
	assert.Equal(t, "img/p.png", se.URL)
	assert.Equal(t, "dp", se.Path)
}

func TestRun_CompilerFailureSurfaces(t *testing.T) {
	f := newFixture(t)
	f.compiler.err = &ibtool.ToolError{Tool: "ibtool", ExitCode: 1, Stderr: "bad document"}

	_, err := f.pipeline.Run(context.Background(), nil, api.ServiceContext{ProjectPath: projectDir, SourcePath: sourceDir})
	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StepFinalize, se.Step)
	assert.Equal(t, KindTool, se.Kind)
	assert.Equal(t, compiledPath, se.Path)
	var te *ibtool.ToolError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, "bad document", te.Stderr)
}

func TestRun_MissingTemplate(t *testing.T) {
	f := newFixture(t)
	_, err := f.pipeline.Run(context.Background(), nil, api.ServiceContext{ProjectPath: projectDir, SourcePath: "/nowhere"})
	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StepAcquireTemplate, se.Step)
	assert.Equal(t, KindIO, se.Kind)
	assert.Equal(t, "/nowhere/ios/Supporting/LaunchScreen.xib", se.Path)
}

func TestRun_IntermediatesBlockedByFile(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ws.WriteFile(filepath.Join(projectDir, ".splash/intermediates"), []byte("file")))

	_, err := f.pipeline.Run(context.Background(), nil, api.UserContext{ProjectPath: projectDir})
	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, StepEnsureDir, se.Step)
	assert.ErrorIs(t, err, workspace.ErrNotDirectory)
}

func TestRun_MalformedColorWarnsAndUsesWhite(t *testing.T) {
	f := newFixture(t)
	core, logs := observer.New(zapcore.WarnLevel)
	f.pipeline.Logger = zap.New(core)
	m := mustManifest(t, `{"ios": {"splash": {"backgroundColor": "#12"}}, "splash": {"backgroundColor": "#000000"}}`)

	res, err := f.pipeline.Run(context.Background(), m, api.UserContext{ProjectPath: projectDir})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.Params.Color.R)
	assert.Equal(t, 1, logs.FilterMessageSnippet("white").Len())
}

func TestRun_RerunIsStable(t *testing.T) {
	f := newFixture(t)
	m := mustManifest(t, `{"splash": {"backgroundColor": "#ABCDEF", "resizeMode": "cover", "imageUrl": "http://x/p.png"}}`)
	bc := api.UserContext{ProjectPath: projectDir}

	_, err := f.pipeline.Run(context.Background(), m, bc)
	require.NoError(t, err)
	first, err := f.ws.ReadFile(userTemplate)
	require.NoError(t, err)

	_, err = f.pipeline.Run(context.Background(), m, bc)
	require.NoError(t, err)
	second, err := f.ws.ReadFile(userTemplate)
	require.NoError(t, err)

	if diff := cmp.Diff(string(first), string(second)); diff != "" {
		t.Errorf("second run changed the template (-first +second):\n%s", diff)
	}
}

func TestResolveParams(t *testing.T) {
	p := ResolveParams(api.Splash{}, nil)
	assert.Equal(t, 1.0, p.Color.R)
	assert.Equal(t, "scaleAspectFit", string(p.Mode))

	p = ResolveParams(api.Splash{BackgroundColor: "#000000", ResizeMode: "cover"}, nil)
	assert.Equal(t, 0.0, p.Color.G)
	assert.Equal(t, "scaleAspectFill", string(p.Mode))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "template-acquired", StateTemplateAcquired.String())
	assert.Equal(t, "customized", StateCustomized.String())
	assert.Equal(t, "finalized", StateFinalized.String())
	assert.Equal(t, "network", KindNetwork.String())
}
