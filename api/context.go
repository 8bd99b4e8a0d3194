package api

// ContextKind discriminates BuildContext variants.
type ContextKind string

const (
	// KindUser builds inside the user's own project; the final artifact stays a template.
	KindUser ContextKind = "user"
	// KindService builds a shell app from shared sources; the final artifact is compiled.
	KindService ContextKind = "service"
)

// BuildContext describes where launch screen output goes.
// It is a closed set: UserContext and ServiceContext are the only implementations.
type BuildContext interface {
	Kind() ContextKind
	// Project returns the workspace root.
	Project() string

	sealed()
}

// UserContext is a build of the user's own project.
type UserContext struct {
	ProjectPath string `json:"project_path"`
}

// Kind implements BuildContext.
func (UserContext) Kind() ContextKind { return KindUser }

// Project implements BuildContext.
func (c UserContext) Project() string { return c.ProjectPath }

func (UserContext) sealed() {}

// ServiceContext is a build service run. SourcePath points at the shared
// template source tree outside the workspace.
type ServiceContext struct {
	ProjectPath string `json:"project_path"`
	SourcePath  string `json:"source_path"`
}

// Kind implements BuildContext.
func (ServiceContext) Kind() ContextKind { return KindService }

// Project implements BuildContext.
func (c ServiceContext) Project() string { return c.ProjectPath }

func (ServiceContext) sealed() {}

var (
	_ BuildContext = UserContext{}
	_ BuildContext = ServiceContext{}
)
