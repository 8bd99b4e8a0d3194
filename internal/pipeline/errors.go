package pipeline

import (
	"errors"
	"fmt"

	"github.com/agentic-research/splash/internal/assets"
)

// Step names a pipeline stage for error reporting.
type Step string

const (
	StepEnsureDir       Step = "ensure-dir"
	StepAcquireTemplate Step = "acquire-template"
	StepCustomize       Step = "customize"
	StepProvisionImages Step = "provision-images"
	StepFinalize        Step = "finalize"
)

// Kind classifies why a step failed.
type Kind int

const (
	KindIO Kind = iota + 1
	KindNetwork
	KindFormat
	KindTool
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "io"
	case KindNetwork:
		return "network"
	case KindFormat:
		return "format"
	case KindTool:
		return "tool"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// StepError is returned for every failure that aborts a run.
type StepError struct {
	Step Step
	Kind Kind
	Path string // file or directory involved, if any
	URL  string // image source involved, if any
	Err  error
}

func (e *StepError) Error() string {
	where := e.Path
	if e.URL != "" {
		where = e.URL
	}
	if where == "" {
		return fmt.Sprintf("launch screen %s: %s error: %v", e.Step, e.Kind, e.Err)
	}
	return fmt.Sprintf("launch screen %s: %s error at %s: %v", e.Step, e.Kind, where, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func ioError(step Step, path string, err error) *StepError {
	return &StepError{Step: step, Kind: KindIO, Path: path, Err: err}
}

// provisionError classifies joined fetch failures. Any failed download makes
// the whole step a network failure, reported against that download's URL.
func provisionError(err error) *StepError {
	se := &StepError{Step: StepProvisionImages, Kind: KindIO, Err: err}
	fe := assets.NetworkError(err)
	if fe != nil {
		se.Kind = KindNetwork
	} else {
		errors.As(err, &fe)
	}
	if fe != nil {
		se.URL = fe.Source
		se.Path = fe.Dest
	}
	return se
}
