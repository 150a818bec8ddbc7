package tasks

import (
	"errors"
	"strings"

	"github.com/podlens/podlens/internal/models"
	"github.com/podlens/podlens/internal/shared"
	"github.com/podlens/podlens/internal/stream"
)

// Status is the coarse lifecycle state of one analysis run.
type Status int

const (
	Idle Status = iota
	Submitting
	Fetching
	Preprocessing
	Analyzing
	Completed
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Fetching:
		return "fetching"
	case Preprocessing:
		return "preprocessing"
	case Analyzing:
		return "analyzing"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// Terminal reports whether no further events can move the run forward.
func (s Status) Terminal() bool {
	return s == Completed || s == Failed
}

// ProgressState is the fine-grained progress line shown beneath the coarse
// status.
type ProgressState struct {
	Stage   string  // Display label for the current stage
	Percent float64 // 0..100 as reported by the service
	Detail  string  // Raw detail text from the frame, if any
}

// stageClass pairs a display label with the coarse status it implies.
type stageClass struct {
	label  string
	status Status
	coarse bool
}

// classifyStage maps a raw stage token and its detail text from the wire to
// a display label and, for recognized stages, a coarse status transition.
// The detail participates because the service reports some phases under a
// generic stage with the phase named only in the message (slicing arrives as
// stage "processing", detail "Slicing audio..."). Unrecognized frames keep
// the previous coarse status and display as generic processing.
func classifyStage(stage, detail string) stageClass {
	lower := strings.ToLower(stage + " " + detail)

	switch {
	case strings.Contains(lower, "download"):
		return stageClass{label: "Fetching audio", status: Fetching, coarse: true}
	case strings.Contains(lower, "slic"):
		return stageClass{label: "Preparing audio", status: Preprocessing, coarse: true}
	case strings.Contains(lower, "transcrib"):
		return stageClass{label: "Deep listening", status: Analyzing, coarse: true}
	case strings.Contains(lower, "insight"), strings.Contains(lower, "analyz"):
		return stageClass{label: "Synthesizing insights", status: Analyzing, coarse: true}
	default:
		return stageClass{label: "Processing", coarse: false}
	}
}

// Aggregator folds the decoded event stream into a single renderable run
// state. It is not safe for concurrent use; the engine serializes event
// delivery.
type Aggregator struct {
	status   Status
	progress ProgressState
	result   *models.AnalysisResult
	audioURL string
	err      error

	// speculative is set when a partial summary promoted the run to
	// Completed before the terminal frame arrived. A later terminal
	// Completed overwrites the speculative result wholesale.
	speculative bool
}

// NewAggregator returns an aggregator in the Idle state.
func NewAggregator() *Aggregator {
	return &Aggregator{status: Idle}
}

// Begin marks the run as submitted. Resets any state left by a previous run.
func (a *Aggregator) Begin() {
	*a = Aggregator{status: Submitting}
}

// Apply folds one decoded event into the run state and reports whether the
// event changed anything a renderer would care about.
func (a *Aggregator) Apply(event stream.Event) bool {
	if a.status == Failed {
		return false
	}

	switch event.Kind {
	case stream.Progress:
		return a.applyProgress(event)
	case stream.ResolvedAudio:
		a.audioURL = event.URL
		return true
	case stream.Completed:
		a.complete(event.Result)
		return true
	case stream.Failed:
		a.fail(shared.Classify(errors.New(event.Message)))
		return true
	}

	return false
}

func (a *Aggregator) applyProgress(event stream.Event) bool {
	class := classifyStage(event.Stage, event.Detail)

	a.progress = ProgressState{
		Stage:   class.label,
		Percent: event.Percent,
		Detail:  event.Detail,
	}

	if class.coarse && !a.status.Terminal() {
		a.status = class.status
	}

	// A partial summary carried on a progress frame lets the UI render the
	// result early. Promotion only happens once the partial is structurally
	// renderable.
	if event.Partial != nil {
		if a.result == nil {
			a.result = &models.AnalysisResult{}
		}

		a.result.Merge(event.Partial)

		if a.result.HasCore() && a.status != Completed {
			a.status = Completed
			a.speculative = true
		}
	}

	return true
}

// complete installs the terminal result. A terminal result replaces any
// speculative partial wholesale rather than merging into it.
func (a *Aggregator) complete(result *models.AnalysisResult) {
	a.result = result
	a.status = Completed
	a.speculative = false
}

func (a *Aggregator) fail(err error) {
	a.err = err
	a.status = Failed
}

// Fail records a failure that originated outside the event stream, such as a
// transport error or rejected submission.
func (a *Aggregator) Fail(err error) {
	a.fail(err)
}

func (a *Aggregator) Status() Status { return a.status }
func (a *Aggregator) Progress() ProgressState { return a.progress }
func (a *Aggregator) Result() *models.AnalysisResult { return a.result }
func (a *Aggregator) AudioURL() string { return a.audioURL }
func (a *Aggregator) Err() error { return a.err }
func (a *Aggregator) Speculative() bool { return a.speculative }
