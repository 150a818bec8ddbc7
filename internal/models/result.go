package models

// Overview summarizes what kind of episode was analyzed and what it covers.
type Overview struct {
	Type         string `json:"type"`
	Participants string `json:"participants"`
	CoreIssue    string `json:"coreIssue"`
	Summary      string `json:"summary"`
}

// IsZero reports whether no overview field has been populated.
func (o Overview) IsZero() bool {
	return o.Type == "" && o.Participants == "" && o.CoreIssue == "" && o.Summary == ""
}

// CoreConclusion is one position taken in the episode, with its basis and
// a timestamped source reference.
type CoreConclusion struct {
	Role   string `json:"role"`
	Point  string `json:"point"`
	Basis  string `json:"basis"`
	Source string `json:"source"`
}

// TopicBlock is one discussion segment; Scope is a time range label such as
// "[00:00]-[05:30]".
type TopicBlock struct {
	Title    string `json:"title"`
	Scope    string `json:"scope"`
	CoreView string `json:"coreView"`
}

// Concept is a term defined during the episode.
type Concept struct {
	Term       string `json:"term"`
	Definition string `json:"definition"`
	Source     string `json:"source"`
	Context    string `json:"context"`
	Timestamp  string `json:"timestamp"`
}

// CaseStudy is a story told to prove a point.
type CaseStudy struct {
	Story       string `json:"story"`
	ProvesPoint string `json:"provesPoint"`
	Source      string `json:"source"`
}

// AnalysisResult is the structured summary of one analyzed episode.
//
// Once a terminal Completed event has been observed the result is immutable
// from the engine's perspective; callers may still enrich it (e.g. attach a
// history id).
type AnalysisResult struct {
	Title            string           `json:"title"`
	Overview         Overview         `json:"overview"`
	CoreConclusions  []CoreConclusion `json:"coreConclusions"`
	TopicBlocks      []TopicBlock     `json:"topicBlocks"`
	Concepts         []Concept        `json:"concepts"`
	Cases            []CaseStudy      `json:"cases"`
	ActionableAdvice []string         `json:"actionableAdvice"`
	CriticalReview   string           `json:"criticalReview"`
	Transcript       string           `json:"transcript"`
	LocalAudioPath   string           `json:"local_audio_path,omitempty"`
}

// HasCore reports whether the result is structurally valid enough to render:
// it must carry both a title and an overview.
func (r *AnalysisResult) HasCore() bool {
	return r != nil && r.Title != "" && !r.Overview.IsZero()
}

// Merge folds a partial result into r. Populated fields of the partial
// overwrite the corresponding fields of r; empty fields leave r untouched.
func (r *AnalysisResult) Merge(partial *AnalysisResult) {
	if partial == nil {
		return
	}
	if partial.Title != "" {
		r.Title = partial.Title
	}
	if !partial.Overview.IsZero() {
		r.Overview = partial.Overview
	}
	if len(partial.CoreConclusions) > 0 {
		r.CoreConclusions = partial.CoreConclusions
	}
	if len(partial.TopicBlocks) > 0 {
		r.TopicBlocks = partial.TopicBlocks
	}
	if len(partial.Concepts) > 0 {
		r.Concepts = partial.Concepts
	}
	if len(partial.Cases) > 0 {
		r.Cases = partial.Cases
	}
	if len(partial.ActionableAdvice) > 0 {
		r.ActionableAdvice = partial.ActionableAdvice
	}
	if partial.CriticalReview != "" {
		r.CriticalReview = partial.CriticalReview
	}
	if partial.Transcript != "" {
		r.Transcript = partial.Transcript
	}
	if partial.LocalAudioPath != "" {
		r.LocalAudioPath = partial.LocalAudioPath
	}
}
