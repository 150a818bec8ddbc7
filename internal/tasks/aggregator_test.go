package tasks

import (
	"testing"

	"github.com/podlens/podlens/internal/models"
	"github.com/podlens/podlens/internal/shared"
	"github.com/podlens/podlens/internal/stream"
)

func TestClassifyStage(t *testing.T) {
	cases := []struct {
		name   string
		stage  string
		detail string
		label  string
		status Status
		coarse bool
	}{
		{"Downloading", "downloading", "", "Fetching audio", Fetching, true},
		{"Download Variant", "download_audio", "", "Fetching audio", Fetching, true},
		{"Slicing", "slicing audio", "", "Preparing audio", Preprocessing, true},
		{"Slicing Named In Detail Only", "processing", "Slicing audio...", "Preparing audio", Preprocessing, true},
		{"Transcribing", "transcribing", "", "Deep listening", Analyzing, true},
		{"Transcribing Named In Detail Only", "processing", "Transcribing chunk 2/5...", "Deep listening", Analyzing, true},
		{"Insights", "extracting insights", "", "Synthesizing insights", Analyzing, true},
		{"Analyzing", "analyzing", "", "Synthesizing insights", Analyzing, true},
		{"Unknown Stage", "warming up", "almost there", "Processing", Idle, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			class := classifyStage(tc.stage, tc.detail)

			if class.label != tc.label {
				t.Errorf("expected label %q, got %q", tc.label, class.label)
			}

			if class.coarse != tc.coarse {
				t.Errorf("expected coarse %v, got %v", tc.coarse, class.coarse)
			}

			if tc.coarse && class.status != tc.status {
				t.Errorf("expected status %v, got %v", tc.status, class.status)
			}
		})
	}
}

func TestAggregator(t *testing.T) {
	t.Run("Unknown Stage Keeps The Coarse Status", func(t *testing.T) {
		agg := NewAggregator()
		agg.Begin()

		agg.Apply(stream.Event{Kind: stream.Progress, Stage: "downloading", Percent: 10})

		if agg.Status() != Fetching {
			t.Fatalf("expected Fetching, got %v", agg.Status())
		}

		agg.Apply(stream.Event{Kind: stream.Progress, Stage: "mystery_stage", Percent: 20})

		if agg.Status() != Fetching {
			t.Errorf("expected coarse status unchanged, got %v", agg.Status())
		}

		if agg.Progress().Stage != "Processing" {
			t.Errorf("expected generic label, got %q", agg.Progress().Stage)
		}

		if agg.Progress().Percent != 20 {
			t.Errorf("expected percent updated, got %v", agg.Progress().Percent)
		}
	})

	t.Run("Generic Stage With Named Detail Advances The Status", func(t *testing.T) {
		agg := NewAggregator()
		agg.Begin()

		agg.Apply(stream.Event{Kind: stream.Progress, Stage: "processing", Detail: "Slicing audio...", Percent: 15})

		if agg.Status() != Preprocessing {
			t.Fatalf("expected Preprocessing, got %v", agg.Status())
		}

		if agg.Progress().Stage != "Preparing audio" {
			t.Errorf("expected preparing label, got %q", agg.Progress().Stage)
		}
	})

	t.Run("Partial Summary Promotes Speculatively", func(t *testing.T) {
		agg := NewAggregator()
		agg.Begin()

		partial := &models.AnalysisResult{
			Title:    "Early Cut",
			Overview: models.Overview{Summary: "rough"},
		}

		agg.Apply(stream.Event{Kind: stream.Progress, Stage: "insight", Percent: 90, Partial: partial})

		if agg.Status() != Completed {
			t.Fatalf("expected speculative completion, got %v", agg.Status())
		}

		if !agg.Speculative() {
			t.Error("expected completion marked speculative")
		}

		final := &models.AnalysisResult{
			Title:      "Final Cut",
			Overview:   models.Overview{Summary: "polished"},
			Transcript: "everything",
		}

		agg.Apply(stream.Event{Kind: stream.Completed, Result: final})

		if agg.Speculative() {
			t.Error("expected terminal result to clear the speculative flag")
		}

		if agg.Result() != final {
			t.Error("expected terminal result to replace the partial wholesale")
		}
	})

	t.Run("Incomplete Partial Does Not Promote", func(t *testing.T) {
		agg := NewAggregator()
		agg.Begin()

		agg.Apply(stream.Event{
			Kind:    stream.Progress,
			Stage:   "insight",
			Partial: &models.AnalysisResult{Title: "No Overview Yet"},
		})

		if agg.Status() == Completed {
			t.Error("partial without an overview should not complete the run")
		}
	})

	t.Run("Failure Classifies The Message", func(t *testing.T) {
		agg := NewAggregator()
		agg.Begin()

		agg.Apply(stream.Event{Kind: stream.Failed, Message: "unauthorized"})

		if agg.Status() != Failed {
			t.Fatalf("expected Failed, got %v", agg.Status())
		}

		if shared.Classify(agg.Err()).Kind != shared.KindUnauthorized {
			t.Errorf("expected unauthorized kind, got %v", agg.Err())
		}
	})

	t.Run("Events After Failure Are Ignored", func(t *testing.T) {
		agg := NewAggregator()
		agg.Begin()

		agg.Apply(stream.Event{Kind: stream.Failed, Message: "boom"})

		if agg.Apply(stream.Event{Kind: stream.Progress, Stage: "downloading"}) {
			t.Error("expected events after failure to be dropped")
		}

		if agg.Status() != Failed {
			t.Errorf("expected Failed to stick, got %v", agg.Status())
		}
	})
}
