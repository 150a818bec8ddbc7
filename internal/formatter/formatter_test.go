package formatter

import (
	"strings"
	"testing"

	"github.com/podlens/podlens/internal/models"
)

func sampleResult() *models.AnalysisResult {
	return &models.AnalysisResult{
		Title: "The Future of Audio",
		Overview: models.Overview{
			Type:         "interview",
			Participants: "Host, Guest",
			CoreIssue:    "Where podcasting is heading",
			Summary:      "A long chat about audio.",
		},
		CoreConclusions: []models.CoreConclusion{
			{Role: "Guest", Point: "Audio is underrated", Basis: "industry data", Source: "[12:30]"},
		},
		TopicBlocks: []models.TopicBlock{
			{Title: "Origins", Scope: "[00:00]-[15:00]", CoreView: "How it started"},
		},
		Concepts: []models.Concept{
			{Term: "parasocial", Definition: "one-sided familiarity", Timestamp: "[22:10]"},
		},
		ActionableAdvice: []string{"Listen more"},
		CriticalReview:   "Thin on evidence in part two.",
		Transcript:       "Hello and welcome.  \n",
	}
}

func TestExportToMarkdown(t *testing.T) {
	out, err := ExportToMarkdown(sampleResult())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	md := string(out)

	for _, want := range []string{
		"# The Future of Audio",
		"## Overview",
		"**Type**: interview",
		"- **Guest**: Audio is underrated (industry data) [[12:30]]",
		"1. **Origins** [00:00]-[15:00]",
		"- **parasocial**: one-sided familiarity [[22:10]]",
		"## Actionable Advice",
		"## Critical Review",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("expected markdown to contain %q\n%s", want, md)
		}
	}

	if _, err := ExportToMarkdown(nil); err == nil {
		t.Error("expected error for nil result")
	}
}

func TestExportToText(t *testing.T) {
	out, err := ExportToText(sampleResult())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	text := string(out)

	if !strings.Contains(text, "Episode: The Future of Audio") {
		t.Errorf("expected title line, got\n%s", text)
	}

	if !strings.Contains(text, "1. Origins [00:00]-[15:00]") {
		t.Errorf("expected topic line, got\n%s", text)
	}
}

func TestExportTranscript(t *testing.T) {
	out, err := ExportTranscript(sampleResult())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if string(out) != "Hello and welcome.\n" {
		t.Errorf("expected trimmed transcript, got %q", out)
	}

	if _, err := ExportTranscript(&models.AnalysisResult{}); err == nil {
		t.Error("expected error for missing transcript")
	}
}
