// package formatter renders analysis results to plain text and Markdown for
// terminal display and export.
package formatter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/podlens/podlens/internal/models"
)

// ExportToMarkdown converts an AnalysisResult to Markdown format
func ExportToMarkdown(result *models.AnalysisResult) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("no result to export")
	}

	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", result.Title))

	if !result.Overview.IsZero() {
		buf.WriteString("## Overview\n\n")

		if result.Overview.Type != "" {
			buf.WriteString(fmt.Sprintf("**Type**: %s\n", result.Overview.Type))
		}
		if result.Overview.Participants != "" {
			buf.WriteString(fmt.Sprintf("**Participants**: %s\n", result.Overview.Participants))
		}
		if result.Overview.CoreIssue != "" {
			buf.WriteString(fmt.Sprintf("**Core issue**: %s\n", result.Overview.CoreIssue))
		}

		buf.WriteString("\n")

		if result.Overview.Summary != "" {
			buf.WriteString(result.Overview.Summary + "\n\n")
		}
	}

	if len(result.CoreConclusions) > 0 {
		buf.WriteString("## Core Conclusions\n\n")
		for _, c := range result.CoreConclusions {
			buf.WriteString(fmt.Sprintf("- **%s**: %s", c.Role, c.Point))
			if c.Basis != "" {
				buf.WriteString(fmt.Sprintf(" (%s)", c.Basis))
			}
			if c.Source != "" {
				buf.WriteString(fmt.Sprintf(" [%s]", c.Source))
			}
			buf.WriteString("\n")
		}
		buf.WriteString("\n")
	}

	if len(result.TopicBlocks) > 0 {
		buf.WriteString("## Topics\n\n")
		for i, topic := range result.TopicBlocks {
			scope := ""
			if topic.Scope != "" {
				scope = fmt.Sprintf(" %s", topic.Scope)
			}
			buf.WriteString(fmt.Sprintf("%d. **%s**%s\n", i+1, topic.Title, scope))
			if topic.CoreView != "" {
				buf.WriteString(fmt.Sprintf("   %s\n", topic.CoreView))
			}
		}
		buf.WriteString("\n")
	}

	if len(result.Concepts) > 0 {
		buf.WriteString("## Concepts\n\n")
		for _, concept := range result.Concepts {
			buf.WriteString(fmt.Sprintf("- **%s**: %s", concept.Term, concept.Definition))
			if concept.Timestamp != "" {
				buf.WriteString(fmt.Sprintf(" [%s]", concept.Timestamp))
			}
			buf.WriteString("\n")
		}
		buf.WriteString("\n")
	}

	if len(result.Cases) > 0 {
		buf.WriteString("## Cases\n\n")
		for _, cs := range result.Cases {
			buf.WriteString(fmt.Sprintf("- %s", cs.Story))
			if cs.ProvesPoint != "" {
				buf.WriteString(fmt.Sprintf(" (proves: %s)", cs.ProvesPoint))
			}
			buf.WriteString("\n")
		}
		buf.WriteString("\n")
	}

	if len(result.ActionableAdvice) > 0 {
		buf.WriteString("## Actionable Advice\n\n")
		for _, advice := range result.ActionableAdvice {
			buf.WriteString(fmt.Sprintf("- %s\n", advice))
		}
		buf.WriteString("\n")
	}

	if result.CriticalReview != "" {
		buf.WriteString("## Critical Review\n\n")
		buf.WriteString(result.CriticalReview + "\n")
	}

	return buf.Bytes(), nil
}

// ExportToText converts an AnalysisResult to plain text format
func ExportToText(result *models.AnalysisResult) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("no result to export")
	}

	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Episode: %s\n", result.Title))

	if result.Overview.Summary != "" {
		buf.WriteString(fmt.Sprintf("Summary: %s\n", result.Overview.Summary))
	}

	if len(result.TopicBlocks) > 0 {
		buf.WriteString(fmt.Sprintf("Topics: %d\n\n", len(result.TopicBlocks)))

		for i, topic := range result.TopicBlocks {
			line := fmt.Sprintf("%d. %s", i+1, topic.Title)
			if topic.Scope != "" {
				line += " " + topic.Scope
			}
			buf.WriteString(line + "\n")
		}
	}

	if len(result.ActionableAdvice) > 0 {
		buf.WriteString("\nAdvice:\n")
		for _, advice := range result.ActionableAdvice {
			buf.WriteString(fmt.Sprintf("- %s\n", advice))
		}
	}

	return buf.Bytes(), nil
}

// ExportTranscript returns the transcript as displayable text, trimming
// trailing whitespace the service sometimes appends.
func ExportTranscript(result *models.AnalysisResult) ([]byte, error) {
	if result == nil || result.Transcript == "" {
		return nil, fmt.Errorf("no transcript available")
	}

	return []byte(strings.TrimRight(result.Transcript, " \n") + "\n"), nil
}
