package ui

import (
	"context"
	"errors"
	"io"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/podlens/podlens/internal/shared"
	"github.com/podlens/podlens/internal/tasks"
	tu "github.com/podlens/podlens/internal/testing"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()

	logger := shared.NewLogger(io.Discard)
	engine := tasks.NewAnalysisEngine(logger, &tu.MockAPI{}, nil)

	return NewModel(context.Background(), engine, nil, nil)
}

func TestStaleRunMessages(t *testing.T) {
	t.Run("Escape Leaves The Progress View And Invalidates The Run", func(t *testing.T) {
		m := newTestModel(t)
		m.view = ProgressView
		m.runToken = 1
		m.progressChan = make(chan tasks.ProgressUpdate, 1)
		m.promptChan = make(chan matchPrompt, 1)

		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		m = updated.(*Model)

		if m.view != InputView {
			t.Fatalf("expected InputView after escape, got %v", m.view)
		}

		if m.runToken != 2 {
			t.Errorf("expected run token bumped, got %d", m.runToken)
		}
	})

	t.Run("Completion From A Dismissed Run Is Dropped", func(t *testing.T) {
		m := newTestModel(t)
		m.view = ProgressView
		m.runToken = 1

		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
		m = updated.(*Model)

		stale := analysisCompleteMsg{
			token: 1,
			err:   errors.New("analysis superseded by a newer submission"),
		}

		updated, _ = m.Update(stale)
		m = updated.(*Model)

		if m.view != InputView {
			t.Errorf("expected dismissed completion ignored, got view %v", m.view)
		}

		if m.err != nil {
			t.Errorf("expected no error surfaced, got %v", m.err)
		}
	})

	t.Run("Stale Progress Is Dropped", func(t *testing.T) {
		m := newTestModel(t)
		m.view = ProgressView
		m.runToken = 3

		updated, cmd := m.Update(progressUpdateMsg{
			token:  2,
			update: tasks.ProgressUpdate{Stage: "Fetching audio", Percent: 10},
		})
		m = updated.(*Model)

		if m.progress.Stage != "" {
			t.Errorf("expected stale progress ignored, got %+v", m.progress)
		}

		if cmd != nil {
			t.Error("expected no re-arm for a stale run")
		}
	})

	t.Run("Current Completion Still Finishes The Run", func(t *testing.T) {
		m := newTestModel(t)
		m.view = ProgressView
		m.runToken = 1

		updated, _ := m.Update(analysisCompleteMsg{
			token: 1,
			run:   &tasks.RunResult{},
		})
		m = updated.(*Model)

		if m.view != ResultView {
			t.Errorf("expected ResultView for the current run, got %v", m.view)
		}
	})

	t.Run("Stale Prompt Is Answered Without Resubmitting", func(t *testing.T) {
		m := newTestModel(t)
		m.view = InputView
		m.runToken = 2

		reply := make(chan tasks.Decision, 1)

		updated, _ := m.Update(matchPromptMsg{
			token:  1,
			prompt: matchPrompt{reply: reply},
		})
		m = updated.(*Model)

		if m.view != InputView {
			t.Errorf("expected prompt from a dismissed run not to change views, got %v", m.view)
		}

		select {
		case decision := <-reply:
			if decision != tasks.OpenExisting {
				t.Errorf("expected OpenExisting reply, got %v", decision)
			}
		default:
			t.Error("expected the blocked engine goroutine to be released")
		}
	})
}
