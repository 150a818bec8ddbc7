// Package stream decodes the frame stream returned by the analysis service.
//
// The wire format is SSE-style: each logical event is a line prefixed with
// "data: " carrying a JSON payload, and events are separated by a blank line.
// Transport chunk boundaries are arbitrary, so the decoder buffers incoming
// bytes and only parses a run of bytes once the frame separator has been
// observed.
package stream

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/podlens/podlens/internal/models"
)

// EventKind discriminates decoded analysis events.
type EventKind int

const (
	// Progress carries a stage label, a percent, and free-text detail.
	Progress EventKind = iota
	// ResolvedAudio carries the direct audio URL the service resolved.
	ResolvedAudio
	// Completed carries the final (or incrementally available) result.
	Completed
	// Failed carries a terminal error message.
	Failed
)

func (k EventKind) String() string {
	switch k {
	case Progress:
		return "progress"
	case ResolvedAudio:
		return "resolved_audio"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is one decoded analysis event. Exactly one Completed or Failed event
// terminates a stream.
type Event struct {
	Kind    EventKind
	Stage   string
	Percent float64
	Detail  string
	URL     string
	Result  *models.AnalysisResult
	Message string

	// Partial is set on a non-terminal event whose frame already carried a
	// summary object, letting callers render incrementally.
	Partial *models.AnalysisResult
}

const (
	framePrefix    = "data: "
	frameSeparator = "\n\n"

	noResultMessage = "analysis completed but no result returned"
)

// frame is the wire shape of one event payload.
type frame struct {
	Stage          string                 `json:"stage"`
	Percent        any                    `json:"percent"`
	Msg            string                 `json:"msg"`
	URL            string                 `json:"url"`
	Summary        *models.AnalysisResult `json:"summary"`
	Transcript     string                 `json:"transcript"`
	LocalAudioPath string                 `json:"local_audio_path"`
}

// Decoder turns an incrementally delivered byte stream into an ordered,
// finite sequence of events. One decoder instance serves one submission and
// is not restartable.
type Decoder struct {
	r        io.Reader
	buf      strings.Builder
	chunk    []byte
	pending  []Event
	eof      bool
	terminal bool
}

// NewDecoder creates a decoder reading from r, typically the body of a
// long-lived HTTP response.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r, chunk: make([]byte, 4096)}
}

// Next returns the next decoded event. The second return value is false once
// the stream is exhausted; the last event returned is always terminal. If
// the transport closes without producing a Completed or Failed frame, a
// Failed event is synthesized so callers never block waiting on a terminal
// event that will not arrive.
func (d *Decoder) Next() (Event, bool) {
	for {
		if len(d.pending) > 0 {
			ev := d.pending[0]
			d.pending = d.pending[1:]
			if ev.Kind == Completed || ev.Kind == Failed {
				d.terminal = true
				d.pending = nil
			}
			return ev, true
		}

		if d.terminal {
			return Event{}, false
		}

		if d.eof {
			// One final parse attempt on the unterminated tail: the transport
			// may close immediately after the last frame without a trailing
			// separator.
			d.flushTail()
			if len(d.pending) == 0 && !d.terminal {
				d.terminal = true
				return Event{Kind: Failed, Message: noResultMessage}, true
			}
			if len(d.pending) == 0 {
				return Event{}, false
			}
			continue
		}

		n, err := d.r.Read(d.chunk)
		if n > 0 {
			d.buf.Write(d.chunk[:n])
			d.drainFrames()
		}
		if err != nil {
			d.eof = true
		}
	}
}

// drainFrames parses every complete frame currently buffered, keeping any
// trailing unterminated text for the next read.
func (d *Decoder) drainFrames() {
	text := d.buf.String()
	parts := strings.Split(text, frameSeparator)
	if len(parts) < 2 {
		return
	}

	tail := parts[len(parts)-1]
	for _, part := range parts[:len(parts)-1] {
		if ev, ok := d.parseFrame(part); ok {
			d.pending = append(d.pending, ev)
		}
	}

	d.buf.Reset()
	d.buf.WriteString(tail)
}

// flushTail parses whatever is left in the buffer at end of stream.
func (d *Decoder) flushTail() {
	text := d.buf.String()
	d.buf.Reset()
	for _, part := range strings.Split(text, frameSeparator) {
		if ev, ok := d.parseFrame(part); ok {
			d.pending = append(d.pending, ev)
		}
	}
}

// parseFrame classifies one frame. Malformed JSON is swallowed as non-fatal
// (the frame is skipped) because partial delivery can legitimately truncate
// the final frame; only a payload that explicitly reports a failure stage is
// a terminal error.
func (d *Decoder) parseFrame(text string) (Event, bool) {
	line := strings.TrimSpace(text)
	if !strings.HasPrefix(line, framePrefix) {
		return Event{}, false
	}

	payload := strings.TrimSpace(line[len(framePrefix):])
	if payload == "" {
		return Event{}, false
	}

	var f frame
	if err := json.Unmarshal([]byte(payload), &f); err != nil {
		return Event{}, false
	}

	switch {
	case f.Stage == "error":
		msg := f.Msg
		if msg == "" {
			msg = "unknown error occurred"
		}
		return Event{Kind: Failed, Stage: f.Stage, Message: msg}, true

	case f.Stage == "completed" && f.Summary != nil:
		result := f.Summary
		if f.Transcript != "" {
			result.Transcript = f.Transcript
		}
		if f.LocalAudioPath != "" {
			result.LocalAudioPath = f.LocalAudioPath
		}
		return Event{Kind: Completed, Stage: f.Stage, Result: result}, true

	case f.Stage == "resolved_url" && f.URL != "":
		return Event{Kind: ResolvedAudio, Stage: f.Stage, URL: f.URL}, true

	case f.Stage != "" && f.Percent != nil:
		detail := f.Msg
		if detail == "" {
			detail = f.Stage
		}
		return Event{
			Kind:    Progress,
			Stage:   f.Stage,
			Percent: coercePercent(f.Percent),
			Detail:  detail,
			Partial: f.Summary,
		}, true
	}

	return Event{}, false
}

// coercePercent accepts numeric or string percents; anything unparsable is 0.
func coercePercent(v any) float64 {
	switch p := v.(type) {
	case float64:
		return p
	case string:
		if n, err := strconv.ParseFloat(p, 64); err == nil {
			return n
		}
	}
	return 0
}
