package stream

import (
	"io"
	"reflect"
	"strings"
	"testing"
)

// chunkedReader serves its contents in fixed-size pieces to simulate
// arbitrary transport chunk boundaries.
type chunkedReader struct {
	data  []byte
	pos   int
	chunk int
}

func (c *chunkedReader) Read(p []byte) (int, error) {
	if c.pos >= len(c.data) {
		return 0, io.EOF
	}
	end := c.pos + c.chunk
	if end > len(c.data) {
		end = len(c.data)
	}
	n := copy(p, c.data[c.pos:end])
	c.pos += n
	return n, nil
}

func collect(t *testing.T, r io.Reader) []Event {
	t.Helper()
	dec := NewDecoder(r)
	var events []Event
	for {
		ev, ok := dec.Next()
		if !ok {
			break
		}
		events = append(events, ev)
	}
	return events
}

const wellFormedStream = `data: {"stage": "downloading", "percent": 5, "msg": "Downloading audio..."}

data: {"stage": "resolved_url", "url": "https://cdn.example.com/ep123.m4a"}

data: {"stage": "transcribing", "percent": 40, "msg": "Transcribing chunk 2/5"}

data: {"stage": "analyzing", "percent": 75, "msg": "Generating deep insights..."}

data: {"stage": "completed", "summary": {"title": "Test Episode", "overview": {"type": "interview", "participants": "A, B", "coreIssue": "testing", "summary": "a test"}}, "transcript": "hello world"}

`

func TestDecoder(t *testing.T) {
	t.Run("Well Formed Stream", func(t *testing.T) {
		events := collect(t, strings.NewReader(wellFormedStream))

		kinds := make([]EventKind, len(events))
		for i, ev := range events {
			kinds[i] = ev.Kind
		}
		want := []EventKind{Progress, ResolvedAudio, Progress, Progress, Completed}
		if !reflect.DeepEqual(kinds, want) {
			t.Fatalf("event kinds = %v, want %v", kinds, want)
		}

		if events[0].Percent != 5 || events[0].Stage != "downloading" {
			t.Errorf("unexpected first progress event: %+v", events[0])
		}
		if events[1].URL != "https://cdn.example.com/ep123.m4a" {
			t.Errorf("unexpected resolved URL: %s", events[1].URL)
		}

		final := events[len(events)-1]
		if final.Result == nil {
			t.Fatal("completed event missing result")
		}
		if final.Result.Title != "Test Episode" {
			t.Errorf("expected title 'Test Episode', got %q", final.Result.Title)
		}
		if final.Result.Transcript != "hello world" {
			t.Errorf("expected transcript merged into result, got %q", final.Result.Transcript)
		}
	})

	t.Run("Identical Events For Every Chunk Size", func(t *testing.T) {
		reference := collect(t, strings.NewReader(wellFormedStream))

		for size := 1; size <= len(wellFormedStream); size++ {
			events := collect(t, &chunkedReader{data: []byte(wellFormedStream), chunk: size})
			if !reflect.DeepEqual(events, reference) {
				t.Fatalf("chunk size %d produced different events: got %d, want %d", size, len(events), len(reference))
			}
		}
	})

	t.Run("Missing Trailing Separator", func(t *testing.T) {
		input := strings.TrimSuffix(wellFormedStream, "\n\n")
		events := collect(t, strings.NewReader(input))
		if events[len(events)-1].Kind != Completed {
			t.Errorf("expected final frame parsed at EOF, got %v", events[len(events)-1].Kind)
		}
	})

	t.Run("No Terminal Frame Synthesizes Failure", func(t *testing.T) {
		input := "data: {\"stage\": \"downloading\", \"percent\": 10, \"msg\": \"Downloading audio...\"}\n\n"
		events := collect(t, strings.NewReader(input))

		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %d", len(events))
		}
		if events[1].Kind != Failed {
			t.Fatalf("expected synthesized Failed event, got %v", events[1].Kind)
		}
		if !strings.Contains(events[1].Message, "no result returned") {
			t.Errorf("unexpected synthesized message: %q", events[1].Message)
		}
	})

	t.Run("Empty Stream", func(t *testing.T) {
		events := collect(t, strings.NewReader(""))
		if len(events) != 1 || events[0].Kind != Failed {
			t.Fatalf("expected exactly one synthesized Failed event, got %+v", events)
		}
	})

	t.Run("Malformed Frame Is Skipped", func(t *testing.T) {
		input := "data: {not json}\n\n" +
			"data: {\"stage\": \"analyzing\", \"percent\": 50, \"msg\": \"working\"}\n\n" +
			"data: {\"stage\": \"error\", \"msg\": \"upstream exploded\"}\n\n"
		events := collect(t, strings.NewReader(input))

		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %d", len(events))
		}
		if events[0].Kind != Progress || events[1].Kind != Failed {
			t.Errorf("unexpected kinds: %v, %v", events[0].Kind, events[1].Kind)
		}
		if events[1].Message != "upstream exploded" {
			t.Errorf("expected error message carried through, got %q", events[1].Message)
		}
	})

	t.Run("Error Frame Without Message Gets Default", func(t *testing.T) {
		events := collect(t, strings.NewReader("data: {\"stage\": \"error\"}\n\n"))
		if len(events) != 1 || events[0].Kind != Failed {
			t.Fatalf("expected one Failed event, got %+v", events)
		}
		if events[0].Message == "" {
			t.Error("expected a default message for error frame without msg")
		}
	})

	t.Run("Decoding Stops At First Terminal Event", func(t *testing.T) {
		input := "data: {\"stage\": \"error\", \"msg\": \"boom\"}\n\n" +
			"data: {\"stage\": \"analyzing\", \"percent\": 99, \"msg\": \"never seen\"}\n\n"
		events := collect(t, strings.NewReader(input))
		if len(events) != 1 {
			t.Fatalf("expected decoding to stop at terminal, got %d events", len(events))
		}
	})

	t.Run("Percent Coercion", func(t *testing.T) {
		input := "data: {\"stage\": \"transcribing\", \"percent\": \"42.5\", \"msg\": \"as string\"}\n\n" +
			"data: {\"stage\": \"transcribing\", \"percent\": \"n/a\", \"msg\": \"bogus\"}\n\n" +
			"data: {\"stage\": \"error\", \"msg\": \"done\"}\n\n"
		events := collect(t, strings.NewReader(input))

		if len(events) != 3 {
			t.Fatalf("expected 3 events, got %d", len(events))
		}
		if events[0].Percent != 42.5 {
			t.Errorf("expected string percent coerced to 42.5, got %v", events[0].Percent)
		}
		if events[1].Percent != 0 {
			t.Errorf("expected unparsable percent coerced to 0, got %v", events[1].Percent)
		}
	})

	t.Run("Partial Summary On Progress Frame", func(t *testing.T) {
		input := "data: {\"stage\": \"analyzing\", \"percent\": 90, \"msg\": \"drafting\", \"summary\": {\"title\": \"Early\", \"overview\": {\"type\": \"talk\", \"participants\": \"\", \"coreIssue\": \"\", \"summary\": \"\"}}}\n\n" +
			"data: {\"stage\": \"error\", \"msg\": \"done\"}\n\n"
		events := collect(t, strings.NewReader(input))

		if events[0].Partial == nil {
			t.Fatal("expected partial summary attached to progress event")
		}
		if events[0].Partial.Title != "Early" {
			t.Errorf("expected partial title 'Early', got %q", events[0].Partial.Title)
		}
	})

	t.Run("Non Data Lines Are Ignored", func(t *testing.T) {
		input := ": keepalive comment\n\n" +
			"data: {\"stage\": \"error\", \"msg\": \"done\"}\n\n"
		events := collect(t, strings.NewReader(input))
		if len(events) != 1 || events[0].Kind != Failed {
			t.Fatalf("expected comment line skipped, got %+v", events)
		}
	})
}
