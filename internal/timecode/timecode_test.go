package timecode

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	t.Run("Valid Labels", func(t *testing.T) {
		cases := []struct {
			label string
			want  int
		}{
			{"00:00", 0},
			{"01:30", 90},
			{"59:59", 3599},
			{"[05:30]", 330},
			{"  12:07  ", 727},
			{"01:00:00", 3600},
			{"[02:15:42]", 8142},
			{"90:00", 5400},
		}

		for _, c := range cases {
			got, err := Parse(c.label)
			if err != nil {
				t.Errorf("Parse(%q) returned error: %v", c.label, err)
				continue
			}
			if got != c.want {
				t.Errorf("Parse(%q) = %d, want %d", c.label, got, c.want)
			}
		}
	})

	t.Run("Invalid Labels", func(t *testing.T) {
		for _, label := range []string{"", "abc", "12:xx", "xx:12", "12", "1:2:3:4", "[]", "-1:30", "12:-5", "12:", ":30"} {
			_, err := Parse(label)
			if err == nil {
				t.Errorf("Parse(%q) expected error, got nil", label)
				continue
			}
			if !errors.Is(err, ErrParse) {
				t.Errorf("Parse(%q) error = %v, want ErrParse", label, err)
			}
		}
	})

	t.Run("Round Trip With Format", func(t *testing.T) {
		for _, s := range []int{0, 1, 59, 60, 61, 599, 3599, 3600, 3661, 86399} {
			got, err := Parse(Format(s))
			if err != nil {
				t.Fatalf("Parse(Format(%d)) returned error: %v", s, err)
			}
			if got != s {
				t.Errorf("Parse(Format(%d)) = %d", s, got)
			}
		}
	})
}

func TestFirstComponent(t *testing.T) {
	t.Run("Bracketed Range", func(t *testing.T) {
		got, err := FirstComponent("[00:00]-[05:30]")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != 0 {
			t.Errorf("expected 0, got %d", got)
		}
	})

	t.Run("Spaced Range", func(t *testing.T) {
		got, err := FirstComponent("12:30 - 15:00")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != 750 {
			t.Errorf("expected 750, got %d", got)
		}
	})

	t.Run("Plain Label Without Separator", func(t *testing.T) {
		got, err := FirstComponent("03:05")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got != 185 {
			t.Errorf("expected 185, got %d", got)
		}
	})

	t.Run("Malformed Left Side", func(t *testing.T) {
		if _, err := FirstComponent("bogus-[05:30]"); !errors.Is(err, ErrParse) {
			t.Errorf("expected ErrParse, got %v", err)
		}
	})
}

func TestFormat(t *testing.T) {
	cases := []struct {
		seconds int
		want    string
	}{
		{0, "00:00"},
		{90, "01:30"},
		{3599, "59:59"},
		{3600, "01:00:00"},
		{8142, "02:15:42"},
		{-5, "00:00"},
	}

	for _, c := range cases {
		if got := Format(c.seconds); got != c.want {
			t.Errorf("Format(%d) = %q, want %q", c.seconds, got, c.want)
		}
	}
}
