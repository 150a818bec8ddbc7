package playback

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakePlayer records applied seeks and lets tests control readiness.
type fakePlayer struct {
	mu      sync.Mutex
	ready   bool
	playing bool
	seeks   []float64
	plays   int
	seekErr error
	playErr error
	onReady []func()
}

func newFakePlayer(ready bool) *fakePlayer {
	return &fakePlayer{ready: ready}
}

func (f *fakePlayer) Ready() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ready
}

func (f *fakePlayer) SeekTo(seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seekErr != nil {
		return f.seekErr
	}
	f.seeks = append(f.seeks, seconds)
	return nil
}

func (f *fakePlayer) IsPlaying() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playing
}

func (f *fakePlayer) Play() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.plays++
	return f.playErr
}

func (f *fakePlayer) OnReady(fn func()) {
	f.mu.Lock()
	ready := f.ready
	if !ready {
		f.onReady = append(f.onReady, fn)
	}
	f.mu.Unlock()
	if ready {
		fn()
	}
}

func (f *fakePlayer) becomeReady() {
	f.mu.Lock()
	f.ready = true
	callbacks := f.onReady
	f.onReady = nil
	f.mu.Unlock()
	for _, fn := range callbacks {
		fn()
	}
}

func (f *fakePlayer) appliedSeeks() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]float64, len(f.seeks))
	copy(out, f.seeks)
	return out
}

const testDebounce = 10 * time.Millisecond

func newTestSynchronizer(p Player) *Synchronizer {
	s := NewSynchronizer(nil, Options{Debounce: testDebounce, ReadyTimeout: 100 * time.Millisecond})
	s.SetSource("test://audio", p)
	return s
}

func settle() {
	time.Sleep(5 * testDebounce)
}

func TestSynchronizer(t *testing.T) {
	t.Run("Single Seek Is Applied", func(t *testing.T) {
		player := newFakePlayer(true)
		s := newTestSynchronizer(player)

		s.Seek(42)
		settle()

		seeks := player.appliedSeeks()
		if len(seeks) != 1 || seeks[0] != 42 {
			t.Fatalf("expected one seek to 42, got %v", seeks)
		}
	})

	t.Run("Burst Coalesces To Last Request", func(t *testing.T) {
		player := newFakePlayer(true)
		s := newTestSynchronizer(player)

		s.Seek(10)
		s.Seek(10.3)
		settle()

		seeks := player.appliedSeeks()
		if len(seeks) != 1 {
			t.Fatalf("expected exactly one applied seek, got %v", seeks)
		}
		if seeks[0] != 10.3 {
			t.Errorf("expected the most recent request (10.3) to win, got %v", seeks[0])
		}
	})

	t.Run("Duplicate Of Last Applied Is Dropped", func(t *testing.T) {
		player := newFakePlayer(true)
		s := newTestSynchronizer(player)

		s.Seek(20)
		settle()

		// Within 0.5s of the applied value: dropped.
		s.Seek(20.49)
		settle()

		seeks := player.appliedSeeks()
		if len(seeks) != 1 {
			t.Fatalf("expected duplicate at 0.49s to be dropped, got %v", seeks)
		}

		// Outside the window: applied.
		s.Seek(20.51)
		settle()

		seeks = player.appliedSeeks()
		if len(seeks) != 2 || seeks[1] != 20.51 {
			t.Fatalf("expected seek at 0.51s to be applied, got %v", seeks)
		}
	})

	t.Run("Not Ready Defers Until Readiness Signal", func(t *testing.T) {
		player := newFakePlayer(false)
		s := newTestSynchronizer(player)

		s.Seek(33)
		settle()

		if len(player.appliedSeeks()) != 0 {
			t.Fatal("expected no seek while media not ready")
		}

		player.becomeReady()
		settle()

		seeks := player.appliedSeeks()
		if len(seeks) != 1 || seeks[0] != 33 {
			t.Fatalf("expected deferred seek applied once on readiness, got %v", seeks)
		}

		// Signal firing twice must not re-apply.
		player.becomeReady()
		settle()
		if len(player.appliedSeeks()) != 1 {
			t.Fatalf("expected deferred seek applied exactly once, got %v", player.appliedSeeks())
		}
	})

	t.Run("Resumes Playback When Playing Before Seek", func(t *testing.T) {
		player := newFakePlayer(true)
		player.playing = true
		s := newTestSynchronizer(player)

		s.Seek(15)
		settle()

		if player.plays != 1 {
			t.Errorf("expected playback resumed once, got %d", player.plays)
		}
	})

	t.Run("Resume Failure Is Not Escalated", func(t *testing.T) {
		player := newFakePlayer(true)
		player.playing = true
		player.playErr = errors.New("autoplay blocked")
		s := newTestSynchronizer(player)

		s.Seek(15)
		settle()

		seeks := player.appliedSeeks()
		if len(seeks) != 1 {
			t.Fatalf("expected seek applied despite resume failure, got %v", seeks)
		}
		if _, ok := s.LastApplied(); !ok {
			t.Error("expected last-applied marker set despite resume failure")
		}
	})

	t.Run("Source Change Clears Applied Marker", func(t *testing.T) {
		player := newFakePlayer(true)
		s := newTestSynchronizer(player)

		s.Seek(42)
		settle()

		next := newFakePlayer(true)
		s.SetSource("test://other", next)

		// Same timestamp as before: must not be suppressed by stale state.
		s.Seek(42)
		settle()

		seeks := next.appliedSeeks()
		if len(seeks) != 1 || seeks[0] != 42 {
			t.Fatalf("expected seek applied on new source, got %v", seeks)
		}
	})

	t.Run("Source Change Cancels Pending Debounce", func(t *testing.T) {
		player := newFakePlayer(true)
		s := newTestSynchronizer(player)

		s.Seek(42)
		next := newFakePlayer(true)
		s.SetSource("test://other", next)
		settle()

		if len(player.appliedSeeks()) != 0 {
			t.Errorf("expected pending seek cancelled on source change, got %v", player.appliedSeeks())
		}
		if len(next.appliedSeeks()) != 0 {
			t.Errorf("expected no seek carried to new source, got %v", next.appliedSeeks())
		}
	})

	t.Run("Stale Readiness Signal After Source Change Is Ignored", func(t *testing.T) {
		player := newFakePlayer(false)
		s := newTestSynchronizer(player)

		s.Seek(33)
		settle()

		next := newFakePlayer(true)
		s.SetSource("test://other", next)

		player.becomeReady()
		settle()

		if len(player.appliedSeeks()) != 0 {
			t.Errorf("expected stale deferred seek dropped, got %v", player.appliedSeeks())
		}
	})

	t.Run("Negative Seek Is Ignored", func(t *testing.T) {
		player := newFakePlayer(true)
		s := newTestSynchronizer(player)

		s.Seek(-1)
		settle()

		if len(player.appliedSeeks()) != 0 {
			t.Errorf("expected negative seek ignored, got %v", player.appliedSeeks())
		}
	})
}
