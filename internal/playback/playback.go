// Package playback applies seek requests to an audio source safely.
//
// Bursts of near-simultaneous seek triggers are debounced, seeks landing
// within half a second of the last applied position are suppressed, and
// seeks issued before the media is ready are deferred until a one-shot
// readiness signal fires.
package playback

import (
	"math"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/podlens/podlens/internal/shared"
)

// Player is the media element a synchronizer drives.
type Player interface {
	// Ready reports whether the media has buffered enough to seek.
	Ready() bool
	// SeekTo moves the playhead to the given offset in seconds.
	SeekTo(seconds float64) error
	// IsPlaying reports whether playback is currently running.
	IsPlaying() bool
	// Play starts or resumes playback.
	Play() error
	// OnReady registers a one-shot callback fired once the media becomes
	// ready. Implementations fire it immediately if already ready.
	OnReady(fn func())
}

const (
	defaultDebounce        = 50 * time.Millisecond
	defaultDuplicateWindow = 0.5
	defaultReadyTimeout    = 30 * time.Second
)

// Options tunes a [Synchronizer].
type Options struct {
	// Debounce is how long a seek request must stand unchallenged before it
	// is applied. Zero means the default (50ms).
	Debounce time.Duration
	// DuplicateWindow is the distance in seconds from the last applied seek
	// within which new requests are dropped. Zero means the default (0.5s).
	DuplicateWindow float64
	// ReadyTimeout bounds how long a deferred seek waits for the readiness
	// signal before being dropped. Zero means the default (30s).
	ReadyTimeout time.Duration
}

// OptionsFromConfig builds [Options] from the playback section of the
// application config. Unset values fall back to the defaults.
func OptionsFromConfig(cfg shared.PlaybackConfig) Options {
	return Options{
		Debounce:        time.Duration(cfg.DebounceMS) * time.Millisecond,
		DuplicateWindow: cfg.DuplicateWindowSeconds,
		ReadyTimeout:    time.Duration(cfg.ReadyTimeoutSeconds) * time.Second,
	}
}

// Synchronizer owns the mapping from "seek to time T" requests to actual
// media seeks for the lifetime of one audio source.
type Synchronizer struct {
	logger *log.Logger

	debounce     time.Duration
	window       float64
	readyTimeout time.Duration

	mu          sync.Mutex
	player      Player
	source      string
	timer       *time.Timer
	pending     float64
	hasPending  bool
	lastApplied float64
	hasApplied  bool
	readyGen    int
}

// NewSynchronizer creates a synchronizer with no source attached.
func NewSynchronizer(logger *log.Logger, opts Options) *Synchronizer {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	if opts.DuplicateWindow <= 0 {
		opts.DuplicateWindow = defaultDuplicateWindow
	}
	if opts.ReadyTimeout <= 0 {
		opts.ReadyTimeout = defaultReadyTimeout
	}
	return &Synchronizer{
		logger:       logger,
		debounce:     opts.Debounce,
		window:       opts.DuplicateWindow,
		readyTimeout: opts.ReadyTimeout,
	}
}

// SetSource attaches a new audio source. The last-applied-seek marker is
// cleared so a seek to a previously visited timestamp on the new source is
// not suppressed by stale state. Any pending debounce or deferred seek for
// the old source is cancelled.
func (s *Synchronizer) SetSource(source string, player Player) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.player = player
	s.source = source
	s.hasPending = false
	s.hasApplied = false
	s.lastApplied = 0
	s.readyGen++
}

// Source returns the currently attached audio source.
func (s *Synchronizer) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

// Seek requests a seek to the given offset in seconds.
//
// A request within the duplicate window of the last applied seek is dropped
// without resetting the debounce state. Otherwise the request restarts the
// debounce timer; only the request standing when the timer fires is applied.
func (s *Synchronizer) Seek(seconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seconds < 0 {
		return
	}

	if s.hasApplied && math.Abs(seconds-s.lastApplied) <= s.window {
		if s.logger != nil {
			s.logger.Debug("seek suppressed as duplicate", "seconds", seconds, "lastApplied", s.lastApplied)
		}
		return
	}

	s.pending = seconds
	s.hasPending = true

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.fire)
}

// fire runs when the debounce timer elapses and applies the standing request,
// deferring it behind the readiness signal when the media is not ready yet.
func (s *Synchronizer) fire() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hasPending || s.player == nil {
		return
	}

	seconds := s.pending
	s.hasPending = false

	if !s.player.Ready() {
		s.deferUntilReady(seconds)
		return
	}

	s.apply(seconds)
}

// deferUntilReady arranges for the seek to be applied exactly once when the
// one-shot readiness signal fires, bounded by the ready timeout.
//
// Called with s.mu held.
func (s *Synchronizer) deferUntilReady(seconds float64) {
	gen := s.readyGen
	var once sync.Once

	s.player.OnReady(func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.readyGen != gen {
				return
			}
			s.apply(seconds)
		})
	})

	time.AfterFunc(s.readyTimeout, func() {
		once.Do(func() {
			if s.logger != nil {
				s.logger.Warn("dropping deferred seek, media never became ready", "seconds", seconds)
			}
		})
	})
}

// apply performs the seek and resumes playback when the media was playing
// immediately beforehand. Resume failures are logged, not escalated.
//
// Called with s.mu held.
func (s *Synchronizer) apply(seconds float64) {
	wasPlaying := s.player.IsPlaying()

	if err := s.player.SeekTo(seconds); err != nil {
		if s.logger != nil {
			s.logger.Warn("seek failed", "seconds", seconds, "err", err)
		}
		return
	}

	s.lastApplied = seconds
	s.hasApplied = true

	if wasPlaying {
		if err := s.player.Play(); err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to resume playback after seek", "err", err)
			}
		}
	}
}

// LastApplied returns the last applied seek offset and whether one exists.
func (s *Synchronizer) LastApplied() (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastApplied, s.hasApplied
}
