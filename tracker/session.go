package tracker

import (
	"errors"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// SessionState is the lifecycle state of a tracking session.
type SessionState int

const (
	SessionIdle SessionState = iota
	SessionLoaded
	SessionPlaying
	SessionPaused
	SessionCompleted
)

func (s SessionState) String() string {
	switch s {
	case SessionIdle:
		return "idle"
	case SessionLoaded:
		return "loaded"
	case SessionPlaying:
		return "playing"
	case SessionPaused:
		return "paused"
	case SessionCompleted:
		return "completed"
	}
	return "unknown"
}

// Config tunes the anti-skip enforcement and polling cadence.
type Config struct {
	// SkipToleranceSeconds is how far past the high-water mark the playback
	// position may run before it counts as a skip. Covers normal playback
	// advancing between polls.
	SkipToleranceSeconds float64

	// SkipGraceSeconds disables enforcement until the high-water mark has
	// passed this value, so an initial resume seek is never punished.
	SkipGraceSeconds float64

	// ResumeMinSeconds is the minimum stored progress worth seeking to on
	// load. Below it the video just restarts.
	ResumeMinSeconds float64

	// PollInterval is how often the player is sampled.
	PollInterval time.Duration
}

func DefaultConfig() Config {
	cfg := Config{
		SkipToleranceSeconds: 3,
		SkipGraceSeconds:     10,
		ResumeMinSeconds:     5,
		PollInterval:         time.Second,
	}

	if v := os.Getenv("SKIP_TOLERANCE_SECONDS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.SkipToleranceSeconds = f
		}
	}
	if v := os.Getenv("SKIP_GRACE_SECONDS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.SkipGraceSeconds = f
		}
	}

	return cfg
}

// completionFraction mirrors the server's threshold. The ended player state
// only counts as finishing the video once the watched mark is past it.
const completionFraction = 0.99

// Session tracks one viewing of one video. It owns the high-water mark and
// is the only writer to it; the mark never decreases, even when enforcement
// drags the player backwards.
type Session struct {
	player   Player
	reporter Reporter
	cfg      Config

	videoID  string
	duration float64

	mu        sync.Mutex
	state     SessionState
	highWater float64
	lastAck   *WatchAck
	started   bool

	stopCh   chan struct{}
	doneCh   chan struct{}
	stopOnce sync.Once
}

func NewSession(player Player, reporter Reporter, videoID string, cfg Config) *Session {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	return &Session{
		player:   player,
		reporter: reporter,
		cfg:      cfg,
		videoID:  videoID,
		state:    SessionIdle,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Load primes the session with the server-stored progress and seeks the
// player to it when it is worth resuming.
func (s *Session) Load(storedProgress float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != SessionIdle {
		return errors.New("session already loaded")
	}

	duration, err := s.player.Duration()
	if err != nil {
		return err
	}
	if duration <= 0 {
		return errors.New("player reported no duration")
	}
	s.duration = duration

	if storedProgress > duration {
		storedProgress = duration
	}
	if storedProgress > s.cfg.ResumeMinSeconds {
		if err := s.player.SeekTo(storedProgress); err != nil {
			return err
		}
		s.highWater = storedProgress
		log.Info().
			Str("video_id", s.videoID).
			Float64("position", storedProgress).
			Msg("Resumed from stored progress")
	}

	s.state = SessionLoaded
	return nil
}

// Start begins the poll loop. It returns immediately; use Done to wait for
// completion and Stop to end the session early.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state != SessionLoaded {
		s.mu.Unlock()
		return errors.New("session not loaded")
	}
	s.state = SessionPlaying
	s.started = true
	s.mu.Unlock()

	go s.run()
	return nil
}

func (s *Session) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if done := s.Tick(); done {
				return
			}
		case <-s.stopCh:
			return
		}
	}
}

// Tick samples the player once and advances the session. Returns true when
// the session has reached its terminal state.
func (s *Session) Tick() bool {
	state, err := s.player.State()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read player state")
		return false
	}

	switch state {
	case StateEnded:
		s.mu.Lock()
		if s.highWater < completionFraction*s.duration {
			// The player hit the end without the mark getting there.
			// That is a seek-to-end, not a finished viewing.
			target := s.highWater
			s.mu.Unlock()

			log.Info().
				Str("video_id", s.videoID).
				Float64("watched", target).
				Float64("duration", s.duration).
				Msg("Playback ended ahead of watched mark, seeking back")

			if err := s.player.SeekTo(target); err != nil {
				log.Warn().Err(err).Msg("Failed to enforce skip protection")
			}
			return false
		}
		s.highWater = s.duration
		s.state = SessionCompleted
		s.mu.Unlock()
		s.report()
		return true

	case StatePaused:
		s.mu.Lock()
		paused := s.state == SessionPlaying
		if paused {
			s.state = SessionPaused
		}
		flush := paused && s.highWater > 0
		s.mu.Unlock()
		if flush {
			s.report()
		}
		return false

	case StatePlaying:
		s.mu.Lock()
		if s.state == SessionPaused {
			s.state = SessionPlaying
		}
		s.mu.Unlock()

		position, err := s.player.CurrentTime()
		if err != nil {
			log.Warn().Err(err).Msg("Failed to read playback position")
			return false
		}

		s.observe(position)
		s.report()

		s.mu.Lock()
		completed := s.state == SessionCompleted
		s.mu.Unlock()
		return completed
	}

	return false
}

// observe folds one position sample into the high-water mark, seeking back
// when the sample is too far ahead to be genuine playback.
func (s *Session) observe(position float64) {
	s.mu.Lock()

	if position > s.duration {
		position = s.duration
	}

	if position <= s.highWater {
		s.mu.Unlock()
		return
	}

	jump := position - s.highWater
	if s.highWater >= s.cfg.SkipGraceSeconds && jump > s.cfg.SkipToleranceSeconds {
		target := s.highWater
		s.mu.Unlock()

		log.Info().
			Str("video_id", s.videoID).
			Float64("from", target).
			Float64("attempted", position).
			Msg("Skip detected, seeking back")

		if err := s.player.SeekTo(target); err != nil {
			log.Warn().Err(err).Msg("Failed to enforce skip protection")
		}
		return
	}

	s.highWater = position
	s.mu.Unlock()
}

// report pushes the current high-water mark to the server. Delivery failures
// are logged and retried implicitly by the next tick; the server's monotonic
// store makes duplicates and reorderings harmless.
func (s *Session) report() {
	s.mu.Lock()
	watched := s.highWater
	s.mu.Unlock()

	ack, err := s.reporter.ReportWatch(s.videoID, watched)
	if err != nil {
		log.Warn().Err(err).Str("video_id", s.videoID).Msg("Watch report failed")
		return
	}

	s.mu.Lock()
	s.lastAck = ack
	if ack.Completed && s.state != SessionCompleted {
		s.state = SessionCompleted
	}
	s.mu.Unlock()

	if ack.CoinsAwarded > 0 {
		log.Info().
			Str("video_id", s.videoID).
			Int64("coins", ack.CoinsAwarded).
			Int64("balance", ack.WalletBalance).
			Msg("Reward credited")
	}
}

// Stop ends the session, flushing a final report when there is unreported
// progress worth keeping.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})

	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if started {
		<-s.doneCh
	}

	s.mu.Lock()
	flush := s.highWater > 0 && s.state != SessionCompleted
	s.mu.Unlock()
	if flush {
		s.report()
	}
}

// Done closes when the poll loop exits.
func (s *Session) Done() <-chan struct{} {
	return s.doneCh
}

func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) HighWater() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highWater
}

func (s *Session) LastAck() *WatchAck {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAck
}
