package tracker

import (
	"testing"
	"time"
)

type fakePlayer struct {
	position float64
	duration float64
	state    PlayerState

	seeks []float64
}

func (p *fakePlayer) CurrentTime() (float64, error) { return p.position, nil }
func (p *fakePlayer) Duration() (float64, error)    { return p.duration, nil }
func (p *fakePlayer) State() (PlayerState, error)   { return p.state, nil }

func (p *fakePlayer) SeekTo(seconds float64) error {
	p.seeks = append(p.seeks, seconds)
	p.position = seconds
	return nil
}

type fakeReporter struct {
	reports []float64
	ack     WatchAck
}

func (r *fakeReporter) ReportWatch(videoID string, watchedSeconds float64) (*WatchAck, error) {
	r.reports = append(r.reports, watchedSeconds)
	ack := r.ack
	if ack.HighestWatchedSeconds < watchedSeconds {
		ack.HighestWatchedSeconds = watchedSeconds
	}
	return &ack, nil
}

func testConfig() Config {
	return Config{
		SkipToleranceSeconds: 3,
		SkipGraceSeconds:     10,
		ResumeMinSeconds:     5,
		PollInterval:         time.Second,
	}
}

func newLoadedSession(t *testing.T, player *fakePlayer, reporter *fakeReporter, stored float64) *Session {
	t.Helper()

	s := NewSession(player, reporter, "vid-1", testConfig())
	if err := s.Load(stored); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return s
}

func TestLoadResumesStoredProgress(t *testing.T) {
	t.Parallel()

	player := &fakePlayer{duration: 200, state: StatePaused}
	s := newLoadedSession(t, player, &fakeReporter{}, 45)

	if len(player.seeks) != 1 || player.seeks[0] != 45 {
		t.Fatalf("expected resume seek to 45, got %v", player.seeks)
	}
	if s.HighWater() != 45 {
		t.Fatalf("expected high-water 45, got %v", s.HighWater())
	}
	if s.State() != SessionLoaded {
		t.Fatalf("expected loaded state, got %v", s.State())
	}
}

func TestLoadSkipsTrivialResume(t *testing.T) {
	t.Parallel()

	player := &fakePlayer{duration: 200, state: StatePaused}
	s := newLoadedSession(t, player, &fakeReporter{}, 3)

	if len(player.seeks) != 0 {
		t.Fatalf("expected no resume seek, got %v", player.seeks)
	}
	if s.HighWater() != 0 {
		t.Fatalf("expected zero high-water, got %v", s.HighWater())
	}
}

func TestObserveNormalAdvance(t *testing.T) {
	t.Parallel()

	player := &fakePlayer{duration: 200, state: StatePlaying}
	s := newLoadedSession(t, player, &fakeReporter{}, 0)

	s.observe(1.2)
	s.observe(2.1)
	if s.HighWater() != 2.1 {
		t.Fatalf("expected high-water 2.1, got %v", s.HighWater())
	}

	// Stale samples never move the mark backwards.
	s.observe(1.0)
	if s.HighWater() != 2.1 {
		t.Fatalf("stale sample moved the mark: %v", s.HighWater())
	}
}

func TestObserveSkipEnforcement(t *testing.T) {
	t.Parallel()

	player := &fakePlayer{duration: 200, state: StatePlaying}
	s := newLoadedSession(t, player, &fakeReporter{}, 20)

	player.seeks = nil

	// A jump from 20 to 40 is a skip: seek back, mark unchanged.
	s.observe(40)
	if len(player.seeks) != 1 || player.seeks[0] != 20 {
		t.Fatalf("expected enforcement seek to 20, got %v", player.seeks)
	}
	if s.HighWater() != 20 {
		t.Fatalf("skip advanced the mark: %v", s.HighWater())
	}

	// Within tolerance is treated as playback.
	s.observe(22)
	if s.HighWater() != 22 {
		t.Fatalf("expected high-water 22, got %v", s.HighWater())
	}
}

func TestObserveGracePeriod(t *testing.T) {
	t.Parallel()

	player := &fakePlayer{duration: 200, state: StatePlaying}
	s := newLoadedSession(t, player, &fakeReporter{}, 0)

	// Below the grace mark even a large jump is accepted.
	s.observe(9)
	if len(player.seeks) != 0 {
		t.Fatalf("grace period jump was punished: %v", player.seeks)
	}
	if s.HighWater() != 9 {
		t.Fatalf("expected high-water 9, got %v", s.HighWater())
	}
}

func TestObserveClampsToDuration(t *testing.T) {
	t.Parallel()

	player := &fakePlayer{duration: 200, state: StatePlaying}
	s := newLoadedSession(t, player, &fakeReporter{}, 198)

	s.observe(250)
	if s.HighWater() != 200 {
		t.Fatalf("expected clamp to duration, got %v", s.HighWater())
	}
}

func TestTickPlaybackReportsHighWater(t *testing.T) {
	t.Parallel()

	player := &fakePlayer{duration: 200, state: StatePlaying, position: 30}
	reporter := &fakeReporter{}
	s := newLoadedSession(t, player, reporter, 28)

	if done := s.Tick(); done {
		t.Fatal("mid-playback tick should not finish the session")
	}
	if len(reporter.reports) != 1 || reporter.reports[0] != 30 {
		t.Fatalf("expected one report of 30, got %v", reporter.reports)
	}
}

func TestTickEndedCompletesSession(t *testing.T) {
	t.Parallel()

	player := &fakePlayer{duration: 200, state: StateEnded}
	reporter := &fakeReporter{ack: WatchAck{Completed: true, CoinsAwarded: 20}}
	s := newLoadedSession(t, player, reporter, 199)

	if done := s.Tick(); !done {
		t.Fatal("ended playback should finish the session")
	}
	if s.State() != SessionCompleted {
		t.Fatalf("expected completed state, got %v", s.State())
	}
	if s.HighWater() != 200 {
		t.Fatalf("expected high-water at duration, got %v", s.HighWater())
	}
	if len(reporter.reports) != 1 || reporter.reports[0] != 200 {
		t.Fatalf("expected final report of 200, got %v", reporter.reports)
	}
	if ack := s.LastAck(); ack == nil || ack.CoinsAwarded != 20 {
		t.Fatalf("expected ack with 20 coins, got %+v", ack)
	}
}

func TestTickEndedFarBehindMarkSeeksBack(t *testing.T) {
	t.Parallel()

	// Seeking straight to the end flips the player into its ended state
	// without the watched mark ever getting there. That must not pay out.
	player := &fakePlayer{duration: 200, state: StateEnded}
	reporter := &fakeReporter{ack: WatchAck{Completed: true, CoinsAwarded: 20}}
	s := newLoadedSession(t, player, reporter, 20)

	player.seeks = nil

	if done := s.Tick(); done {
		t.Fatal("ended state far behind the mark should not finish the session")
	}
	if len(player.seeks) != 1 || player.seeks[0] != 20 {
		t.Fatalf("expected enforcement seek to 20, got %v", player.seeks)
	}
	if s.HighWater() != 20 {
		t.Fatalf("mark jumped on ended state: %v", s.HighWater())
	}
	if len(reporter.reports) != 0 {
		t.Fatalf("unwatched progress was reported: %v", reporter.reports)
	}
	if s.State() == SessionCompleted {
		t.Fatal("session completed without the video being watched")
	}
}

func TestTickServerCompletionEndsSession(t *testing.T) {
	t.Parallel()

	// The server can declare completion before playback reaches the end,
	// since the threshold sits just below the full duration.
	player := &fakePlayer{duration: 100, state: StatePlaying, position: 99.5}
	reporter := &fakeReporter{ack: WatchAck{Completed: true, CoinsAwarded: 10}}
	s := newLoadedSession(t, player, reporter, 98)

	if done := s.Tick(); !done {
		t.Fatal("server-acked completion should finish the session")
	}
	if s.State() != SessionCompleted {
		t.Fatalf("expected completed state, got %v", s.State())
	}
}

func TestTickPauseTransitions(t *testing.T) {
	t.Parallel()

	player := &fakePlayer{duration: 200, state: StatePlaying, position: 12}

	// A long poll interval keeps the background loop idle so the test can
	// drive ticks by hand.
	cfg := testConfig()
	cfg.PollInterval = time.Hour
	s := NewSession(player, &fakeReporter{}, "vid-1", cfg)
	if err := s.Load(0); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer s.Stop()

	player.state = StatePaused
	s.Tick()
	if s.State() != SessionPaused {
		t.Fatalf("expected paused state, got %v", s.State())
	}

	player.state = StatePlaying
	s.Tick()
	if s.State() != SessionPlaying {
		t.Fatalf("expected playing state, got %v", s.State())
	}
}

func TestTickPauseSubmitsMark(t *testing.T) {
	t.Parallel()

	player := &fakePlayer{duration: 200, state: StatePlaying}
	reporter := &fakeReporter{}

	cfg := testConfig()
	cfg.PollInterval = time.Hour
	s := NewSession(player, reporter, "vid-1", cfg)
	if err := s.Load(28); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer s.Stop()

	player.position = 30
	s.Tick()

	player.state = StatePaused
	s.Tick()
	if s.State() != SessionPaused {
		t.Fatalf("expected paused state, got %v", s.State())
	}
	if len(reporter.reports) != 2 || reporter.reports[1] != 30 {
		t.Fatalf("expected pause to submit the mark, got %v", reporter.reports)
	}

	// Staying paused does not repeat the submission.
	s.Tick()
	if len(reporter.reports) != 2 {
		t.Fatalf("idle pause ticks reported: %v", reporter.reports)
	}
}

func TestStopFlushesUnreportedProgress(t *testing.T) {
	t.Parallel()

	player := &fakePlayer{duration: 200, state: StatePlaying, position: 30}
	reporter := &fakeReporter{}
	s := newLoadedSession(t, player, reporter, 28)

	s.Tick()
	s.Stop()
	if len(reporter.reports) != 2 || reporter.reports[1] != 30 {
		t.Fatalf("expected stop to flush the mark, got %v", reporter.reports)
	}
}

func TestStopSkipsEmptyAndCompletedFlush(t *testing.T) {
	t.Parallel()

	// Nothing watched yet: nothing to submit.
	player := &fakePlayer{duration: 200, state: StatePaused}
	reporter := &fakeReporter{}
	s := newLoadedSession(t, player, reporter, 0)

	s.Stop()
	if len(reporter.reports) != 0 {
		t.Fatalf("stop with no progress reported: %v", reporter.reports)
	}

	// Completed sessions already reported their final state.
	endedPlayer := &fakePlayer{duration: 200, state: StateEnded}
	endedReporter := &fakeReporter{ack: WatchAck{Completed: true, CoinsAwarded: 20}}
	done := newLoadedSession(t, endedPlayer, endedReporter, 199)

	if finished := done.Tick(); !finished {
		t.Fatal("ended playback should finish the session")
	}
	done.Stop()
	if len(endedReporter.reports) != 1 {
		t.Fatalf("stop after completion re-reported: %v", endedReporter.reports)
	}
}
