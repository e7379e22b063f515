// Package tracker drives watch-time reporting for a local video player.
// It polls the player for its position, maintains the furthest position
// genuinely reached, pushes reports to the rewards API and seeks back when
// the viewer tries to skip ahead.
package tracker

// PlayerState is the playback state reported by a player backend.
type PlayerState int

const (
	StatePlaying PlayerState = iota
	StatePaused
	StateEnded
)

func (s PlayerState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateEnded:
		return "ended"
	}
	return "unknown"
}

// Player is the minimal control surface the tracker needs from a video
// player. Implementations wrap a real backend such as mpv.
type Player interface {
	// CurrentTime returns the playback position in seconds.
	CurrentTime() (float64, error)

	// Duration returns the media duration in seconds.
	Duration() (float64, error)

	// SeekTo moves playback to the given position in seconds.
	SeekTo(seconds float64) error

	// State returns the current playback state.
	State() (PlayerState, error)
}
