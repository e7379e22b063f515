package main

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os/exec"
	"sync"
	"time"

	"github.com/bytedance/sonic"

	"github.com/the-manager-app/manager_api/tracker"
)

// MPVPlayer drives an mpv process over its JSON IPC socket and exposes it
// through the tracker's Player interface.
type MPVPlayer struct {
	cmd    *exec.Cmd
	socket string

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	reqID  int
}

func LaunchMPV(socket, mediaURL string) (*MPVPlayer, error) {
	cmd := exec.Command("mpv",
		"--input-ipc-server="+socket,
		"--force-window=yes",
		"--keep-open=yes",
		mediaURL,
	)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start mpv: %w", err)
	}

	p := &MPVPlayer{
		cmd:    cmd,
		socket: socket,
	}

	if err := p.connect(10 * time.Second); err != nil {
		_ = cmd.Process.Kill()
		return nil, err
	}

	return p, nil
}

// connect polls for the IPC socket, which mpv creates shortly after launch.
func (p *MPVPlayer) connect(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		conn, err := net.Dial("unix", p.socket)
		if err == nil {
			p.conn = conn
			p.reader = bufio.NewReader(conn)
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("mpv ipc socket not ready: %w", err)
		}
		time.Sleep(200 * time.Millisecond)
	}
}

// WaitLoaded blocks until mpv knows the media duration.
func (p *MPVPlayer) WaitLoaded(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		d, err := p.Duration()
		if err == nil && d > 0 {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.New("timed out waiting for media to load")
		}
		time.Sleep(200 * time.Millisecond)
	}
}

func (p *MPVPlayer) Close() {
	p.mu.Lock()
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.mu.Unlock()
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	_ = p.cmd.Wait()
}

// Wait blocks until the mpv process exits.
func (p *MPVPlayer) Wait() error {
	return p.cmd.Wait()
}

type mpvRequest struct {
	Command   []interface{} `json:"command"`
	RequestID int           `json:"request_id"`
}

type mpvResponse struct {
	Data      interface{} `json:"data"`
	Error     string      `json:"error"`
	RequestID int         `json:"request_id"`
	Event     string      `json:"event"`
}

// roundTrip sends one command and reads until its matching response,
// discarding the event lines mpv interleaves on the same socket.
func (p *MPVPlayer) roundTrip(command ...interface{}) (interface{}, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.reqID++
	req := mpvRequest{
		Command:   command,
		RequestID: p.reqID,
	}

	b, err := sonic.Marshal(req)
	if err != nil {
		return nil, err
	}
	b = append(b, '\n')

	if err := p.conn.SetDeadline(time.Now().Add(3 * time.Second)); err != nil {
		return nil, err
	}
	if _, err := p.conn.Write(b); err != nil {
		return nil, err
	}

	for {
		line, err := p.reader.ReadBytes('\n')
		if err != nil {
			return nil, err
		}

		var resp mpvResponse
		if err := sonic.Unmarshal(line, &resp); err != nil {
			continue
		}
		if resp.Event != "" || resp.RequestID != p.reqID {
			continue
		}
		if resp.Error != "success" {
			return nil, fmt.Errorf("mpv: %s", resp.Error)
		}
		return resp.Data, nil
	}
}

func (p *MPVPlayer) getProperty(name string) (interface{}, error) {
	return p.roundTrip("get_property", name)
}

func (p *MPVPlayer) getFloat(name string) (float64, error) {
	data, err := p.getProperty(name)
	if err != nil {
		return 0, err
	}
	f, ok := toFloat(data)
	if !ok {
		return 0, fmt.Errorf("mpv property %s is not a number", name)
	}
	return f, nil
}

func (p *MPVPlayer) getBool(name string) (bool, error) {
	data, err := p.getProperty(name)
	if err != nil {
		return false, err
	}
	b, ok := data.(bool)
	if !ok {
		return false, fmt.Errorf("mpv property %s is not a bool", name)
	}
	return b, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// ==================== tracker.Player ====================

func (p *MPVPlayer) CurrentTime() (float64, error) {
	return p.getFloat("time-pos")
}

func (p *MPVPlayer) Duration() (float64, error) {
	return p.getFloat("duration")
}

func (p *MPVPlayer) SeekTo(seconds float64) error {
	_, err := p.roundTrip("set_property", "time-pos", seconds)
	return err
}

func (p *MPVPlayer) State() (tracker.PlayerState, error) {
	if eof, err := p.getBool("eof-reached"); err == nil && eof {
		return tracker.StateEnded, nil
	}

	paused, err := p.getBool("pause")
	if err != nil {
		return tracker.StatePaused, err
	}
	if paused {
		return tracker.StatePaused, nil
	}
	return tracker.StatePlaying, nil
}
