package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/bytedance/sonic"

	"github.com/the-manager-app/manager_api/tracker"
)

type sessionState struct {
	Token string `json:"token"`
}

func statePath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".manager-watcher.json")
}

func saveState(s sessionState) error {
	b, _ := sonic.Marshal(s)
	return os.WriteFile(statePath(), b, 0o600)
}

func loadToken() (string, error) {
	if token := os.Getenv("MANAGER_TOKEN"); token != "" {
		return token, nil
	}
	b, err := os.ReadFile(statePath())
	if err != nil {
		return "", fmt.Errorf("not logged in, run: watcher login <token>")
	}
	var s sessionState
	if err := sonic.Unmarshal(b, &s); err != nil || s.Token == "" {
		return "", fmt.Errorf("not logged in, run: watcher login <token>")
	}
	return s.Token, nil
}

func apiGet(api, token, path string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, api+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}

	var env struct {
		Code    int         `json:"code"`
		Message string      `json:"message"`
		Data    interface{} `json:"data"`
	}
	_ = sonic.Unmarshal(body, &env)

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: %s", res.Status, env.Message)
	}

	raw, err := sonic.Marshal(env.Data)
	if err != nil {
		return err
	}
	return sonic.Unmarshal(raw, out)
}

type videoItem struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	SourceURL       string        `json:"source_url"`
	DurationSeconds int           `json:"duration_seconds"`
	TotalCoins      int64         `json:"total_coins"`
	Progress        videoProgress `json:"progress"`
}

type videoProgress struct {
	HighestWatchedSeconds float64 `json:"highest_watched_seconds"`
	CoinsEarned           int64   `json:"coins_earned"`
	Completed             bool    `json:"completed"`
}

func listVideos(api, token string) error {
	var out struct {
		Videos []videoItem `json:"videos"`
		Total  int         `json:"total"`
	}
	if err := apiGet(api, token, "/api/v1/videos", &out); err != nil {
		return err
	}

	for _, v := range out.Videos {
		status := fmt.Sprintf("%.0f/%ds", v.Progress.HighestWatchedSeconds, v.DurationSeconds)
		if v.Progress.Completed {
			status = fmt.Sprintf("done, %d coins earned", v.Progress.CoinsEarned)
		}
		fmt.Printf("%s  %-40s %4d coins  [%s]\n", v.ID, v.Title, v.TotalCoins, status)
	}
	return nil
}

func showWallet(api, token string) error {
	var out struct {
		UserID       string `json:"user_id"`
		CoinsBalance int64  `json:"coins_balance"`
	}
	if err := apiGet(api, token, "/api/v1/wallet", &out); err != nil {
		return err
	}
	fmt.Printf("balance: %d coins\n", out.CoinsBalance)
	return nil
}

func watch(api, token, videoID string) error {
	var video videoItem
	if err := apiGet(api, token, "/api/v1/videos/"+videoID, &video); err != nil {
		return err
	}
	if video.Progress.Completed {
		fmt.Printf("already completed, %d coins earned\n", video.Progress.CoinsEarned)
		return nil
	}

	fmt.Printf("playing: %s (%ds, %d coins)\n", video.Title, video.DurationSeconds, video.TotalCoins)

	socket := filepath.Join(os.TempDir(), fmt.Sprintf("manager-mpv-%d.sock", os.Getpid()))
	player, err := LaunchMPV(socket, video.SourceURL)
	if err != nil {
		return err
	}
	defer player.Close()

	if err := player.WaitLoaded(30 * time.Second); err != nil {
		return err
	}

	reporter := tracker.NewHTTPReporter(api, token)
	session := tracker.NewSession(player, reporter, videoID, tracker.DefaultConfig())

	if err := session.Load(video.Progress.HighestWatchedSeconds); err != nil {
		return err
	}
	if err := session.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	mpvExited := make(chan struct{})
	go func() {
		_ = player.Wait()
		close(mpvExited)
	}()

	select {
	case <-session.Done():
	case <-mpvExited:
	case <-sigCh:
	}

	session.Stop()

	if ack := session.LastAck(); ack != nil {
		if ack.Completed {
			fmt.Printf("completed! coins awarded: %d, balance: %d\n", ack.CoinsAwarded, ack.WalletBalance)
		} else {
			fmt.Printf("progress saved at %.0fs\n", ack.HighestWatchedSeconds)
		}
	}
	return nil
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("usage: watcher <login|list|watch|wallet|logout> [args]")
		os.Exit(1)
	}

	api := os.Getenv("MANAGER_API")
	if api == "" {
		api = "http://127.0.0.1:8000"
	}

	var err error
	switch os.Args[1] {
	case "login":
		if len(os.Args) < 3 {
			fmt.Println("usage: watcher login <token>")
			os.Exit(1)
		}
		err = saveState(sessionState{Token: os.Args[2]})
		if err == nil {
			fmt.Println("login success")
		}
	case "logout":
		err = os.Remove(statePath())
	case "list":
		var token string
		if token, err = loadToken(); err == nil {
			err = listVideos(api, token)
		}
	case "wallet":
		var token string
		if token, err = loadToken(); err == nil {
			err = showWallet(api, token)
		}
	case "watch":
		if len(os.Args) < 3 {
			fmt.Println("usage: watcher watch <video_id>")
			os.Exit(1)
		}
		var token string
		if token, err = loadToken(); err == nil {
			err = watch(api, token, os.Args[2])
		}
	default:
		err = fmt.Errorf("unknown command %q", os.Args[1])
	}

	if err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}
