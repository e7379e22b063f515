package tracker

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
)

// WatchAck is the server's answer to a watch report.
type WatchAck struct {
	HighestWatchedSeconds float64 `json:"highest_watched_seconds"`
	Completed             bool    `json:"completed"`
	CoinsAwarded          int64   `json:"coins_awarded"`
	WalletBalance         int64   `json:"wallet_balance"`
}

// Reporter delivers watch progress to the rewards API.
type Reporter interface {
	ReportWatch(videoID string, watchedSeconds float64) (*WatchAck, error)
}

// HTTPReporter posts reports to the rewards API with a bearer token.
type HTTPReporter struct {
	BaseURL string
	Token   string

	client *http.Client
}

func NewHTTPReporter(baseURL, token string) *HTTPReporter {
	return &HTTPReporter{
		BaseURL: baseURL,
		Token:   token,
		client: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

type watchReportBody struct {
	WatchedSeconds float64 `json:"watched_seconds"`
}

type watchReportEnvelope struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Data    WatchAck `json:"data"`
}

func (r *HTTPReporter) ReportWatch(videoID string, watchedSeconds float64) (*WatchAck, error) {
	body, err := sonic.Marshal(watchReportBody{WatchedSeconds: watchedSeconds})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/api/v1/videos/%s/watch", r.BaseURL, videoID)
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.Token)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("watch report rejected: %s", resp.Status)
	}

	var envelope watchReportEnvelope
	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, err
	}

	return &envelope.Data, nil
}
