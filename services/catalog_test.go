package services

import (
	"testing"
	"time"

	"github.com/the-manager-app/manager_api/dto"
	"github.com/the-manager-app/manager_api/shared"
)

func newCatalogFixture(t *testing.T) (*VideoCatalogService, *RewardService, *PostgresService) {
	t.Helper()

	sqlSvc := &PostgresService{db: newTestDB(t)}
	walletSvc := &WalletService{sqlSvc: sqlSvc}
	rewardSvc := &RewardService{sqlSvc: sqlSvc, walletSvc: walletSvc}
	catalogSvc := &VideoCatalogService{
		sqlSvc:   sqlSvc,
		redisSvc: &RedisService{},
		cacheTTL: time.Second,
	}
	return catalogSvc, rewardSvc, sqlSvc
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestCreateVideoValidation(t *testing.T) {
	catalogSvc, _, _ := newCatalogFixture(t)

	_, err := catalogSvc.CreateVideo(&dto.CreateVideoRequest{
		Title:           "",
		SourceURL:       "not-a-url",
		DurationSeconds: 0,
	})
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.StatusCode != 400 {
		t.Fatalf("expected validation failure, got %v", err)
	}

	video, err := catalogSvc.CreateVideo(&dto.CreateVideoRequest{
		Title:           "Intro",
		SourceURL:       "https://example.com/intro.mp4",
		DurationSeconds: 120,
		CoinsPerMinute:  5,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if video.TotalCoins != 10 {
		t.Fatalf("expected total coins 10, got %d", video.TotalCoins)
	}
	if !video.IsActive {
		t.Fatal("new videos should be active")
	}
}

func TestUpdateVideoDurationFrozenAfterProgress(t *testing.T) {
	catalogSvc, rewardSvc, sqlSvc := newCatalogFixture(t)
	user := seedUser(t, sqlSvc)
	video := seedVideo(t, sqlSvc, 100, 5)

	// No history yet: duration edits are allowed.
	updated, err := catalogSvc.UpdateVideo(video.ID, &dto.UpdateVideoRequest{
		DurationSeconds: intPtr(110),
	})
	if err != nil {
		t.Fatalf("duration update failed: %v", err)
	}
	if updated.DurationSeconds != 110 {
		t.Fatalf("expected duration 110, got %d", updated.DurationSeconds)
	}

	if _, err := rewardSvc.ReportWatch(user.ID, video.ID, 30); err != nil {
		t.Fatalf("report failed: %v", err)
	}

	_, err = catalogSvc.UpdateVideo(video.ID, &dto.UpdateVideoRequest{
		DurationSeconds: intPtr(120),
	})
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.StatusCode != 409 {
		t.Fatalf("expected 409 for frozen duration, got %v", err)
	}

	// Other fields stay editable.
	updated, err = catalogSvc.UpdateVideo(video.ID, &dto.UpdateVideoRequest{
		Title: strPtr("Renamed"),
	})
	if err != nil {
		t.Fatalf("title update failed: %v", err)
	}
	if updated.Title != "Renamed" {
		t.Fatalf("expected renamed title, got %q", updated.Title)
	}
}

func TestDeleteVideoWithHistoryRejected(t *testing.T) {
	catalogSvc, rewardSvc, sqlSvc := newCatalogFixture(t)
	user := seedUser(t, sqlSvc)
	video := seedVideo(t, sqlSvc, 100, 5)

	if _, err := rewardSvc.ReportWatch(user.ID, video.ID, 30); err != nil {
		t.Fatalf("report failed: %v", err)
	}

	err := catalogSvc.DeleteVideo(video.ID)
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.StatusCode != 409 {
		t.Fatalf("expected 409 for delete with history, got %v", err)
	}

	// Deactivation is the supported path.
	updated, err := catalogSvc.UpdateVideo(video.ID, &dto.UpdateVideoRequest{
		IsActive: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("deactivation failed: %v", err)
	}
	if updated.IsActive {
		t.Fatal("video should be inactive")
	}

	// Fresh videos delete cleanly.
	fresh := seedVideo(t, sqlSvc, 50, 5)
	if err := catalogSvc.DeleteVideo(fresh.ID); err != nil {
		t.Fatalf("delete of fresh video failed: %v", err)
	}
}

func boolPtr(b bool) *bool { return &b }

func TestListActiveVideosWithProgress(t *testing.T) {
	catalogSvc, rewardSvc, sqlSvc := newCatalogFixture(t)
	user := seedUser(t, sqlSvc)

	watched := seedVideo(t, sqlSvc, 100, 5)
	untouched := seedVideo(t, sqlSvc, 200, 10)
	inactive := seedVideo(t, sqlSvc, 60, 5)
	if _, err := sqlSvc.UpdateVideo(inactive.ID, map[string]interface{}{"is_active": false}); err != nil {
		t.Fatalf("failed to deactivate: %v", err)
	}

	if _, err := rewardSvc.ReportWatch(user.ID, watched.ID, 100); err != nil {
		t.Fatalf("report failed: %v", err)
	}

	list, err := catalogSvc.ListActiveVideos(user.ID)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if list.Total != 2 {
		t.Fatalf("expected 2 active videos, got %d", list.Total)
	}

	byID := map[string]int{}
	for i, v := range list.Videos {
		byID[v.ID] = i
	}
	if _, found := byID[inactive.ID]; found {
		t.Fatal("inactive video leaked into the client list")
	}

	w := list.Videos[byID[watched.ID]]
	if !w.Progress.Completed || w.Progress.CoinsEarned != 10 {
		t.Fatalf("expected completed progress with 10 coins, got %+v", w.Progress)
	}

	u := list.Videos[byID[untouched.ID]]
	if u.Progress.Completed || u.Progress.HighestWatchedSeconds != 0 {
		t.Fatalf("expected zero progress, got %+v", u.Progress)
	}
}
