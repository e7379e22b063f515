package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/the-manager-app/manager_api/model"
	"github.com/the-manager-app/manager_api/shared"
)

var testDbSeq atomic.Int64

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:rewardtest%d?mode=memory&cache=shared", testDbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&model.User{},
		&model.Video{},
		&model.WatchProgress{},
		&model.WalletCreditEvent{},
		&model.WalletTransaction{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

func newRewardFixture(t *testing.T) (*RewardService, *WalletService, *PostgresService) {
	t.Helper()

	sqlSvc := &PostgresService{db: newTestDB(t)}
	walletSvc := &WalletService{sqlSvc: sqlSvc}
	rewardSvc := &RewardService{sqlSvc: sqlSvc, walletSvc: walletSvc}
	return rewardSvc, walletSvc, sqlSvc
}

func seedUser(t *testing.T, sqlSvc *PostgresService) *model.User {
	t.Helper()

	id, _ := uuid.NewV7()
	user := &model.User{
		ID:       id.String(),
		Email:    id.String() + "@example.com",
		Username: "user_" + id.String(),
		Role:     model.RoleClient,
		IsActive: true,
	}
	if _, err := sqlSvc.CreateUser(user); err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return user
}

func seedVideo(t *testing.T, sqlSvc *PostgresService, duration, rate int) *model.Video {
	t.Helper()

	id, _ := uuid.NewV7()
	now := time.Now()
	video := &model.Video{
		ID:              id.String(),
		Title:           "Test Video",
		SourceURL:       "https://example.com/video.mp4",
		DurationSeconds: duration,
		CoinsPerMinute:  rate,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if _, err := sqlSvc.CreateVideo(video); err != nil {
		t.Fatalf("failed to seed video: %v", err)
	}
	return video
}

func TestReportWatchMonotonic(t *testing.T) {
	rewardSvc, _, sqlSvc := newRewardFixture(t)
	user := seedUser(t, sqlSvc)
	video := seedVideo(t, sqlSvc, 300, 5)

	resp, err := rewardSvc.ReportWatch(user.ID, video.ID, 40)
	if err != nil {
		t.Fatalf("first report failed: %v", err)
	}
	if resp.HighestWatchedSeconds != 40 {
		t.Fatalf("expected highest 40, got %v", resp.HighestWatchedSeconds)
	}
	if resp.Completed || resp.CoinsAwarded != 0 {
		t.Fatalf("unexpected completion on partial watch: %+v", resp)
	}

	resp, err = rewardSvc.ReportWatch(user.ID, video.ID, 20)
	if err != nil {
		t.Fatalf("stale report failed: %v", err)
	}
	if resp.HighestWatchedSeconds != 40 {
		t.Fatalf("stale report moved the mark: got %v, want 40", resp.HighestWatchedSeconds)
	}

	resp, err = rewardSvc.ReportWatch(user.ID, video.ID, 55.5)
	if err != nil {
		t.Fatalf("forward report failed: %v", err)
	}
	if resp.HighestWatchedSeconds != 55.5 {
		t.Fatalf("expected highest 55.5, got %v", resp.HighestWatchedSeconds)
	}
}

func TestReportWatchClampAndComplete(t *testing.T) {
	rewardSvc, _, sqlSvc := newRewardFixture(t)
	user := seedUser(t, sqlSvc)
	video := seedVideo(t, sqlSvc, 100, 5)

	resp, err := rewardSvc.ReportWatch(user.ID, video.ID, 150)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if resp.HighestWatchedSeconds != 100 {
		t.Fatalf("expected clamp to 100, got %v", resp.HighestWatchedSeconds)
	}
	if !resp.Completed {
		t.Fatal("clamped full watch should complete")
	}

	wantCoins := TotalCoins(100, 5)
	if resp.CoinsAwarded != wantCoins {
		t.Fatalf("expected %d coins awarded, got %d", wantCoins, resp.CoinsAwarded)
	}
	if resp.WalletBalance != wantCoins {
		t.Fatalf("expected balance %d, got %d", wantCoins, resp.WalletBalance)
	}
}

func TestReportWatchCompletionThreshold(t *testing.T) {
	rewardSvc, _, sqlSvc := newRewardFixture(t)
	user := seedUser(t, sqlSvc)
	video := seedVideo(t, sqlSvc, 100, 5)

	resp, err := rewardSvc.ReportWatch(user.ID, video.ID, 98)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if resp.Completed {
		t.Fatal("98s of a 100s video should not complete")
	}

	resp, err = rewardSvc.ReportWatch(user.ID, video.ID, 99)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if !resp.Completed {
		t.Fatal("99s of a 100s video should complete")
	}
	if resp.CoinsAwarded == 0 {
		t.Fatal("completing call should carry the award")
	}
}

func TestReportWatchExactlyOnceCredit(t *testing.T) {
	rewardSvc, walletSvc, sqlSvc := newRewardFixture(t)
	user := seedUser(t, sqlSvc)
	video := seedVideo(t, sqlSvc, 100, 5)

	first, err := rewardSvc.ReportWatch(user.ID, video.ID, 100)
	if err != nil {
		t.Fatalf("completing report failed: %v", err)
	}
	if first.CoinsAwarded != 10 {
		t.Fatalf("expected 10 coins on completion, got %d", first.CoinsAwarded)
	}

	// Replays after completion change nothing and award nothing.
	for i := 0; i < 3; i++ {
		replay, err := rewardSvc.ReportWatch(user.ID, video.ID, 100)
		if err != nil {
			t.Fatalf("replay %d failed: %v", i, err)
		}
		if replay.CoinsAwarded != 0 {
			t.Fatalf("replay awarded coins: %d", replay.CoinsAwarded)
		}
		if !replay.Completed {
			t.Fatal("completion must not revert")
		}
		if replay.WalletBalance != first.WalletBalance {
			t.Fatalf("balance drifted on replay: %d -> %d", first.WalletBalance, replay.WalletBalance)
		}
	}

	wallet, err := walletSvc.GetWallet(user.ID)
	if err != nil {
		t.Fatalf("failed to read wallet: %v", err)
	}
	if wallet.CoinsBalance != 10 {
		t.Fatalf("expected final balance 10, got %d", wallet.CoinsBalance)
	}

	txs, err := walletSvc.GetTransactions(user.ID, 1, 20)
	if err != nil {
		t.Fatalf("failed to read transactions: %v", err)
	}
	if txs.Total != 1 || len(txs.Transactions) != 1 {
		t.Fatalf("expected exactly one ledger entry, got %d", txs.Total)
	}
	entry := txs.Transactions[0]
	if entry.Type != model.TxTypeEarned || entry.Source != model.TxSourceVideoWatch {
		t.Fatalf("unexpected ledger entry: %+v", entry)
	}
	if entry.BalanceBefore != 0 || entry.BalanceAfter != 10 {
		t.Fatalf("unexpected balances: before=%d after=%d", entry.BalanceBefore, entry.BalanceAfter)
	}
}

func TestReportWatchCreditGateBlocksDoublePay(t *testing.T) {
	rewardSvc, _, sqlSvc := newRewardFixture(t)
	user := seedUser(t, sqlSvc)
	video := seedVideo(t, sqlSvc, 100, 5)

	// Simulate a racing call that already holds the gate but whose progress
	// flip has not landed yet.
	eventID, _ := uuid.NewV7()
	err := sqlSvc.Db().Create(&model.WalletCreditEvent{
		ID:        eventID.String(),
		UserID:    user.ID,
		VideoID:   video.ID,
		Amount:    10,
		CreatedAt: time.Now(),
	}).Error
	if err != nil {
		t.Fatalf("failed to pre-insert credit event: %v", err)
	}

	resp, err := rewardSvc.ReportWatch(user.ID, video.ID, 100)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if !resp.Completed {
		t.Fatal("report should still complete the record")
	}
	if resp.CoinsAwarded != 0 {
		t.Fatalf("gate loser must not award coins, got %d", resp.CoinsAwarded)
	}
	if resp.WalletBalance != 0 {
		t.Fatalf("balance must be untouched by gate loser, got %d", resp.WalletBalance)
	}

	var events int64
	sqlSvc.Db().Model(&model.WalletCreditEvent{}).
		Where("user_id = ? AND video_id = ?", user.ID, video.ID).
		Count(&events)
	if events != 1 {
		t.Fatalf("expected one credit event, got %d", events)
	}
}

func TestReportWatchRejectsBadInput(t *testing.T) {
	rewardSvc, _, sqlSvc := newRewardFixture(t)
	user := seedUser(t, sqlSvc)
	video := seedVideo(t, sqlSvc, 100, 5)

	if _, err := rewardSvc.ReportWatch(user.ID, video.ID, -1); err == nil {
		t.Fatal("negative report should be rejected")
	}

	_, err := rewardSvc.ReportWatch(user.ID, "missing-video", 10)
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.StatusCode != 404 {
		t.Fatalf("expected 404 for unknown video, got %v", err)
	}

	// Inactive videos look exactly like missing ones.
	if _, err := sqlSvc.UpdateVideo(video.ID, map[string]interface{}{"is_active": false}); err != nil {
		t.Fatalf("failed to deactivate video: %v", err)
	}
	_, err = rewardSvc.ReportWatch(user.ID, video.ID, 10)
	appErr, ok = shared.GetAppError(err)
	if !ok || appErr.StatusCode != 404 {
		t.Fatalf("expected 404 for inactive video, got %v", err)
	}
}

func TestGetProgress(t *testing.T) {
	rewardSvc, _, sqlSvc := newRewardFixture(t)
	user := seedUser(t, sqlSvc)
	video := seedVideo(t, sqlSvc, 100, 5)

	// Untouched video reads as zero progress, not an error.
	progress, err := rewardSvc.GetProgress(user.ID, video.ID)
	if err != nil {
		t.Fatalf("progress read failed: %v", err)
	}
	if progress.HighestWatchedSeconds != 0 || progress.Completed || progress.CoinsEarned != 0 {
		t.Fatalf("expected zero progress, got %+v", progress)
	}

	if _, err := rewardSvc.ReportWatch(user.ID, video.ID, 100); err != nil {
		t.Fatalf("report failed: %v", err)
	}

	progress, err = rewardSvc.GetProgress(user.ID, video.ID)
	if err != nil {
		t.Fatalf("progress read failed: %v", err)
	}
	if !progress.Completed || progress.CoinsEarned != 10 {
		t.Fatalf("expected completed with 10 coins, got %+v", progress)
	}
}
