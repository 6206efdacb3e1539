//go:build !integration

package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"

	"line-fortune-subscription/internal/domain/model"
)

// newDispatchUC builds a dispatch use case with no real waiting: zero
// backoff between attempts, no inter-send pacing, pinned clock.
func newDispatchUC(fortunes *memFortuneRepo, push *fakePush) *dispatchUC {
	subs := NewSubscriptionUseCase(newMemSubscriptionRepo(), newFakeCache())
	uc := NewDispatchUseCase(fortunes, subs, push, newTestLogger())
	uc.now = func() time.Time { return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC) }
	uc.sleep = func(ctx context.Context, d time.Duration) {}
	uc.randIndex = func(n int) int { return 0 }
	uc.newBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, maxSendAttempts-1)
	}
	return uc
}

func recipient(userID, name, content string) *model.FortuneRecipient {
	return &model.FortuneRecipient{UserID: userID, LineName: name, Content: content}
}

func TestDispatchUseCase_SendDailyFortunes(t *testing.T) {
	ctx := context.Background()

	t.Run("one bad recipient does not abort the run", func(t *testing.T) {
		fortunes := newMemFortuneRepo()
		fortunes.recipients = []*model.FortuneRecipient{
			recipient("U1", "สมชาย", "วันนี้ดวงดี"),
			recipient("U2", "สมหญิง", "ระวังเรื่องการเงิน"),
			recipient("U3", "วิชัย", "พบเจอโชคลาภ"),
		}
		push := &fakePush{}
		var mu sync.Mutex
		attempts := map[string]int{}
		push.PushTextFunc = func(ctx context.Context, userID, text string) error {
			mu.Lock()
			attempts[userID]++
			mu.Unlock()
			if userID == "U2" {
				return errors.New("delivery blocked")
			}
			return nil
		}

		uc := newDispatchUC(fortunes, push)
		report, err := uc.SendDailyFortunes(ctx)
		if err != nil {
			t.Fatalf("per-user failures must not fail the run: %v", err)
		}
		if report.Sent != 2 || report.Failed != 1 || report.Total != 3 {
			t.Errorf("report = %+v, want sent 2 failed 1 total 3", report)
		}
		if len(report.FailedUsers) != 1 || report.FailedUsers[0].UserID != "U2" {
			t.Errorf("failed users = %+v", report.FailedUsers)
		}
		if attempts["U2"] != maxSendAttempts {
			t.Errorf("failing user got %d attempts, want %d", attempts["U2"], maxSendAttempts)
		}
		if attempts["U1"] != 1 || attempts["U3"] != 1 {
			t.Errorf("healthy users must get exactly one attempt: %v", attempts)
		}
	})

	t.Run("transient failure recovers within the retry budget", func(t *testing.T) {
		fortunes := newMemFortuneRepo()
		fortunes.recipients = []*model.FortuneRecipient{recipient("U1", "สมชาย", "วันนี้ดวงดี")}
		push := &fakePush{}
		calls := 0
		push.PushTextFunc = func(ctx context.Context, userID, text string) error {
			calls++
			if calls < 3 {
				return errors.New("temporarily unavailable")
			}
			return nil
		}

		uc := newDispatchUC(fortunes, push)
		report, err := uc.SendDailyFortunes(ctx)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if report.Sent != 1 || report.Failed != 0 {
			t.Errorf("report = %+v, want the retried send counted as success", report)
		}
	})

	t.Run("eligibility query failure aborts", func(t *testing.T) {
		fortunes := newMemFortuneRepo()
		fortunes.findRecipientsErr = errors.New("connection reset")
		uc := newDispatchUC(fortunes, &fakePush{})
		if _, err := uc.SendDailyFortunes(ctx); err == nil {
			t.Fatal("expected the run to fail when eligibility cannot be read")
		}
	})

	t.Run("no recipients is an empty report", func(t *testing.T) {
		uc := newDispatchUC(newMemFortuneRepo(), &fakePush{})
		report, err := uc.SendDailyFortunes(ctx)
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		if report.Total != 0 || report.Sent != 0 || report.Failed != 0 {
			t.Errorf("report = %+v, want all zeros", report)
		}
	})

	t.Run("canceled context stops between sends", func(t *testing.T) {
		fortunes := newMemFortuneRepo()
		fortunes.recipients = []*model.FortuneRecipient{
			recipient("U1", "สมชาย", "วันนี้ดวงดี"),
			recipient("U2", "สมหญิง", "ระวังเรื่องการเงิน"),
		}
		push := &fakePush{}
		cctx, cancel := context.WithCancel(ctx)
		push.PushTextFunc = func(ctx context.Context, userID, text string) error {
			cancel()
			return nil
		}

		uc := newDispatchUC(fortunes, push)
		report, err := uc.SendDailyFortunes(cctx)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if report.Sent != 1 {
			t.Errorf("sent = %d, want 1 before cancellation", report.Sent)
		}
	})
}

func TestDispatchUseCase_BuildMessage(t *testing.T) {
	uc := newDispatchUC(newMemFortuneRepo(), &fakePush{})

	t.Run("renders name, date and content", func(t *testing.T) {
		text := uc.buildMessage(&model.FortuneRecipient{
			UserID: "U1", LineName: "สมชาย", Category: "การงาน", Zodiac: "มังกร", Content: "วันนี้ดวงดี",
		})
		for _, frag := range []string{"คุณสมชาย", "พ.ศ. 2569", "📂 หมวด: การงาน", "♈ ราศี: มังกร", "วันนี้ดวงดี", "Fortune App"} {
			if !strings.Contains(text, frag) {
				t.Errorf("message missing %q:\n%s", frag, text)
			}
		}
	})

	t.Run("optional fields are omitted, not blanked", func(t *testing.T) {
		text := uc.buildMessage(recipient("U1", "สมชาย", "วันนี้ดวงดี"))
		if strings.Contains(text, "หมวด") || strings.Contains(text, "ราศี") {
			t.Errorf("empty category and zodiac must not render:\n%s", text)
		}
	})

	t.Run("missing name and content fall back", func(t *testing.T) {
		text := uc.buildMessage(&model.FortuneRecipient{UserID: "U1"})
		if !strings.Contains(text, "คุณผู้ใช้") {
			t.Errorf("expected fallback name:\n%s", text)
		}
		if !strings.Contains(text, "ไม่มีข้อมูลดวงประจำวัน") {
			t.Errorf("expected fallback content:\n%s", text)
		}
	})

	t.Run("overlong message is truncated under the push limit", func(t *testing.T) {
		text := uc.buildMessage(recipient("U1", "สมชาย", strings.Repeat("ดวงดีมาก ", 300)))
		runes := []rune(text)
		if len(runes) > pushTextLimit {
			t.Fatalf("message is %d runes, push channel caps at %d", len(runes), pushTextLimit)
		}
		if len(runes) != truncatedLength+3 || !strings.HasSuffix(text, "...") {
			t.Errorf("expected %d runes ending in ellipsis, got %d", truncatedLength+3, len(runes))
		}
	})
}

func TestThaiDate(t *testing.T) {
	// A Monday in the Buddhist year 2569.
	got := thaiDate(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC))
	want := "วันจันทร์ที่ 2 มีนาคม พ.ศ. 2569"
	if got != want {
		t.Errorf("thaiDate = %q, want %q", got, want)
	}
}
