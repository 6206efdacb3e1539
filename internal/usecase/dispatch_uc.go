package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"line-fortune-subscription/internal/domain/model"
	"line-fortune-subscription/internal/domain/ports/adapter"
	"line-fortune-subscription/internal/domain/ports/repository"
)

// Compile-time check
var _ DispatchUseCase = (*dispatchUC)(nil)

// DispatchReport summarizes one dispatch run. Per-user delivery failures
// land in FailedUsers and never abort the run.
type DispatchReport struct {
	Sent        int              `json:"sent"`
	Failed      int              `json:"failed"`
	Total       int              `json:"total"`
	FailedUsers []FailedDelivery `json:"failedUsers,omitempty"`
}

type FailedDelivery struct {
	UserID   string `json:"user_id"`
	LineName string `json:"line_name"`
	Error    string `json:"error"`
}

type DispatchUseCase interface {
	// SendDailyFortunes sweeps expired subscriptions, finds every member
	// with an active subscription and content for today, and pushes the
	// personalized message to each. Returns an error only when the
	// eligibility query itself fails.
	SendDailyFortunes(ctx context.Context) (*DispatchReport, error)
}

const (
	maxSendAttempts = 3
	pushTextLimit   = 2000
	truncatedLength = 1950
)

// Pacing between successful pushes, picked at random per send.
var interSendDelays = []time.Duration{
	500 * time.Millisecond,
	600 * time.Millisecond,
	700 * time.Millisecond,
	800 * time.Millisecond,
	900 * time.Millisecond,
	1000 * time.Millisecond,
}

type dispatchUC struct {
	fortunes repository.FortuneRepository
	subs     SubscriptionUseCase
	push     adapter.PushClient
	log      zerolog.Logger
	loc      *time.Location

	now        func() time.Time
	sleep      func(ctx context.Context, d time.Duration)
	randIndex  func(n int) int
	newBackOff func() backoff.BackOff
}

func NewDispatchUseCase(fortunes repository.FortuneRepository, subs SubscriptionUseCase, push adapter.PushClient, logger zerolog.Logger) *dispatchUC {
	loc, err := time.LoadLocation("Asia/Bangkok")
	if err != nil {
		loc = time.FixedZone("ICT", 7*60*60)
	}
	return &dispatchUC{
		fortunes:   fortunes,
		subs:       subs,
		push:       push,
		log:        logger.With().Str("component", "dispatch_uc").Logger(),
		loc:        loc,
		now:        time.Now,
		sleep:      sleepCtx,
		randIndex:  rand.Intn,
		newBackOff: sendBackOff,
	}
}

// sendBackOff waits 1s, 2s, 4s between the three attempts, capped at 5s.
func sendBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.Multiplier = 2
	bo.MaxInterval = 5 * time.Second
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	return backoff.WithMaxRetries(bo, maxSendAttempts-1)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (u *dispatchUC) SendDailyFortunes(ctx context.Context) (*DispatchReport, error) {
	// Expired entitlements are swept first so the eligibility join never
	// sees a stale active flag. A sweep failure is logged but does not
	// stop the run; readers re-derive activity from the end date anyway.
	if n, err := u.subs.DeactivateExpired(ctx); err != nil {
		u.log.Error().Err(err).Msg("expiry sweep failed, continuing dispatch")
	} else if n > 0 {
		u.log.Info().Int64("count", n).Msg("deactivated expired subscriptions")
	}

	today := u.now().In(u.loc).Format("2006-01-02")
	recipients, err := u.fortunes.FindTodayRecipients(ctx, repository.NoTX, today)
	if err != nil {
		return nil, fmt.Errorf("fetch eligible recipients: %w", err)
	}

	report := &DispatchReport{Total: len(recipients)}
	for _, r := range recipients {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := u.sendWithRetry(ctx, r); err != nil {
			report.Failed++
			report.FailedUsers = append(report.FailedUsers, FailedDelivery{
				UserID:   r.UserID,
				LineName: r.LineName,
				Error:    err.Error(),
			})
			u.log.Error().Err(err).Str("user_id", r.UserID).Msg("fortune delivery failed")
			continue
		}
		report.Sent++
		// Randomized pacing between pushes keeps the provider happy.
		u.sleep(ctx, interSendDelays[u.randIndex(len(interSendDelays))])
	}

	u.log.Info().
		Int("sent", report.Sent).
		Int("failed", report.Failed).
		Int("total", report.Total).
		Msg("daily fortune dispatch finished")
	return report, nil
}

func (u *dispatchUC) sendWithRetry(ctx context.Context, r *model.FortuneRecipient) error {
	text := u.buildMessage(r)
	op := func() error {
		return u.push.PushText(ctx, r.UserID, text)
	}
	return backoff.Retry(op, backoff.WithContext(u.newBackOff(), ctx))
}

// buildMessage renders the daily message, falling back field by field so
// a half-filled content row still produces something sendable, and
// truncates anything the push channel would reject.
func (u *dispatchUC) buildMessage(r *model.FortuneRecipient) string {
	name := strings.TrimSpace(r.LineName)
	if name == "" {
		name = "ผู้ใช้"
	}
	var category, zodiac string
	if c := strings.TrimSpace(r.Category); c != "" {
		category = "📂 หมวด: " + c + "\n"
	}
	if z := strings.TrimSpace(r.Zodiac); z != "" {
		zodiac = "♈ ราศี: " + z + "\n"
	}
	content := strings.TrimSpace(r.Content)
	if content == "" {
		content = "ไม่มีข้อมูลดวงประจำวัน"
	}

	text := fmt.Sprintf(`🌅 สวัสดีตอนเช้า คุณ%s

📅 %s

🔮 ดวงประจำวันของคุณ
%s%s
%s

✨ ขอให้มีวันที่ดีนะคะ!

---
Fortune App 💫`, name, thaiDate(u.now().In(u.loc)), category, zodiac, content)

	if runes := []rune(text); len(runes) > pushTextLimit {
		text = string(runes[:truncatedLength]) + "..."
	}
	return text
}

var (
	thaiWeekdays = [...]string{"อาทิตย์", "จันทร์", "อังคาร", "พุธ", "พฤหัสบดี", "ศุกร์", "เสาร์"}
	thaiMonths   = [...]string{
		"มกราคม", "กุมภาพันธ์", "มีนาคม", "เมษายน", "พฤษภาคม", "มิถุนายน",
		"กรกฎาคม", "สิงหาคม", "กันยายน", "ตุลาคม", "พฤศจิกายน", "ธันวาคม",
	}
)

// thaiDate renders a long Thai date with the Buddhist-era year.
func thaiDate(t time.Time) string {
	return fmt.Sprintf("วัน%sที่ %d %s พ.ศ. %d",
		thaiWeekdays[t.Weekday()], t.Day(), thaiMonths[t.Month()-1], t.Year()+543)
}
