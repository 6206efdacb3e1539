package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"line-fortune-subscription/internal/domain/ports/repository"
)

// webhookPayload is the platform event feed. Signature verification is
// terminated upstream; events arrive trusted.
type webhookPayload struct {
	Events []webhookEvent `json:"events"`
}

type webhookEvent struct {
	Type       string `json:"type"`
	ReplyToken string `json:"replyToken"`
	Message    struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"message"`
}

// handleLineWebhook answers the two chat keywords members use: "package"
// lists the purchasable plans, "help" points at the login page. Anything
// else is ignored. The endpoint always returns 200 so the platform does
// not retry.
func (s *Server) handleLineWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.log.Warn().Err(err).Msg("unparseable webhook payload")
		w.WriteHeader(http.StatusOK)
		return
	}

	for _, ev := range payload.Events {
		if ev.Type != "message" || ev.Message.Type != "text" || ev.ReplyToken == "" {
			continue
		}
		switch strings.TrimSpace(strings.ToLower(ev.Message.Text)) {
		case "package":
			s.replyPackages(r, ev.ReplyToken)
		case "help":
			s.replyHelp(r, ev.ReplyToken)
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) replyPackages(r *http.Request, replyToken string) {
	pkgs, err := s.packages.ListActive(r.Context(), repository.NoTX)
	if err != nil {
		s.log.Error().Err(err).Msg("list packages for webhook reply")
		return
	}
	var sb strings.Builder
	sb.WriteString("แพ็กเกจคำทำนาย 🔮\n")
	for _, p := range pkgs {
		name := p.DisplayName
		if name == "" {
			name = p.Name
		}
		sb.WriteString(fmt.Sprintf("\n%s — ฿%s / %d วัน", name, p.Price.StringFixed(0), p.DurationDays))
	}
	sb.WriteString("\n\nสมัครได้ที่หน้าเว็บของเราเลยค่ะ")
	if err := s.push.ReplyText(r.Context(), replyToken, sb.String()); err != nil {
		s.log.Error().Err(err).Msg("webhook package reply failed")
	}
}

func (s *Server) replyHelp(r *http.Request, replyToken string) {
	const text = "สวัสดีค่ะ 🌟\nพิมพ์ \"package\" เพื่อดูแพ็กเกจคำทำนาย\nหรือเข้าสู่ระบบที่หน้าเว็บเพื่อจัดการการสมัครของคุณ"
	if err := s.push.ReplyText(r.Context(), replyToken, text); err != nil {
		s.log.Error().Err(err).Msg("webhook help reply failed")
	}
}
