package mailer

import (
	"net/smtp"
	"strings"
	"testing"

	"psyinsight/internal/config"
	"psyinsight/internal/database"
)

func testMailer(captured *string) *Mailer {
	m := New(config.Email{
		Enabled:  true,
		SMTPHost: "smtp.example.com",
		SMTPPort: 587,
		From:     "me@example.com",
		To:       []string{"you@example.com"},
	})
	m.send = func(_ string, _ smtp.Auth, _ string, _ []string, msg []byte) error {
		*captured = string(msg)
		return nil
	}
	return m
}

func TestSendDigestSortsByScore(t *testing.T) {
	var captured string
	m := testMailer(&captured)

	articles := []database.Article{
		{Title: "낮은 점수", URL: "https://a.com/low", ValidityScore: 2},
		{Title: "높은 점수", URL: "https://a.com/high", ValidityScore: 5},
	}
	if err := m.SendDigest("2026-08-31", articles, nil, nil); err != nil {
		t.Fatalf("SendDigest: %v", err)
	}

	high := strings.Index(captured, "높은 점수")
	low := strings.Index(captured, "낮은 점수")
	if high == -1 || low == -1 || high > low {
		t.Errorf("expected higher score first, got:\n%s", captured)
	}
}

func TestSendDigestIncludesReport(t *testing.T) {
	var captured string
	m := testMailer(&captured)

	report := &database.EconomyReport{ReportText: "## 오늘의 핵심\n금리 동결."}
	if err := m.SendDigest("2026-08-31", nil, nil, report); err != nil {
		t.Fatalf("SendDigest: %v", err)
	}
	if !strings.Contains(captured, "금리 동결") {
		t.Error("expected report text in digest")
	}
}

func TestSendDigestDisabled(t *testing.T) {
	m := New(config.Email{Enabled: false})
	m.send = func(_ string, _ smtp.Auth, _ string, _ []string, _ []byte) error {
		t.Error("send must not be called when disabled")
		return nil
	}
	if err := m.SendDigest("2026-08-31", nil, nil, nil); err != nil {
		t.Fatalf("SendDigest: %v", err)
	}
}

func TestSendDigestMissingConfig(t *testing.T) {
	m := New(config.Email{Enabled: true})
	if err := m.SendDigest("2026-08-31", nil, nil, nil); err == nil {
		t.Fatal("expected error for incomplete email config")
	}
}
