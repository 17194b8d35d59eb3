// Package mailer sends the daily digest over SMTP.
package mailer

import (
	"encoding/base64"
	"fmt"
	"net/smtp"
	"os"
	"sort"
	"strings"

	"psyinsight/internal/config"
	"psyinsight/internal/database"
)

// Mailer formats and sends digests. send is swappable for tests.
type Mailer struct {
	cfg  config.Email
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func New(cfg config.Email) *Mailer {
	return &Mailer{cfg: cfg, send: smtp.SendMail}
}

// SendDigest mails the day's articles and papers, highest validity
// first, plus the economy report when present.
func (m *Mailer) SendDigest(date string, articles []database.Article, papers []database.Paper, report *database.EconomyReport) error {
	if !m.cfg.Enabled {
		return nil
	}
	if m.cfg.SMTPHost == "" || m.cfg.From == "" || len(m.cfg.To) == 0 {
		return fmt.Errorf("email enabled but smtp_host, from, or to missing")
	}

	body := m.buildBody(date, articles, papers, report)
	msg := m.buildMessage(date, body)

	var auth smtp.Auth
	if m.cfg.PasswordEnv != "" {
		if pass := os.Getenv(m.cfg.PasswordEnv); pass != "" {
			auth = smtp.PlainAuth("", m.cfg.From, pass, m.cfg.SMTPHost)
		}
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.SMTPHost, m.cfg.SMTPPort)
	if err := m.send(addr, auth, m.cfg.From, m.cfg.To, msg); err != nil {
		return fmt.Errorf("sending digest: %w", err)
	}
	return nil
}

func (m *Mailer) buildMessage(date, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(m.cfg.To, ", "))
	fmt.Fprintf(&b, "Subject: =?UTF-8?B?%s?=\r\n", encodeBase64("심리 인사이트 "+date))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

func (m *Mailer) buildBody(date string, articles []database.Article, papers []database.Paper, report *database.EconomyReport) string {
	sorted := append([]database.Article(nil), articles...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ValidityScore > sorted[j].ValidityScore
	})
	sortedPapers := append([]database.Paper(nil), papers...)
	sort.SliceStable(sortedPapers, func(i, j int) bool {
		return sortedPapers[i].ValidityScore > sortedPapers[j].ValidityScore
	})

	var b strings.Builder
	fmt.Fprintf(&b, "%s 수집 결과\n\n", date)

	if len(sorted) > 0 {
		b.WriteString("[뉴스]\n")
		for _, a := range sorted {
			fmt.Fprintf(&b, "- (%d점) %s\n  %s\n", a.ValidityScore, a.Title, a.URL)
		}
		b.WriteString("\n")
	}
	if len(sortedPapers) > 0 {
		b.WriteString("[논문]\n")
		for _, p := range sortedPapers {
			fmt.Fprintf(&b, "- (%d점) %s\n  %s\n", p.ValidityScore, p.Title, p.URL)
		}
		b.WriteString("\n")
	}
	if report != nil {
		b.WriteString("[경제 보고서]\n")
		b.WriteString(report.ReportText)
		b.WriteString("\n")
	}
	if len(sorted) == 0 && len(sortedPapers) == 0 && report == nil {
		b.WriteString("오늘 수집된 항목이 없습니다.\n")
	}
	return b.String()
}

func encodeBase64(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}
