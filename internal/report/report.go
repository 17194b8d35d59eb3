// Package report synthesizes a daily economy report from stored
// economy news.
package report

import (
	"context"
	"fmt"
	"log"
	"strings"

	"psyinsight/internal/database"
	"psyinsight/internal/enrich"
)

// maxPerCategory caps how many items per category enter the prompt.
const maxPerCategory = 10

var categoryNames = map[string]string{
	"macro":    "국내 거시경제",
	"industry": "산업 동향",
	"global":   "글로벌 경제",
}

var categoryOrder = []string{"macro", "industry", "global"}

const reportPrompt = `다음은 오늘 수집된 경제 뉴스입니다. 카테고리별로 핵심 흐름을 정리한 일일 경제 보고서를 작성해주세요.

형식:
## 오늘의 핵심
(전체를 관통하는 핵심 흐름 2~3문장)

## 국내 거시경제
## 산업 동향
## 글로벌 경제
(각 섹션은 해당 뉴스가 있을 때만 작성)

뉴스 목록:
%s`

// Synthesizer builds and stores daily reports.
type Synthesizer struct {
	db       *database.DB
	enricher *enrich.Client
}

func New(db *database.DB, enricher *enrich.Client) *Synthesizer {
	return &Synthesizer{db: db, enricher: enricher}
}

// Synthesize returns the report for the given date (YYYY-MM-DD),
// generating it if needed. When a report already exists and every
// current item is already covered by it, the stored report is returned
// without any provider call; force overrides that. A nil report with a
// nil error means there was nothing to report on or synthesis was
// exhausted.
func (s *Synthesizer) Synthesize(ctx context.Context, date string, force bool) (*database.EconomyReport, error) {
	items, err := s.db.GetEconomyNewsOn(date)
	if err != nil {
		return nil, fmt.Errorf("loading economy news: %w", err)
	}
	if len(items) == 0 {
		return nil, nil
	}

	currentIDs := make([]int64, len(items))
	for i, it := range items {
		currentIDs[i] = it.ID
	}

	existing, err := s.db.GetEconomyReport(date)
	if err != nil {
		return nil, fmt.Errorf("loading existing report: %w", err)
	}
	if existing != nil && !force && !hasUnused(existing.UsedNewsIDs, currentIDs) {
		return existing, nil
	}

	text, err := s.enricher.SynthesizeReport(ctx, fmt.Sprintf(reportPrompt, formatItems(items)))
	if err != nil {
		log.Printf("report: synthesis for %s failed: %v", date, err)
		return nil, nil
	}

	report := database.EconomyReport{
		ReportDate:  date,
		ReportText:  text,
		NewsCount:   len(items),
		UsedNewsIDs: currentIDs,
	}
	if _, err := s.db.UpsertEconomyReport(report); err != nil {
		return nil, fmt.Errorf("storing report: %w", err)
	}
	stored, err := s.db.GetEconomyReport(date)
	if err != nil {
		return nil, fmt.Errorf("reloading report: %w", err)
	}
	return stored, nil
}

// formatItems renders the prompt body grouped by category, capped per
// category so one busy channel cannot crowd out the rest.
func formatItems(items []database.EconomyNews) string {
	grouped := make(map[string][]database.EconomyNews)
	for _, it := range items {
		grouped[it.Category] = append(grouped[it.Category], it)
	}

	var b strings.Builder
	for _, cat := range categoryOrder {
		group := grouped[cat]
		if len(group) == 0 {
			continue
		}
		if len(group) > maxPerCategory {
			group = group[:maxPerCategory]
		}
		fmt.Fprintf(&b, "\n[%s]\n", categoryNames[cat])
		for _, it := range group {
			fmt.Fprintf(&b, "- %s", it.Title)
			if it.Source != nil {
				fmt.Fprintf(&b, " (%s)", *it.Source)
			}
			b.WriteString("\n")
			if it.Summary != nil && *it.Summary != "" {
				fmt.Fprintf(&b, "  %s\n", enrich.Ellipsize(*it.Summary, 150))
			}
		}
	}
	return b.String()
}

// hasUnused reports whether any current item is missing from the used
// set. Deleting an item leaves no unused items, so no regeneration.
func hasUnused(used, current []int64) bool {
	seen := make(map[int64]struct{}, len(used))
	for _, id := range used {
		seen[id] = struct{}{}
	}
	for _, id := range current {
		if _, ok := seen[id]; !ok {
			return true
		}
	}
	return false
}
