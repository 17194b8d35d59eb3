// Package journal decides whether a venue counts as reputable. The
// check is a best-effort pattern heuristic and deliberately pluggable:
// callers use it to order collection priority, never to hard-exclude.
package journal

import "strings"

// Policy reports whether a journal name is considered reputable.
type Policy interface {
	IsReputable(journalName string) bool
}

// PatternPolicy is the default table-backed heuristic: an exact-name
// set, substring patterns for well-known venues, predatory-publisher
// patterns with listed exceptions, and trusted preprint indexes.
type PatternPolicy struct {
	exact               map[string]struct{}
	reputablePatterns   []string
	predatoryPatterns   []string
	predatoryExceptions []string
	trustedIndexes      map[string]struct{}
}

var reputableJournals = []string{
	"Nature", "Science", "Cell", "Lancet", "New England Journal of Medicine",

	"Psychological Review", "Annual Review of Psychology", "Psychological Bulletin",
	"Journal of Personality and Social Psychology", "Psychological Science",
	"Journal of Experimental Psychology", "Developmental Psychology",
	"Journal of Abnormal Psychology", "Clinical Psychological Science",

	"Journal of Consulting and Clinical Psychology", "Clinical Psychology Review",
	"Journal of Counseling Psychology", "Psychotherapy", "Journal of Clinical Psychology",
	"Cognitive Therapy and Research", "Behavior Therapy", "Journal of Behavior Therapy",

	"Nature Neuroscience", "Neuron", "Journal of Neuroscience", "Brain",
	"NeuroImage", "Cerebral Cortex", "Trends in Cognitive Sciences",

	"American Journal of Psychiatry", "Archives of General Psychiatry",
	"Journal of the American Academy of Child and Adolescent Psychiatry",
	"Depression and Anxiety", "Journal of Affective Disorders",

	"Personality and Social Psychology Bulletin", "Social Psychological and Personality Science",
	"Journal of Personality", "Personality and Individual Differences",
	"Journal of Research in Personality", "European Journal of Personality",

	"Child Development", "Developmental Science", "Journal of Experimental Child Psychology",

	"Cognition", "Journal of Memory and Language", "Cognitive Psychology",
	"Memory & Cognition", "Psychonomic Bulletin & Review",
}

var reputablePatterns = []string{
	"Review", "Annual Review", "Nature", "Science", "Cell", "Lancet",
	"Journal of Consulting", "Journal of Clinical", "Clinical Psychology",
	"Psychological Review", "Psychological Bulletin", "Psychological Science",
	"Journal of Experimental Psychology", "Journal of Personality",
	"Journal of Neuroscience", "Neuron", "Brain", "NeuroImage",
	"American Journal of Psychiatry", "Archives of General Psychiatry",
	"Child Development", "Developmental Psychology", "Cognition",
}

var predatoryPatterns = []string{
	"International Journal of",
	"Global Journal of",
	"World Journal of",
	"American Journal of Research",
	"Open Access Journal of",
	"Scientific Research Publishing",
	"OMICS Publishing Group",
	"Hindawi",
}

// Known reputable venues that would otherwise trip the
// "International Journal of" predatory pattern.
var predatoryExceptions = []string{
	"International Journal of Psychology",
	"International Journal of Clinical",
}

var trustedIndexes = []string{"PubMed", "arXiv", "bioRxiv", "medRxiv"}

// NewPatternPolicy builds the default policy from the built-in tables.
func NewPatternPolicy() *PatternPolicy {
	p := &PatternPolicy{
		exact:               make(map[string]struct{}, len(reputableJournals)),
		reputablePatterns:   reputablePatterns,
		predatoryPatterns:   predatoryPatterns,
		predatoryExceptions: predatoryExceptions,
		trustedIndexes:      make(map[string]struct{}, len(trustedIndexes)),
	}
	for _, j := range reputableJournals {
		p.exact[j] = struct{}{}
	}
	for _, idx := range trustedIndexes {
		p.trustedIndexes[idx] = struct{}{}
	}
	return p
}

// IsReputable applies the heuristic in order: exact match, reputable
// pattern (unless a predatory pattern also matches), predatory pattern
// (with exceptions), trusted index, then a conservative default of
// false.
func (p *PatternPolicy) IsReputable(journalName string) bool {
	if journalName == "" {
		return false
	}
	if _, ok := p.exact[journalName]; ok {
		return true
	}
	if _, ok := p.trustedIndexes[journalName]; ok {
		return true
	}

	upper := strings.ToUpper(journalName)

	for _, pattern := range p.reputablePatterns {
		if strings.Contains(upper, strings.ToUpper(pattern)) {
			if !p.matchesPredatory(upper) {
				return true
			}
		}
	}

	for _, pattern := range p.predatoryPatterns {
		if strings.Contains(upper, strings.ToUpper(pattern)) {
			// A listed exception is accepted, not merely spared.
			return p.matchesException(upper)
		}
	}

	// A plain "Journal of ..." with no predatory marker is accepted.
	if strings.HasPrefix(upper, "JOURNAL OF") || strings.HasPrefix(upper, "AMERICAN JOURNAL OF") {
		return true
	}

	return false
}

func (p *PatternPolicy) matchesPredatory(upper string) bool {
	for _, pattern := range p.predatoryPatterns {
		if strings.Contains(upper, strings.ToUpper(pattern)) {
			return !p.matchesException(upper)
		}
	}
	return false
}

func (p *PatternPolicy) matchesException(upper string) bool {
	for _, exc := range p.predatoryExceptions {
		if strings.Contains(upper, strings.ToUpper(exc)) {
			return true
		}
	}
	return false
}
