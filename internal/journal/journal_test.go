package journal

import "testing"

func TestExactMatch(t *testing.T) {
	p := NewPatternPolicy()
	if !p.IsReputable("Psychological Science") {
		t.Error("expected exact-match journal to be reputable")
	}
}

func TestTrustedIndex(t *testing.T) {
	p := NewPatternPolicy()
	for _, name := range []string{"arXiv", "PubMed", "bioRxiv"} {
		if !p.IsReputable(name) {
			t.Errorf("expected index %q to be trusted", name)
		}
	}
}

func TestPredatoryPattern(t *testing.T) {
	p := NewPatternPolicy()
	for _, name := range []string{
		"Global Journal of Psychology Research",
		"World Journal of Mental Health",
		"Open Access Journal of Psychiatry",
	} {
		if p.IsReputable(name) {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}

func TestPredatoryException(t *testing.T) {
	p := NewPatternPolicy()
	if !p.IsReputable("International Journal of Psychology") {
		t.Error("expected listed exception to pass")
	}
	if p.IsReputable("International Journal of Advanced Research") {
		t.Error("expected unlisted International Journal to be rejected")
	}
}

func TestPlainJournalOfHeuristic(t *testing.T) {
	p := NewPatternPolicy()
	if !p.IsReputable("Journal of Anxiety Disorders") {
		t.Error("expected plain 'Journal of' name to pass")
	}
}

func TestUnknownDefaultsToFalse(t *testing.T) {
	p := NewPatternPolicy()
	if p.IsReputable("") {
		t.Error("expected empty name to be rejected")
	}
	if p.IsReputable("Totally Unknown Quarterly") {
		t.Error("expected unknown venue to be rejected")
	}
}
