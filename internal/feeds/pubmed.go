package feeds

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// PubMedFetcher searches PubMed through the NCBI E-utilities, a
// two-step protocol: esearch returns matching IDs, efetch returns the
// records.
type PubMedFetcher struct {
	client  *http.Client
	baseURL string
	delay   time.Duration
}

func NewPubMedFetcher(delay time.Duration) *PubMedFetcher {
	return &PubMedFetcher{
		client:  &http.Client{Timeout: 20 * time.Second},
		baseURL: "https://eutils.ncbi.nlm.nih.gov/entrez/eutils",
		delay:   delay,
	}
}

func (f *PubMedFetcher) SetBaseURL(u string) {
	f.baseURL = strings.TrimRight(u, "/")
}

type esearchResponse struct {
	Result struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type pubmedArticleSet struct {
	Articles []struct {
		Citation struct {
			PMID    string `xml:"PMID"`
			Article struct {
				Title    string `xml:"ArticleTitle"`
				Abstract struct {
					Text []string `xml:"AbstractText"`
				} `xml:"Abstract"`
				Authors []struct {
					LastName string `xml:"LastName"`
					ForeName string `xml:"ForeName"`
				} `xml:"AuthorList>Author"`
				Journal struct {
					Title string `xml:"Title"`
					Issue struct {
						Date struct {
							Year  string `xml:"Year"`
							Month string `xml:"Month"`
							Day   string `xml:"Day"`
						} `xml:"PubDate"`
					} `xml:"JournalIssue"`
				} `xml:"Journal"`
			} `xml:"Article"`
		} `xml:"MedlineCitation"`
	} `xml:"PubmedArticle"`
}

// Fetch returns up to max recent papers matching one keyword.
func (f *PubMedFetcher) Fetch(ctx context.Context, keyword string, max int) ([]PaperCandidate, error) {
	ids, err := f.search(ctx, keyword, max)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if err := pause(ctx, f.delay); err != nil {
		return nil, err
	}
	return f.fetchRecords(ctx, keyword, ids)
}

func (f *PubMedFetcher) search(ctx context.Context, keyword string, max int) ([]string, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("term", keyword)
	q.Set("retmax", fmt.Sprintf("%d", max))
	q.Set("retmode", "json")
	q.Set("sort", "date")

	body, err := f.get(ctx, f.baseURL+"/esearch.fcgi?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("pubmed search for %q: %w", keyword, err)
	}
	var resp esearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("pubmed search for %q: %w", keyword, err)
	}
	return resp.Result.IDList, nil
}

func (f *PubMedFetcher) fetchRecords(ctx context.Context, keyword string, ids []string) ([]PaperCandidate, error) {
	q := url.Values{}
	q.Set("db", "pubmed")
	q.Set("id", strings.Join(ids, ","))
	q.Set("retmode", "xml")

	body, err := f.get(ctx, f.baseURL+"/efetch.fcgi?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("pubmed fetch for %q: %w", keyword, err)
	}
	var set pubmedArticleSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("pubmed fetch for %q: %w", keyword, err)
	}

	var out []PaperCandidate
	for _, rec := range set.Articles {
		art := rec.Citation.Article
		if rec.Citation.PMID == "" || art.Title == "" {
			continue
		}
		var authors []string
		for _, a := range art.Authors {
			name := strings.TrimSpace(a.ForeName + " " + a.LastName)
			if name != "" {
				authors = append(authors, name)
			}
		}
		date := art.Journal.Issue.Date
		published := ""
		if date.Year != "" {
			published = date.Year
			if m := monthNumber(date.Month); m != "" {
				published += "-" + m
				if date.Day != "" {
					published += "-" + pad2(date.Day)
				}
			}
		}
		out = append(out, PaperCandidate{
			URL:           "https://pubmed.ncbi.nlm.nih.gov/" + rec.Citation.PMID + "/",
			Title:         art.Title,
			Abstract:      strings.Join(art.Abstract.Text, " "),
			Authors:       authors,
			Journal:       art.Journal.Title,
			PublishedDate: published,
			Keyword:       keyword,
		})
	}
	return out, nil
}

func (f *PubMedFetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// monthNumber maps PubMed month spellings, which mix numbers and
// English abbreviations, to a two-digit number.
func monthNumber(m string) string {
	months := map[string]string{
		"Jan": "01", "Feb": "02", "Mar": "03", "Apr": "04",
		"May": "05", "Jun": "06", "Jul": "07", "Aug": "08",
		"Sep": "09", "Oct": "10", "Nov": "11", "Dec": "12",
	}
	if n, ok := months[m]; ok {
		return n
	}
	if len(m) > 0 && m[0] >= '0' && m[0] <= '9' {
		return pad2(m)
	}
	return ""
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
