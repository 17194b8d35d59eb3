package database

// Article represents a collected and enriched news article.
type Article struct {
	ID             int64
	URL            string
	Title          string
	Summary        *string
	FullText       *string
	Source         *string
	PublishedDate  *string
	Country        *string
	Keyword        *string
	Keywords       []string
	ValidityScore  int
	ValidityReason *string
	CreatedAt      *string
}

// Paper represents a collected and enriched academic paper.
type Paper struct {
	ID             int64
	URL            string
	Title          string
	Abstract       *string
	Authors        []string
	Journal        *string
	PublishedDate  *string
	Keyword        *string
	Keywords       []string
	ValidityScore  int
	ValidityReason *string
	CreatedAt      *string
}

// EconomyNews represents a collected economy news item or report link.
type EconomyNews struct {
	ID            int64
	URL           string
	Title         string
	Summary       *string
	FullText      *string
	Source        *string
	Category      string // macro | industry | global
	PublishedDate *string
	Keywords      []string
	CreatedAt     *string
}

// EconomyReport is a synthesized daily report over economy news.
type EconomyReport struct {
	ID          int64
	ReportDate  string
	ReportText  string
	NewsCount   int
	UsedNewsIDs []int64
	CreatedAt   *string
}

// GeneratedContent is a user-requested content draft built from
// stored items.
type GeneratedContent struct {
	ID          int64
	ContentType string // blog | script | social | research_idea
	Topic       string
	ContentText string
	SourceIDs   []int64
	CreatedAt   *string
}

// Bookmark pins a stored item for later reading.
type Bookmark struct {
	ID        int64
	ItemType  string // article | paper | economy
	ItemID    int64
	CreatedAt *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	Articles         int
	Papers           int
	EconomyNews      int
	EconomyReports   int
	GeneratedContent int
	Bookmarks        int
}
