package search

// Result is a single search hit returned to the caller.
type Result struct {
	ID           string `json:"id"`
	TermID       string `json:"termId"`
	Identifier   string `json:"identifier"`
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name"`
	Snippet      string `json:"snippet"`
	CategoryID   string `json:"categoryId,omitempty"`
}

// Query describes a search request over published terms.
type Query struct {
	Text             string
	FilterLanguage   string // empty = all languages
	FilterCategoryID string
	Limit            int
	Offset           int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// TermRecord is one (term, language) pair of an active version, the
// unit we index. Its ID is stable per (term, language) so publishing a
// newer version overwrites the old document in place.
type TermRecord struct {
	ID           string `json:"id"`
	TermID       string `json:"termId"`
	Identifier   string `json:"identifier"`
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	CategoryID   string `json:"categoryId"`
}

// RecordID builds the per-(term, language) document id.
func RecordID(termID, languageCode string) string {
	return termID + "_" + languageCode
}
