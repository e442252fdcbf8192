package importer

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"

	"dentalex/api/internal/search"
	"dentalex/api/internal/store"
)

type fakeStore struct {
	findCategoryByName func(ctx context.Context, name string) (store.Category, error)
	insertCategory     func(ctx context.Context, cat store.Category) error
	listLanguages      func(ctx context.Context, enabledOnly bool) ([]store.Language, error)
	getTermByID        func(ctx context.Context, identifier string) (store.Term, error)
	createImportedTerm func(ctx context.Context, term store.Term, version store.TermVersion, translations []store.TermTranslation) error
	insertImportRun    func(ctx context.Context, run store.ImportRun) error
	finishImportRun    func(ctx context.Context, runID, status string, created, skipped int, runError string) error
}

func (f *fakeStore) FindCategoryByName(ctx context.Context, name string) (store.Category, error) {
	return f.findCategoryByName(ctx, name)
}

func (f *fakeStore) InsertCategory(ctx context.Context, cat store.Category) error {
	return f.insertCategory(ctx, cat)
}

func (f *fakeStore) ListLanguages(ctx context.Context, enabledOnly bool) ([]store.Language, error) {
	return f.listLanguages(ctx, enabledOnly)
}

func (f *fakeStore) GetTermByIdentifier(ctx context.Context, identifier string) (store.Term, error) {
	return f.getTermByID(ctx, identifier)
}

func (f *fakeStore) CreateImportedTerm(ctx context.Context, term store.Term, version store.TermVersion, translations []store.TermTranslation) error {
	return f.createImportedTerm(ctx, term, version, translations)
}

func (f *fakeStore) InsertImportRun(ctx context.Context, run store.ImportRun) error {
	return f.insertImportRun(ctx, run)
}

func (f *fakeStore) FinishImportRun(ctx context.Context, runID, status string, created, skipped int, runError string) error {
	return f.finishImportRun(ctx, runID, status, created, skipped, runError)
}

type fakeObjects struct {
	body    string
	reports map[string][]byte
}

func (f *fakeObjects) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader([]byte(f.body))), nil
}

func (f *fakeObjects) StoreReport(ctx context.Context, key string, body []byte) error {
	if f.reports == nil {
		f.reports = make(map[string][]byte)
	}
	f.reports[key] = body
	return nil
}

type fakeIndexer struct {
	records []search.TermRecord
}

func (f *fakeIndexer) IndexTerms(records []search.TermRecord) {
	f.records = append(f.records, records...)
}

func defaultFakeStore() *fakeStore {
	return &fakeStore{
		findCategoryByName: func(ctx context.Context, name string) (store.Category, error) {
			return store.Category{}, sql.ErrNoRows
		},
		insertCategory: func(ctx context.Context, cat store.Category) error { return nil },
		listLanguages: func(ctx context.Context, enabledOnly bool) ([]store.Language, error) {
			return []store.Language{{Code: "en"}, {Code: "lv"}}, nil
		},
		getTermByID: func(ctx context.Context, identifier string) (store.Term, error) {
			return store.Term{}, sql.ErrNoRows
		},
		createImportedTerm: func(ctx context.Context, term store.Term, version store.TermVersion, translations []store.TermTranslation) error {
			return nil
		},
		insertImportRun: func(ctx context.Context, run store.ImportRun) error { return nil },
		finishImportRun: func(ctx context.Context, runID, status string, created, skipped int, runError string) error {
			return nil
		},
	}
}

const testCorpus = `{
	"categories": [
		{
			"name": "Anatomy",
			"terms": [
				{
					"identifier": "molar",
					"translations": {
						"en": {"name": "Molar", "description": "A grinding tooth."},
						"lv": {"name": "Dzeroklis", "description": "Koszobs."}
					}
				},
				{
					"identifier": "incisor",
					"translations": {
						"en": {"name": "Incisor", "description": "A cutting tooth."}
					}
				}
			]
		},
		{
			"name": "Pathology",
			"terms": [
				{
					"identifier": "caries",
					"translations": {
						"en": {"name": "Caries", "description": "Tooth decay."}
					}
				}
			]
		}
	]
}`

func TestRunCreatesTermsAndRecordsRun(t *testing.T) {
	ctx := context.Background()
	fs := defaultFakeStore()

	var createdTerms []store.Term
	fs.createImportedTerm = func(ctx context.Context, term store.Term, version store.TermVersion, translations []store.TermTranslation) error {
		createdTerms = append(createdTerms, term)
		return nil
	}

	var finishedStatus string
	var finishedCreated, finishedSkipped int
	fs.finishImportRun = func(ctx context.Context, runID, status string, created, skipped int, runError string) error {
		finishedStatus = status
		finishedCreated = created
		finishedSkipped = skipped
		return nil
	}

	objects := &fakeObjects{body: testCorpus}
	idx := &fakeIndexer{}
	svc := NewService(fs, objects, idx, "en")

	report, err := svc.Run(ctx, "corpus/2026-08.json", "user_1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Created != 3 {
		t.Errorf("created = %d, want 3", report.Created)
	}
	if report.Skipped != 0 {
		t.Errorf("skipped = %d, want 0", report.Skipped)
	}
	if len(createdTerms) != 3 {
		t.Fatalf("created %d terms, want 3", len(createdTerms))
	}
	if finishedStatus != "COMPLETED" || finishedCreated != 3 || finishedSkipped != 0 {
		t.Errorf("run finished with %s created=%d skipped=%d", finishedStatus, finishedCreated, finishedSkipped)
	}

	// one search document per (term, language): molar has two, the rest one
	if len(idx.records) != 4 {
		t.Errorf("indexed %d records, want 4", len(idx.records))
	}

	if len(objects.reports) != 1 {
		t.Fatalf("expected one archived report, got %d", len(objects.reports))
	}
	for key := range objects.reports {
		if !strings.HasPrefix(key, "reports/") {
			t.Errorf("report key %q should live under reports/", key)
		}
	}
}

func TestRunSkipsExistingIdentifiers(t *testing.T) {
	ctx := context.Background()
	fs := defaultFakeStore()
	fs.getTermByID = func(ctx context.Context, identifier string) (store.Term, error) {
		if identifier == "molar" {
			return store.Term{ID: "term_existing", Identifier: "molar"}, nil
		}
		return store.Term{}, sql.ErrNoRows
	}

	svc := NewService(fs, &fakeObjects{body: testCorpus}, &fakeIndexer{}, "en")
	report, err := svc.Run(ctx, "corpus.json", "user_1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Created != 2 || report.Skipped != 1 {
		t.Errorf("created=%d skipped=%d, want 2/1", report.Created, report.Skipped)
	}
	if len(report.Problems) == 0 || !strings.Contains(report.Problems[0], "already exists") {
		t.Errorf("expected a problem entry for the duplicate, got %v", report.Problems)
	}
}

func TestRunLooksUpEachCategoryOnce(t *testing.T) {
	ctx := context.Background()
	fs := defaultFakeStore()

	lookups := make(map[string]int)
	fs.findCategoryByName = func(ctx context.Context, name string) (store.Category, error) {
		lookups[name]++
		return store.Category{}, sql.ErrNoRows
	}

	svc := NewService(fs, &fakeObjects{body: testCorpus}, &fakeIndexer{}, "en")
	if _, err := svc.Run(ctx, "corpus.json", "user_1"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for name, count := range lookups {
		if count != 1 {
			t.Errorf("category %q looked up %d times, want 1", name, count)
		}
	}
}

func TestRunDropsDisabledLanguages(t *testing.T) {
	ctx := context.Background()
	fs := defaultFakeStore()
	fs.listLanguages = func(ctx context.Context, enabledOnly bool) ([]store.Language, error) {
		return []store.Language{{Code: "en"}}, nil
	}

	var captured [][]store.TermTranslation
	fs.createImportedTerm = func(ctx context.Context, term store.Term, version store.TermVersion, translations []store.TermTranslation) error {
		captured = append(captured, translations)
		return nil
	}

	svc := NewService(fs, &fakeObjects{body: testCorpus}, &fakeIndexer{}, "en")
	report, err := svc.Run(ctx, "corpus.json", "user_1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, translations := range captured {
		for _, tr := range translations {
			if tr.LanguageCode != "en" {
				t.Errorf("translation in disabled language %q survived", tr.LanguageCode)
			}
		}
	}
	found := false
	for _, p := range report.Problems {
		if strings.Contains(p, "not enabled") {
			found = true
		}
	}
	if !found {
		t.Error("expected a problem entry for the dropped language")
	}
}

func TestRunFailsOnMalformedCorpus(t *testing.T) {
	ctx := context.Background()
	fs := defaultFakeStore()

	var finishedStatus, finishedError string
	fs.finishImportRun = func(ctx context.Context, runID, status string, created, skipped int, runError string) error {
		finishedStatus = status
		finishedError = runError
		return nil
	}

	svc := NewService(fs, &fakeObjects{body: `{"categories": [`}, &fakeIndexer{}, "en")
	if _, err := svc.Run(ctx, "broken.json", "user_1"); err == nil {
		t.Fatal("expected error for malformed corpus")
	}

	if finishedStatus != "FAILED" {
		t.Errorf("run status = %q, want FAILED", finishedStatus)
	}
	if finishedError == "" {
		t.Error("expected the run error to be recorded")
	}
}

func TestParseCorpusValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no categories", `{"categories": []}`},
		{"unnamed category", `{"categories": [{"name": "", "terms": []}]}`},
		{"term without identifier", `{"categories": [{"name": "Anatomy", "terms": [{"identifier": ""}]}]}`},
		{"unknown field", `{"categories": [], "extra": true}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseCorpus(strings.NewReader(tc.body)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestCategoryCacheCreatesMissing(t *testing.T) {
	ctx := context.Background()

	var inserted []store.Category
	fs := &fakeStore{
		findCategoryByName: func(ctx context.Context, name string) (store.Category, error) {
			return store.Category{}, sql.ErrNoRows
		},
		insertCategory: func(ctx context.Context, cat store.Category) error {
			inserted = append(inserted, cat)
			return nil
		},
	}

	cache := newCategoryCache(fs, "en")
	first, err := cache.resolve(ctx, "Orthodontics")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	second, err := cache.resolve(ctx, "orthodontics")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	if first != second {
		t.Errorf("case-insensitive lookups returned different IDs: %s vs %s", first, second)
	}
	if len(inserted) != 1 {
		t.Fatalf("inserted %d categories, want 1", len(inserted))
	}
	if len(inserted[0].Translations) != 1 || inserted[0].Translations[0].LanguageCode != "en" {
		t.Errorf("created category should carry one default-locale translation, got %+v", inserted[0].Translations)
	}
}
