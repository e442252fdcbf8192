package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"dentalex/api/internal/search"
	"dentalex/api/internal/store"
	"dentalex/api/internal/util"
)

type dataStore interface {
	categoryStore
	ListLanguages(ctx context.Context, enabledOnly bool) ([]store.Language, error)
	GetTermByIdentifier(ctx context.Context, identifier string) (store.Term, error)
	CreateImportedTerm(ctx context.Context, term store.Term, version store.TermVersion, translations []store.TermTranslation) error
	InsertImportRun(ctx context.Context, run store.ImportRun) error
	FinishImportRun(ctx context.Context, runID, status string, created, skipped int, runError string) error
}

type indexer interface {
	IndexTerms(records []search.TermRecord)
}

// Service runs bulk imports: it fetches a corpus object, creates a term with
// an initial published version for every new identifier, and records the run.
type Service struct {
	store         dataStore
	objects       ObjectStore
	search        indexer
	defaultLocale string
}

func NewService(s dataStore, objects ObjectStore, idx indexer, defaultLocale string) *Service {
	return &Service{
		store:         s,
		objects:       objects,
		search:        idx,
		defaultLocale: defaultLocale,
	}
}

// Report summarizes a completed run.
type Report struct {
	RunID     string   `json:"runId"`
	ObjectKey string   `json:"objectKey"`
	Created   int      `json:"created"`
	Skipped   int      `json:"skipped"`
	Problems  []string `json:"problems,omitempty"`
}

// Run executes one import. Category lookups go through a cache scoped to
// this call, so renames or deletes during the run cannot leak stale IDs into
// another run.
func (s *Service) Run(ctx context.Context, objectKey, startedBy string) (*Report, error) {
	run := store.ImportRun{
		ID:        util.NewID("imp"),
		ObjectKey: objectKey,
		Status:    "RUNNING",
		StartedBy: startedBy,
		StartedAt: time.Now(),
	}
	if err := s.store.InsertImportRun(ctx, run); err != nil {
		return nil, fmt.Errorf("record import run: %w", err)
	}

	report, err := s.execute(ctx, run.ID, objectKey)
	if err != nil {
		if finishErr := s.store.FinishImportRun(ctx, run.ID, "FAILED", 0, 0, err.Error()); finishErr != nil {
			log.Printf("import %s: record failure: %v", run.ID, finishErr)
		}
		return nil, err
	}

	if err := s.store.FinishImportRun(ctx, run.ID, "COMPLETED", report.Created, report.Skipped, ""); err != nil {
		return nil, fmt.Errorf("finish import run: %w", err)
	}
	s.archiveReport(ctx, report)
	return report, nil
}

func (s *Service) execute(ctx context.Context, runID, objectKey string) (*Report, error) {
	body, err := s.objects.Fetch(ctx, objectKey)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	corpus, err := ParseCorpus(body)
	if err != nil {
		return nil, err
	}

	languages, err := s.store.ListLanguages(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}
	enabled := make(map[string]bool, len(languages))
	for _, lang := range languages {
		enabled[lang.Code] = true
	}

	report := &Report{RunID: runID, ObjectKey: objectKey}
	cache := newCategoryCache(s.store, s.defaultLocale)
	var records []search.TermRecord

	for _, cat := range corpus.Categories {
		categoryID, err := cache.resolve(ctx, cat.Name)
		if err != nil {
			return nil, err
		}
		for _, entry := range cat.Terms {
			created, problems, recs, err := s.importTerm(ctx, categoryID, entry, enabled)
			if err != nil {
				return nil, err
			}
			report.Problems = append(report.Problems, problems...)
			if created {
				report.Created++
				records = append(records, recs...)
			} else {
				report.Skipped++
			}
		}
	}

	if len(records) > 0 {
		s.search.IndexTerms(records)
	}
	return report, nil
}

func (s *Service) importTerm(ctx context.Context, categoryID string, entry CorpusTerm, enabled map[string]bool) (bool, []string, []search.TermRecord, error) {
	identifier := strings.TrimSpace(entry.Identifier)
	if _, err := s.store.GetTermByIdentifier(ctx, identifier); err == nil {
		return false, []string{fmt.Sprintf("%s: identifier already exists", identifier)}, nil, nil
	}

	var problems []string
	translations := make([]store.TermTranslation, 0, len(entry.Translations))
	codes := make([]string, 0, len(entry.Translations))
	for code := range entry.Translations {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		tr := entry.Translations[code]
		if !enabled[code] {
			problems = append(problems, fmt.Sprintf("%s: language %q is not enabled, dropped", identifier, code))
			continue
		}
		if strings.TrimSpace(tr.Name) == "" {
			problems = append(problems, fmt.Sprintf("%s: empty name for language %q, dropped", identifier, code))
			continue
		}
		translations = append(translations, store.TermTranslation{
			LanguageCode: code,
			Name:         strings.TrimSpace(tr.Name),
			Description:  strings.TrimSpace(tr.Description),
		})
	}
	if len(translations) == 0 {
		problems = append(problems, fmt.Sprintf("%s: no usable translations", identifier))
		return false, problems, nil, nil
	}

	term := store.Term{
		ID:         util.NewID("term"),
		Identifier: identifier,
		CategoryID: &categoryID,
	}
	version := store.TermVersion{
		ID:        util.NewID("ver"),
		TermID:    term.ID,
		CreatedBy: "import",
	}
	if err := s.store.CreateImportedTerm(ctx, term, version, translations); err != nil {
		return false, nil, nil, fmt.Errorf("import term %s: %w", identifier, err)
	}

	records := make([]search.TermRecord, 0, len(translations))
	for _, tr := range translations {
		records = append(records, search.TermRecord{
			ID:           search.RecordID(term.ID, tr.LanguageCode),
			TermID:       term.ID,
			Identifier:   identifier,
			LanguageCode: tr.LanguageCode,
			Name:         tr.Name,
			Description:  tr.Description,
			CategoryID:   categoryID,
		})
	}
	return true, problems, records, nil
}

func (s *Service) archiveReport(ctx context.Context, report *Report) {
	if s.objects == nil {
		return
	}
	body, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Printf("import %s: marshal report: %v", report.RunID, err)
		return
	}
	key := fmt.Sprintf("reports/%s.json", report.RunID)
	if err := s.objects.StoreReport(ctx, key, body); err != nil {
		log.Printf("import %s: archive report: %v", report.RunID, err)
	}
}
