package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func getTestDatabaseURL(t *testing.T) string {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("DENTALEX_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("DENTALEX_TEST_DATABASE_URL is not set")
	}
	return dsn
}

func setupTestStore(t *testing.T) (*PostgresStore, context.Context) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	db, err := Open(ctx, getTestDatabaseURL(t))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := resetPublicSchema(ctx, db); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	if err := ApplyMigrations(ctx, db, filepath.Join("..", "..", "db", "migrations")); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return NewPostgresStore(db), ctx
}

func seedTermWithPublishedVersion(t *testing.T, s *PostgresStore, ctx context.Context) (Term, TermVersion) {
	t.Helper()
	term := Term{ID: "term_1", Identifier: "tooth"}
	version := TermVersion{ID: "ver_1", TermID: term.ID, CreatedBy: "importer"}
	translations := []TermTranslation{
		{VersionID: version.ID, LanguageCode: "en", Name: "Tooth", Description: "A hard structure in the jaw"},
		{VersionID: version.ID, LanguageCode: "lv", Name: "Zobs", Description: "Ciets veidojums žoklī"},
	}
	if err := s.CreateImportedTerm(ctx, term, version, translations); err != nil {
		t.Fatalf("seed term: %v", err)
	}
	seeded, err := s.GetTerm(ctx, term.ID)
	if err != nil {
		t.Fatalf("reload term: %v", err)
	}
	published, err := s.GetTermVersion(ctx, version.ID)
	if err != nil {
		t.Fatalf("reload version: %v", err)
	}
	return seeded, published
}

func TestPublishArchivesPriorActiveAndRepoints(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	s, ctx := setupTestStore(t)
	term, v1 := seedTermWithPublishedVersion(t, s, ctx)

	if term.ActiveVersionID == nil || *term.ActiveVersionID != v1.ID {
		t.Fatalf("seed should leave v1 active, got %+v", term.ActiveVersionID)
	}

	draft, err := s.CreateDraftFrom(ctx, v1.ID, "ver_2", "editor@example.com")
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if draft.VersionNumber != 2 || draft.Status != "DRAFT" {
		t.Fatalf("unexpected draft: %+v", draft)
	}

	copied, err := s.ListVersionTranslations(ctx, draft.ID)
	if err != nil {
		t.Fatalf("list draft translations: %v", err)
	}
	if len(copied) != 2 {
		t.Fatalf("draft should copy both translations, got %d", len(copied))
	}

	// Active pointer is untouched by forking.
	term, err = s.GetTerm(ctx, term.ID)
	if err != nil {
		t.Fatalf("reload term: %v", err)
	}
	if *term.ActiveVersionID != v1.ID {
		t.Fatalf("fork must not move the active pointer")
	}

	if _, err := s.SetReadyToPublish(ctx, draft.ID, true); err != nil {
		t.Fatalf("set ready: %v", err)
	}
	outcome, err := s.PublishVersion(ctx, draft.ID, true, time.Now().UTC())
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if outcome.ArchivedVersionID == nil || *outcome.ArchivedVersionID != v1.ID {
		t.Fatalf("publish should archive v1, got %+v", outcome.ArchivedVersionID)
	}
	if outcome.Version.Status != "PUBLISHED" || outcome.Version.PublishedAt == nil {
		t.Fatalf("published version incomplete: %+v", outcome.Version)
	}

	archived, err := s.GetTermVersion(ctx, v1.ID)
	if err != nil {
		t.Fatalf("reload v1: %v", err)
	}
	if archived.Status != "ARCHIVED" || archived.ArchivedAt == nil {
		t.Fatalf("v1 should be archived: %+v", archived)
	}

	term, err = s.GetTerm(ctx, term.ID)
	if err != nil {
		t.Fatalf("reload term: %v", err)
	}
	if term.ActiveVersionID == nil || *term.ActiveVersionID != draft.ID {
		t.Fatalf("active pointer should move to v2, got %+v", term.ActiveVersionID)
	}
}

func TestCreateDraftFromRejectsSecondOpenDraft(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	s, ctx := setupTestStore(t)
	_, v1 := seedTermWithPublishedVersion(t, s, ctx)

	if _, err := s.CreateDraftFrom(ctx, v1.ID, "ver_2", "editor@example.com"); err != nil {
		t.Fatalf("first fork: %v", err)
	}
	_, err := s.CreateDraftFrom(ctx, v1.ID, "ver_3", "editor@example.com")
	if !errors.Is(err, ErrDraftExists) {
		t.Fatalf("second fork should fail with ErrDraftExists, got %v", err)
	}
}

func TestUpsertDraftTranslationsRefusesPublishedVersion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	s, ctx := setupTestStore(t)
	_, v1 := seedTermWithPublishedVersion(t, s, ctx)

	err := s.UpsertDraftTranslations(ctx, v1.ID, []TermTranslation{
		{VersionID: v1.ID, LanguageCode: "en", Name: "Changed", Description: "Changed"},
	})
	if !errors.Is(err, ErrNotDraft) {
		t.Fatalf("expected ErrNotDraft, got %v", err)
	}

	translations, err := s.ListVersionTranslations(ctx, v1.ID)
	if err != nil {
		t.Fatalf("list translations: %v", err)
	}
	for _, tr := range translations {
		if tr.Name == "Changed" {
			t.Fatalf("published translation was mutated")
		}
	}
}

func TestPublishLoserGetsNotDraft(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	s, ctx := setupTestStore(t)
	_, v1 := seedTermWithPublishedVersion(t, s, ctx)

	draft, err := s.CreateDraftFrom(ctx, v1.ID, "ver_2", "editor@example.com")
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}
	if _, err := s.SetReadyToPublish(ctx, draft.ID, true); err != nil {
		t.Fatalf("set ready: %v", err)
	}
	if _, err := s.PublishVersion(ctx, draft.ID, true, time.Now().UTC()); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	_, err = s.PublishVersion(ctx, draft.ID, true, time.Now().UTC())
	if !errors.Is(err, ErrNotDraft) {
		t.Fatalf("second publish should fail with ErrNotDraft, got %v", err)
	}
}

func TestPublishReChecksReadyInTransaction(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	s, ctx := setupTestStore(t)
	_, v1 := seedTermWithPublishedVersion(t, s, ctx)

	draft, err := s.CreateDraftFrom(ctx, v1.ID, "ver_2", "editor@example.com")
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}

	// A draft whose ready mark was withdrawn must not publish, even if
	// an earlier read saw it as ready.
	if _, err := s.SetReadyToPublish(ctx, draft.ID, true); err != nil {
		t.Fatalf("set ready: %v", err)
	}
	if _, err := s.SetReadyToPublish(ctx, draft.ID, false); err != nil {
		t.Fatalf("clear ready: %v", err)
	}
	_, err = s.PublishVersion(ctx, draft.ID, true, time.Now().UTC())
	if !errors.Is(err, ErrNotReady) {
		t.Fatalf("publish should fail with ErrNotReady, got %v", err)
	}

	// A forced publish skips the readiness gate.
	if _, err := s.PublishVersion(ctx, draft.ID, false, time.Now().UTC()); err != nil {
		t.Fatalf("forced publish: %v", err)
	}
}
