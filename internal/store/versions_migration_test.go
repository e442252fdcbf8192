package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestVersionsMigrationEnforcesCoreConstraints(t *testing.T) {
	migrationPath := filepath.Join("..", "..", "db", "migrations", "0004_terms_versions.up.sql")
	sqlBytes, err := os.ReadFile(migrationPath)
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	sqlText := string(sqlBytes)

	expectedSnippets := []string{
		"UNIQUE (term_id, version_number)",
		"idx_term_versions_single_draft",
		"WHERE status = 'DRAFT'",
		"CHECK (status IN ('DRAFT', 'PUBLISHED', 'ARCHIVED'))",
		"fk_terms_active_version",
		"DEFERRABLE INITIALLY DEFERRED",
	}
	for _, snippet := range expectedSnippets {
		if !strings.Contains(sqlText, snippet) {
			t.Fatalf("expected migration to contain %q", snippet)
		}
	}
}
