// Package gitrepo keeps a git-backed archive of published term
// content. Every publish becomes one commit, so the public history of
// the glossary survives outside the database.
package gitrepo

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// SnapshotTranslation is one localized rendering of a published version.
type SnapshotTranslation struct {
	LanguageCode string
	Name         string
	Description  string
}

// Snapshot is the content committed for one publish.
type Snapshot struct {
	Identifier    string
	VersionNumber int
	Translations  []SnapshotTranslation
}

// CommitInfo describes one archive commit.
type CommitInfo struct {
	Hash      string
	Message   string
	Author    string
	CreatedAt time.Time
}

// Service owns the single archive repository. Commits serialize on one
// mutex; publish volume is editorial, not hot-path.
type Service struct {
	dir string
	mu  sync.Mutex
}

func New(dir string) *Service {
	return &Service{dir: dir}
}

// EnsureArchive initializes the archive repository if it does not exist.
func (s *Service) EnsureArchive() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(filepath.Join(s.dir, ".git")); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat archive path: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	repo, err := git.PlainInit(s.dir, false)
	if err != nil {
		return fmt.Errorf("init archive repo: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	readme := "# Glossary archive\n\nOne commit per published term version.\n"
	if err := os.WriteFile(filepath.Join(s.dir, "README.md"), []byte(readme), 0o644); err != nil {
		return fmt.Errorf("write readme: %w", err)
	}
	if _, err := worktree.Add("README.md"); err != nil {
		return fmt.Errorf("git add readme: %w", err)
	}
	hash, err := worktree.Commit("Initialize glossary archive", &git.CommitOptions{
		Author: signature("dentalex"),
	})
	if err != nil {
		return fmt.Errorf("commit readme: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("main"), hash)); err != nil {
		return fmt.Errorf("set main branch ref: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main"))); err != nil {
		return fmt.Errorf("set HEAD to main: %w", err)
	}
	return nil
}

// CommitPublish writes one markdown file per translation under
// terms/<identifier>/ and commits the result.
func (s *Service) CommitPublish(snap Snapshot, author string) (CommitInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := git.PlainOpen(s.dir)
	if err != nil {
		return CommitInfo{}, fmt.Errorf("open archive repo: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return CommitInfo{}, fmt.Errorf("open worktree: %w", err)
	}

	termDir := filepath.Join("terms", snap.Identifier)
	if err := os.MkdirAll(filepath.Join(s.dir, termDir), 0o755); err != nil {
		return CommitInfo{}, fmt.Errorf("create term dir: %w", err)
	}

	translations := append([]SnapshotTranslation(nil), snap.Translations...)
	sort.Slice(translations, func(i, j int) bool {
		return translations[i].LanguageCode < translations[j].LanguageCode
	})
	for _, tr := range translations {
		body := fmt.Sprintf("# %s\n\n%s\n", tr.Name, tr.Description)
		relPath := filepath.Join(termDir, tr.LanguageCode+".md")
		if err := os.WriteFile(filepath.Join(s.dir, relPath), []byte(body), 0o644); err != nil {
			return CommitInfo{}, fmt.Errorf("write term file: %w", err)
		}
		if _, err := worktree.Add(relPath); err != nil {
			return CommitInfo{}, fmt.Errorf("git add term file: %w", err)
		}
	}

	message := fmt.Sprintf("Publish %s v%d", snap.Identifier, snap.VersionNumber)
	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author:            signature(author),
		AllowEmptyCommits: true,
	})
	if err != nil {
		return CommitInfo{}, fmt.Errorf("commit publish: %w", err)
	}

	commitObj, err := repo.CommitObject(hash)
	if err != nil {
		return CommitInfo{}, fmt.Errorf("read commit object: %w", err)
	}
	return toCommitInfo(commitObj), nil
}

// History returns the most recent archive commits, newest first.
func (s *Service) History(limit int) ([]CommitInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := git.PlainOpen(s.dir)
	if err != nil {
		return nil, fmt.Errorf("open archive repo: %w", err)
	}
	ref, err := repo.Reference(plumbing.NewBranchReferenceName("main"), true)
	if err != nil {
		return nil, fmt.Errorf("resolve main: %w", err)
	}

	iter, err := repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	items := make([]CommitInfo, 0, limit)
	count := 0
	err = iter.ForEach(func(commitObj *object.Commit) error {
		items = append(items, toCommitInfo(commitObj))
		count++
		if limit > 0 && count >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

func toCommitInfo(commitObj *object.Commit) CommitInfo {
	return CommitInfo{
		Hash:      commitObj.Hash.String()[:7],
		Message:   commitObj.Message,
		Author:    commitObj.Author.Name,
		CreatedAt: commitObj.Author.When,
	}
}

func signature(author string) *object.Signature {
	return &object.Signature{
		Name:  author,
		Email: fmt.Sprintf("%s@local.dentalex.dev", sanitizeEmail(author)),
		When:  time.Now(),
	}
}

func sanitizeEmail(input string) string {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			out = append(out, r)
			continue
		}
		if r == ' ' || r == '-' || r == '_' || r == '@' || r == '.' {
			out = append(out, '.')
		}
	}
	if len(out) == 0 {
		return "user"
	}
	return string(out)
}
