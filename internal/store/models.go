package store

import "time"

type User struct {
	ID                    string
	DisplayName           string
	Email                 string
	PasswordHash          string
	Role                  string
	PreferredLocale       string
	IsEmailVerified       bool
	VerificationToken     string
	VerificationExpiresAt *time.Time
	DeactivatedAt         *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type Language struct {
	Code      string
	Name      string
	IsDefault bool
	IsEnabled bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Category struct {
	ID           string
	SortOrder    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Translations []CategoryTranslation
}

type CategoryTranslation struct {
	CategoryID   string
	LanguageCode string
	Name         string
}

type Label struct {
	ID           string
	CreatedAt    time.Time
	Translations []LabelTranslation
}

type LabelTranslation struct {
	LabelID      string
	LanguageCode string
	Name         string
}

type Term struct {
	ID              string
	Identifier      string
	CategoryID      *string
	ActiveVersionID *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type TermVersion struct {
	ID             string
	TermID         string
	VersionNumber  int
	Status         string
	ReadyToPublish bool
	CreatedBy      string
	CreatedAt      time.Time
	PublishedAt    *time.Time
	ArchivedAt     *time.Time
}

type TermTranslation struct {
	VersionID    string
	LanguageCode string
	Name         string
	Description  string
}

// PublishedTermRow is one (term, language) pair of the currently active
// version, as returned by the public listing query.
type PublishedTermRow struct {
	TermID       string
	Identifier   string
	CategoryID   *string
	VersionID    string
	LanguageCode string
	Name         string
	Description  string
}

// PublishOutcome describes the state after an atomic publish.
type PublishOutcome struct {
	Term              Term
	Version           TermVersion
	ArchivedVersionID *string
}

type Favorite struct {
	ID        string
	UserID    string
	TermID    string
	CreatedAt time.Time
}

type Comment struct {
	ID         string
	TermID     string
	UserID     string
	AuthorName string
	Body       string
	CreatedAt  time.Time
}

type ImportRun struct {
	ID           string
	ObjectKey    string
	Status       string
	TermsCreated int
	TermsSkipped int
	Error        string
	StartedBy    string
	StartedAt    time.Time
	FinishedAt   *time.Time
}
