package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for status-dependent version operations. Callers
// translate these into their own error surface.
var (
	ErrDraftExists = errors.New("term already has an open draft")
	ErrNotDraft    = errors.New("version is not a draft")
	ErrNotReady    = errors.New("draft is not marked ready to publish")
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ---- users ----

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	const query = `
		SELECT id, display_name, email, password_hash, role, preferred_locale,
			is_email_verified, COALESCE(verification_token, ''), verification_expires_at,
			deactivated_at, created_at, updated_at
		FROM users WHERE LOWER(email) = LOWER($1)
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.Role,
		&user.PreferredLocale, &user.IsEmailVerified, &user.VerificationToken,
		&user.VerificationExpiresAt, &user.DeactivatedAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	const query = `
		SELECT id, display_name, email, password_hash, role, preferred_locale,
			is_email_verified, COALESCE(verification_token, ''), verification_expires_at,
			deactivated_at, created_at, updated_at
		FROM users WHERE id = $1
	`
	var user User
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&user.ID, &user.DisplayName, &user.Email, &user.PasswordHash, &user.Role,
		&user.PreferredLocale, &user.IsEmailVerified, &user.VerificationToken,
		&user.VerificationExpiresAt, &user.DeactivatedAt, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) CreateUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, display_name, email, password_hash, role, preferred_locale,
			is_email_verified, verification_token, verification_expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), $9)
	`, user.ID, user.DisplayName, user.Email, user.PasswordHash, user.Role,
		user.PreferredLocale, user.IsEmailVerified, user.VerificationToken, user.VerificationExpiresAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateUserVerificationToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET verification_token=$2, verification_expires_at=$3, updated_at=NOW()
		WHERE id=$1
	`, userID, token, expiresAt)
	if err != nil {
		return fmt.Errorf("update verification token: %w", err)
	}
	return nil
}

func (s *PostgresStore) VerifyUserEmail(ctx context.Context, token string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET is_email_verified=TRUE, verification_token=NULL, verification_expires_at=NULL, updated_at=NOW()
		WHERE verification_token=$1 AND verification_expires_at > NOW()
	`, token)
	if err != nil {
		return fmt.Errorf("verify email: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("verify email rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) UpdateUserPassword(ctx context.Context, userID, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET password_hash=$2, updated_at=NOW() WHERE id=$1
	`, userID, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateUserLocale(ctx context.Context, userID, locale string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET preferred_locale=$2, updated_at=NOW() WHERE id=$1
	`, userID, locale)
	if err != nil {
		return fmt.Errorf("update locale: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreatePasswordReset(ctx context.Context, userID, token string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO password_resets (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, token, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPasswordReset(ctx context.Context, token string) (string, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id FROM password_resets
		WHERE token=$1 AND used_at IS NULL AND expires_at > NOW()
	`, token).Scan(&userID)
	if err != nil {
		return "", err
	}
	return userID, nil
}

func (s *PostgresStore) MarkPasswordResetUsed(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE password_resets SET used_at=NOW() WHERE token=$1`, token)
	if err != nil {
		return fmt.Errorf("mark password reset used: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAdminEmails(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT email FROM users WHERE role='admin' AND deactivated_at IS NULL ORDER BY email
	`)
	if err != nil {
		return nil, fmt.Errorf("list admin emails: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan admin email: %w", err)
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}

// ---- languages ----

func (s *PostgresStore) ListLanguages(ctx context.Context, enabledOnly bool) ([]Language, error) {
	query := `SELECT code, name, is_default, is_enabled, created_at, updated_at FROM languages`
	if enabledOnly {
		query += ` WHERE is_enabled`
	}
	query += ` ORDER BY code`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list languages: %w", err)
	}
	defer rows.Close()

	var languages []Language
	for rows.Next() {
		var lang Language
		if err := rows.Scan(&lang.Code, &lang.Name, &lang.IsDefault, &lang.IsEnabled, &lang.CreatedAt, &lang.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan language: %w", err)
		}
		languages = append(languages, lang)
	}
	return languages, rows.Err()
}

func (s *PostgresStore) GetLanguage(ctx context.Context, code string) (Language, error) {
	var lang Language
	err := s.db.QueryRowContext(ctx, `
		SELECT code, name, is_default, is_enabled, created_at, updated_at
		FROM languages WHERE code=$1
	`, code).Scan(&lang.Code, &lang.Name, &lang.IsDefault, &lang.IsEnabled, &lang.CreatedAt, &lang.UpdatedAt)
	if err != nil {
		return Language{}, err
	}
	return lang, nil
}

func (s *PostgresStore) InsertLanguage(ctx context.Context, lang Language) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO languages (code, name, is_default, is_enabled)
		VALUES ($1, $2, $3, $4)
	`, lang.Code, lang.Name, lang.IsDefault, lang.IsEnabled)
	if err != nil {
		return fmt.Errorf("insert language: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateLanguage(ctx context.Context, code, name string, isEnabled bool) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE languages SET name=$2, is_enabled=$3, updated_at=NOW() WHERE code=$1
	`, code, name, isEnabled)
	if err != nil {
		return false, fmt.Errorf("update language: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update language rows: %w", err)
	}
	return affected > 0, nil
}

// SetDefaultLanguage makes code the single default language.
func (s *PostgresStore) SetDefaultLanguage(ctx context.Context, code string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set default language: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE languages SET is_default=FALSE WHERE is_default`); err != nil {
		return fmt.Errorf("clear default language: %w", err)
	}
	result, err := tx.ExecContext(ctx, `UPDATE languages SET is_default=TRUE, updated_at=NOW() WHERE code=$1`, code)
	if err != nil {
		return fmt.Errorf("set default language: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set default language rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// ---- categories ----

func (s *PostgresStore) ListCategories(ctx context.Context) ([]Category, error) {
	const query = `
		SELECT c.id, c.sort_order, c.created_at, c.updated_at,
			COALESCE(ct.language_code, ''), COALESCE(ct.name, '')
		FROM categories c
		LEFT JOIN category_translations ct ON ct.category_id = c.id
		ORDER BY c.sort_order, c.id, ct.language_code
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	index := map[string]int{}
	for rows.Next() {
		var cat Category
		var langCode, name string
		if err := rows.Scan(&cat.ID, &cat.SortOrder, &cat.CreatedAt, &cat.UpdatedAt, &langCode, &name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		pos, seen := index[cat.ID]
		if !seen {
			pos = len(categories)
			index[cat.ID] = pos
			categories = append(categories, cat)
		}
		if langCode != "" {
			categories[pos].Translations = append(categories[pos].Translations, CategoryTranslation{
				CategoryID:   cat.ID,
				LanguageCode: langCode,
				Name:         name,
			})
		}
	}
	return categories, rows.Err()
}

func (s *PostgresStore) GetCategory(ctx context.Context, categoryID string) (Category, error) {
	var cat Category
	err := s.db.QueryRowContext(ctx, `
		SELECT id, sort_order, created_at, updated_at FROM categories WHERE id=$1
	`, categoryID).Scan(&cat.ID, &cat.SortOrder, &cat.CreatedAt, &cat.UpdatedAt)
	if err != nil {
		return Category{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT language_code, name FROM category_translations WHERE category_id=$1 ORDER BY language_code
	`, categoryID)
	if err != nil {
		return Category{}, fmt.Errorf("list category translations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		tr := CategoryTranslation{CategoryID: categoryID}
		if err := rows.Scan(&tr.LanguageCode, &tr.Name); err != nil {
			return Category{}, fmt.Errorf("scan category translation: %w", err)
		}
		cat.Translations = append(cat.Translations, tr)
	}
	return cat, rows.Err()
}

// FindCategoryByName matches any localized name, case-insensitively.
func (s *PostgresStore) FindCategoryByName(ctx context.Context, name string) (Category, error) {
	var categoryID string
	err := s.db.QueryRowContext(ctx, `
		SELECT category_id FROM category_translations WHERE LOWER(name)=LOWER($1) LIMIT 1
	`, name).Scan(&categoryID)
	if err != nil {
		return Category{}, err
	}
	return s.GetCategory(ctx, categoryID)
}

func (s *PostgresStore) InsertCategory(ctx context.Context, cat Category) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert category: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO categories (id, sort_order) VALUES ($1, $2)
	`, cat.ID, cat.SortOrder); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	for _, tr := range cat.Translations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO category_translations (category_id, language_code, name)
			VALUES ($1, $2, $3)
		`, cat.ID, tr.LanguageCode, tr.Name); err != nil {
			return fmt.Errorf("insert category translation: %w", err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) UpsertCategoryTranslations(ctx context.Context, categoryID string, translations []CategoryTranslation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert category translations: %w", err)
	}
	defer tx.Rollback()

	for _, tr := range translations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO category_translations (category_id, language_code, name)
			VALUES ($1, $2, $3)
			ON CONFLICT (category_id, language_code) DO UPDATE SET name=EXCLUDED.name
		`, categoryID, tr.LanguageCode, tr.Name); err != nil {
			return fmt.Errorf("upsert category translation: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx, `UPDATE categories SET updated_at=NOW() WHERE id=$1`, categoryID); err != nil {
		return fmt.Errorf("touch category: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) TermCountByCategory(ctx context.Context, categoryID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM terms WHERE category_id=$1`, categoryID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count terms by category: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) DeleteCategory(ctx context.Context, categoryID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id=$1`, categoryID)
	if err != nil {
		return false, fmt.Errorf("delete category: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete category rows: %w", err)
	}
	return affected > 0, nil
}

// ---- labels ----

func (s *PostgresStore) ListLabels(ctx context.Context) ([]Label, error) {
	const query = `
		SELECT l.id, l.created_at, COALESCE(lt.language_code, ''), COALESCE(lt.name, '')
		FROM labels l
		LEFT JOIN label_translations lt ON lt.label_id = l.id
		ORDER BY l.id, lt.language_code
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list labels: %w", err)
	}
	defer rows.Close()

	var labels []Label
	index := map[string]int{}
	for rows.Next() {
		var label Label
		var langCode, name string
		if err := rows.Scan(&label.ID, &label.CreatedAt, &langCode, &name); err != nil {
			return nil, fmt.Errorf("scan label: %w", err)
		}
		pos, seen := index[label.ID]
		if !seen {
			pos = len(labels)
			index[label.ID] = pos
			labels = append(labels, label)
		}
		if langCode != "" {
			labels[pos].Translations = append(labels[pos].Translations, LabelTranslation{
				LabelID:      label.ID,
				LanguageCode: langCode,
				Name:         name,
			})
		}
	}
	return labels, rows.Err()
}

func (s *PostgresStore) GetLabel(ctx context.Context, labelID string) (Label, error) {
	var label Label
	err := s.db.QueryRowContext(ctx, `SELECT id, created_at FROM labels WHERE id=$1`, labelID).Scan(&label.ID, &label.CreatedAt)
	if err != nil {
		return Label{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT language_code, name FROM label_translations WHERE label_id=$1 ORDER BY language_code
	`, labelID)
	if err != nil {
		return Label{}, fmt.Errorf("list label translations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		tr := LabelTranslation{LabelID: labelID}
		if err := rows.Scan(&tr.LanguageCode, &tr.Name); err != nil {
			return Label{}, fmt.Errorf("scan label translation: %w", err)
		}
		label.Translations = append(label.Translations, tr)
	}
	return label, rows.Err()
}

func (s *PostgresStore) InsertLabel(ctx context.Context, label Label) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert label: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO labels (id) VALUES ($1)`, label.ID); err != nil {
		return fmt.Errorf("insert label: %w", err)
	}
	for _, tr := range label.Translations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO label_translations (label_id, language_code, name)
			VALUES ($1, $2, $3)
		`, label.ID, tr.LanguageCode, tr.Name); err != nil {
			return fmt.Errorf("insert label translation: %w", err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) UpsertLabelTranslations(ctx context.Context, labelID string, translations []LabelTranslation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert label translations: %w", err)
	}
	defer tx.Rollback()

	for _, tr := range translations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO label_translations (label_id, language_code, name)
			VALUES ($1, $2, $3)
			ON CONFLICT (label_id, language_code) DO UPDATE SET name=EXCLUDED.name
		`, labelID, tr.LanguageCode, tr.Name); err != nil {
			return fmt.Errorf("upsert label translation: %w", err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) DeleteLabel(ctx context.Context, labelID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM labels WHERE id=$1`, labelID)
	if err != nil {
		return false, fmt.Errorf("delete label: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete label rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) SetTermLabels(ctx context.Context, termID string, labelIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin set term labels: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM term_labels WHERE term_id=$1`, termID); err != nil {
		return fmt.Errorf("clear term labels: %w", err)
	}
	for _, labelID := range labelIDs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO term_labels (term_id, label_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, termID, labelID); err != nil {
			return fmt.Errorf("insert term label: %w", err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) ListTermLabels(ctx context.Context, termID string) ([]Label, error) {
	const query = `
		SELECT l.id, l.created_at, COALESCE(lt.language_code, ''), COALESCE(lt.name, '')
		FROM term_labels tl
		JOIN labels l ON l.id = tl.label_id
		LEFT JOIN label_translations lt ON lt.label_id = l.id
		WHERE tl.term_id = $1
		ORDER BY l.id, lt.language_code
	`
	rows, err := s.db.QueryContext(ctx, query, termID)
	if err != nil {
		return nil, fmt.Errorf("list term labels: %w", err)
	}
	defer rows.Close()

	var labels []Label
	index := map[string]int{}
	for rows.Next() {
		var label Label
		var langCode, name string
		if err := rows.Scan(&label.ID, &label.CreatedAt, &langCode, &name); err != nil {
			return nil, fmt.Errorf("scan term label: %w", err)
		}
		pos, seen := index[label.ID]
		if !seen {
			pos = len(labels)
			index[label.ID] = pos
			labels = append(labels, label)
		}
		if langCode != "" {
			labels[pos].Translations = append(labels[pos].Translations, LabelTranslation{
				LabelID:      label.ID,
				LanguageCode: langCode,
				Name:         name,
			})
		}
	}
	return labels, rows.Err()
}

// ---- terms ----

func (s *PostgresStore) GetTerm(ctx context.Context, termID string) (Term, error) {
	var term Term
	err := s.db.QueryRowContext(ctx, `
		SELECT id, identifier, category_id, active_version_id, created_at, updated_at
		FROM terms WHERE id=$1
	`, termID).Scan(&term.ID, &term.Identifier, &term.CategoryID, &term.ActiveVersionID, &term.CreatedAt, &term.UpdatedAt)
	if err != nil {
		return Term{}, err
	}
	return term, nil
}

func (s *PostgresStore) GetTermByIdentifier(ctx context.Context, identifier string) (Term, error) {
	var term Term
	err := s.db.QueryRowContext(ctx, `
		SELECT id, identifier, category_id, active_version_id, created_at, updated_at
		FROM terms WHERE identifier=$1
	`, identifier).Scan(&term.ID, &term.Identifier, &term.CategoryID, &term.ActiveVersionID, &term.CreatedAt, &term.UpdatedAt)
	if err != nil {
		return Term{}, err
	}
	return term, nil
}

func (s *PostgresStore) ListTerms(ctx context.Context) ([]Term, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, identifier, category_id, active_version_id, created_at, updated_at
		FROM terms ORDER BY identifier
	`)
	if err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	defer rows.Close()

	var terms []Term
	for rows.Next() {
		var term Term
		if err := rows.Scan(&term.ID, &term.Identifier, &term.CategoryID, &term.ActiveVersionID, &term.CreatedAt, &term.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan term: %w", err)
		}
		terms = append(terms, term)
	}
	return terms, rows.Err()
}

func (s *PostgresStore) InsertTerm(ctx context.Context, term Term) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO terms (id, identifier, category_id) VALUES ($1, $2, $3)
	`, term.ID, term.Identifier, term.CategoryID)
	if err != nil {
		return fmt.Errorf("insert term: %w", err)
	}
	return nil
}

// CreateTermWithDraft creates a term together with its first draft
// version in one transaction, so a term is never observable without a
// version to edit.
func (s *PostgresStore) CreateTermWithDraft(ctx context.Context, term Term, versionID, createdBy string) (TermVersion, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TermVersion{}, fmt.Errorf("begin create term: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO terms (id, identifier, category_id) VALUES ($1, $2, $3)
	`, term.ID, term.Identifier, term.CategoryID); err != nil {
		return TermVersion{}, fmt.Errorf("insert term: %w", err)
	}

	var version TermVersion
	err = tx.QueryRowContext(ctx, `
		INSERT INTO term_versions (id, term_id, version_number, status, ready_to_publish, created_by)
		VALUES ($1, $2, 1, 'DRAFT', FALSE, $3)
		RETURNING id, term_id, version_number, status, ready_to_publish, created_by, created_at, published_at, archived_at
	`, versionID, term.ID, createdBy).Scan(
		&version.ID, &version.TermID, &version.VersionNumber, &version.Status,
		&version.ReadyToPublish, &version.CreatedBy, &version.CreatedAt,
		&version.PublishedAt, &version.ArchivedAt,
	)
	if err != nil {
		return TermVersion{}, fmt.Errorf("insert initial draft: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return TermVersion{}, fmt.Errorf("commit create term: %w", err)
	}
	return version, nil
}

func (s *PostgresStore) UpdateTermCategory(ctx context.Context, termID string, categoryID *string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE terms SET category_id=$2, updated_at=NOW() WHERE id=$1
	`, termID, categoryID)
	if err != nil {
		return false, fmt.Errorf("update term category: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update term category rows: %w", err)
	}
	return affected > 0, nil
}

// ListPublishedTermRows returns one row per (term, language) of every
// active version, optionally filtered by category or label. Terms with
// no active version never appear.
func (s *PostgresStore) ListPublishedTermRows(ctx context.Context, categoryID, labelID string) ([]PublishedTermRow, error) {
	query := `
		SELECT t.id, t.identifier, t.category_id, tv.id, tt.language_code, tt.name, tt.description
		FROM terms t
		JOIN term_versions tv ON tv.id = t.active_version_id
		JOIN term_translations tt ON tt.version_id = tv.id
		WHERE t.active_version_id IS NOT NULL
	`
	args := []any{}
	if categoryID != "" {
		args = append(args, categoryID)
		query += fmt.Sprintf(" AND t.category_id = $%d", len(args))
	}
	if labelID != "" {
		args = append(args, labelID)
		query += fmt.Sprintf(" AND EXISTS (SELECT 1 FROM term_labels tl WHERE tl.term_id = t.id AND tl.label_id = $%d)", len(args))
	}
	query += " ORDER BY t.identifier, tt.language_code"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list published terms: %w", err)
	}
	defer rows.Close()

	var result []PublishedTermRow
	for rows.Next() {
		var row PublishedTermRow
		if err := rows.Scan(&row.TermID, &row.Identifier, &row.CategoryID, &row.VersionID, &row.LanguageCode, &row.Name, &row.Description); err != nil {
			return nil, fmt.Errorf("scan published term: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// ---- term versions ----

func (s *PostgresStore) GetTermVersion(ctx context.Context, versionID string) (TermVersion, error) {
	var version TermVersion
	err := s.db.QueryRowContext(ctx, `
		SELECT id, term_id, version_number, status, ready_to_publish, created_by, created_at, published_at, archived_at
		FROM term_versions WHERE id=$1
	`, versionID).Scan(
		&version.ID, &version.TermID, &version.VersionNumber, &version.Status,
		&version.ReadyToPublish, &version.CreatedBy, &version.CreatedAt,
		&version.PublishedAt, &version.ArchivedAt,
	)
	if err != nil {
		return TermVersion{}, err
	}
	return version, nil
}

func (s *PostgresStore) ListTermVersions(ctx context.Context, termID string) ([]TermVersion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, term_id, version_number, status, ready_to_publish, created_by, created_at, published_at, archived_at
		FROM term_versions WHERE term_id=$1 ORDER BY version_number DESC
	`, termID)
	if err != nil {
		return nil, fmt.Errorf("list term versions: %w", err)
	}
	defer rows.Close()

	var versions []TermVersion
	for rows.Next() {
		var version TermVersion
		if err := rows.Scan(
			&version.ID, &version.TermID, &version.VersionNumber, &version.Status,
			&version.ReadyToPublish, &version.CreatedBy, &version.CreatedAt,
			&version.PublishedAt, &version.ArchivedAt,
		); err != nil {
			return nil, fmt.Errorf("scan term version: %w", err)
		}
		versions = append(versions, version)
	}
	return versions, rows.Err()
}

func (s *PostgresStore) ListVersionTranslations(ctx context.Context, versionID string) ([]TermTranslation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT version_id, language_code, name, description
		FROM term_translations WHERE version_id=$1 ORDER BY language_code
	`, versionID)
	if err != nil {
		return nil, fmt.Errorf("list version translations: %w", err)
	}
	defer rows.Close()

	var translations []TermTranslation
	for rows.Next() {
		var tr TermTranslation
		if err := rows.Scan(&tr.VersionID, &tr.LanguageCode, &tr.Name, &tr.Description); err != nil {
			return nil, fmt.Errorf("scan version translation: %w", err)
		}
		translations = append(translations, tr)
	}
	return translations, rows.Err()
}

func (s *PostgresStore) GetDraftVersion(ctx context.Context, termID string) (*TermVersion, error) {
	var version TermVersion
	err := s.db.QueryRowContext(ctx, `
		SELECT id, term_id, version_number, status, ready_to_publish, created_by, created_at, published_at, archived_at
		FROM term_versions WHERE term_id=$1 AND status='DRAFT'
	`, termID).Scan(
		&version.ID, &version.TermID, &version.VersionNumber, &version.Status,
		&version.ReadyToPublish, &version.CreatedBy, &version.CreatedAt,
		&version.PublishedAt, &version.ArchivedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get draft version: %w", err)
	}
	return &version, nil
}

// CreateDraftFrom copies the source version's translations into a new
// draft with the next version number. Fails with ErrDraftExists when the
// term already has an open draft; the partial unique index backs this up
// against concurrent forks.
func (s *PostgresStore) CreateDraftFrom(ctx context.Context, sourceVersionID, newVersionID, createdBy string) (TermVersion, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return TermVersion{}, fmt.Errorf("begin create draft: %w", err)
	}
	defer tx.Rollback()

	var termID string
	err = tx.QueryRowContext(ctx, `SELECT term_id FROM term_versions WHERE id=$1`, sourceVersionID).Scan(&termID)
	if err != nil {
		return TermVersion{}, err
	}

	// Lock the term row so concurrent forks and publishes serialize.
	if _, err := tx.ExecContext(ctx, `SELECT 1 FROM terms WHERE id=$1 FOR UPDATE`, termID); err != nil {
		return TermVersion{}, fmt.Errorf("lock term: %w", err)
	}

	var open int
	if err := tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM term_versions WHERE term_id=$1 AND status='DRAFT'
	`, termID).Scan(&open); err != nil {
		return TermVersion{}, fmt.Errorf("count open drafts: %w", err)
	}
	if open > 0 {
		return TermVersion{}, ErrDraftExists
	}

	var version TermVersion
	err = tx.QueryRowContext(ctx, `
		INSERT INTO term_versions (id, term_id, version_number, status, ready_to_publish, created_by)
		SELECT $1, term_id, (SELECT COALESCE(MAX(version_number), 0) + 1 FROM term_versions WHERE term_id=$3), 'DRAFT', FALSE, $2
		FROM term_versions WHERE id=$4
		RETURNING id, term_id, version_number, status, ready_to_publish, created_by, created_at, published_at, archived_at
	`, newVersionID, createdBy, termID, sourceVersionID).Scan(
		&version.ID, &version.TermID, &version.VersionNumber, &version.Status,
		&version.ReadyToPublish, &version.CreatedBy, &version.CreatedAt,
		&version.PublishedAt, &version.ArchivedAt,
	)
	if err != nil {
		return TermVersion{}, fmt.Errorf("insert draft version: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO term_translations (version_id, language_code, name, description)
		SELECT $1, language_code, name, description FROM term_translations WHERE version_id=$2
	`, newVersionID, sourceVersionID); err != nil {
		return TermVersion{}, fmt.Errorf("copy translations: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return TermVersion{}, fmt.Errorf("commit create draft: %w", err)
	}
	return version, nil
}

// UpsertDraftTranslations writes translation rows for a draft version.
// Fails with ErrNotDraft for any other status so a published version can
// never be mutated in place.
func (s *PostgresStore) UpsertDraftTranslations(ctx context.Context, versionID string, translations []TermTranslation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save draft: %w", err)
	}
	defer tx.Rollback()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM term_versions WHERE id=$1 FOR UPDATE`, versionID).Scan(&status)
	if err != nil {
		return err
	}
	if status != "DRAFT" {
		return ErrNotDraft
	}

	for _, tr := range translations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO term_translations (version_id, language_code, name, description)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (version_id, language_code) DO UPDATE SET name=EXCLUDED.name, description=EXCLUDED.description
		`, versionID, tr.LanguageCode, tr.Name, tr.Description); err != nil {
			return fmt.Errorf("upsert translation: %w", err)
		}
	}
	return tx.Commit()
}

func (s *PostgresStore) SetReadyToPublish(ctx context.Context, versionID string, ready bool) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE term_versions SET ready_to_publish=$2 WHERE id=$1 AND status='DRAFT'
	`, versionID, ready)
	if err != nil {
		return false, fmt.Errorf("set ready to publish: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("set ready to publish rows: %w", err)
	}
	return affected > 0, nil
}

// PublishVersion performs the publish as one transaction: the draft
// becomes PUBLISHED, the prior active version (if any) becomes ARCHIVED,
// and the term's active pointer moves. Concurrent publishes on the same
// term serialize on the term row lock; the loser observes a non-DRAFT
// status and gets ErrNotDraft. With requireReady the ready flag is
// re-checked under the same lock, so a reviewer flipping it off between
// the caller's read and the commit fails the publish with ErrNotReady.
func (s *PostgresStore) PublishVersion(ctx context.Context, versionID string, requireReady bool, now time.Time) (PublishOutcome, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PublishOutcome{}, fmt.Errorf("begin publish: %w", err)
	}
	defer tx.Rollback()

	var termID string
	err = tx.QueryRowContext(ctx, `SELECT term_id FROM term_versions WHERE id=$1`, versionID).Scan(&termID)
	if err != nil {
		return PublishOutcome{}, err
	}

	var term Term
	err = tx.QueryRowContext(ctx, `
		SELECT id, identifier, category_id, active_version_id, created_at, updated_at
		FROM terms WHERE id=$1 FOR UPDATE
	`, termID).Scan(&term.ID, &term.Identifier, &term.CategoryID, &term.ActiveVersionID, &term.CreatedAt, &term.UpdatedAt)
	if err != nil {
		return PublishOutcome{}, fmt.Errorf("lock term: %w", err)
	}

	var status string
	var ready bool
	err = tx.QueryRowContext(ctx, `SELECT status, ready_to_publish FROM term_versions WHERE id=$1 FOR UPDATE`, versionID).Scan(&status, &ready)
	if err != nil {
		return PublishOutcome{}, err
	}
	if status != "DRAFT" {
		return PublishOutcome{}, ErrNotDraft
	}
	if requireReady && !ready {
		return PublishOutcome{}, ErrNotReady
	}

	outcome := PublishOutcome{Term: term}
	if term.ActiveVersionID != nil && *term.ActiveVersionID != versionID {
		if _, err := tx.ExecContext(ctx, `
			UPDATE term_versions SET status='ARCHIVED', archived_at=$2 WHERE id=$1
		`, *term.ActiveVersionID, now); err != nil {
			return PublishOutcome{}, fmt.Errorf("archive prior version: %w", err)
		}
		outcome.ArchivedVersionID = term.ActiveVersionID
	}

	err = tx.QueryRowContext(ctx, `
		UPDATE term_versions SET status='PUBLISHED', published_at=$2, ready_to_publish=FALSE
		WHERE id=$1
		RETURNING id, term_id, version_number, status, ready_to_publish, created_by, created_at, published_at, archived_at
	`, versionID, now).Scan(
		&outcome.Version.ID, &outcome.Version.TermID, &outcome.Version.VersionNumber, &outcome.Version.Status,
		&outcome.Version.ReadyToPublish, &outcome.Version.CreatedBy, &outcome.Version.CreatedAt,
		&outcome.Version.PublishedAt, &outcome.Version.ArchivedAt,
	)
	if err != nil {
		return PublishOutcome{}, fmt.Errorf("publish version: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE terms SET active_version_id=$2, updated_at=NOW() WHERE id=$1
	`, termID, versionID); err != nil {
		return PublishOutcome{}, fmt.Errorf("repoint active version: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return PublishOutcome{}, fmt.Errorf("commit publish: %w", err)
	}
	outcome.Term.ActiveVersionID = &outcome.Version.ID
	return outcome, nil
}

// CreateImportedTerm creates a term with its first version already
// published, in one transaction. Used by bulk imports, which skip the
// draft stage.
func (s *PostgresStore) CreateImportedTerm(ctx context.Context, term Term, version TermVersion, translations []TermTranslation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import term: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO terms (id, identifier, category_id) VALUES ($1, $2, $3)
	`, term.ID, term.Identifier, term.CategoryID); err != nil {
		return fmt.Errorf("insert imported term: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO term_versions (id, term_id, version_number, status, ready_to_publish, created_by, published_at)
		VALUES ($1, $2, 1, 'PUBLISHED', FALSE, $3, NOW())
	`, version.ID, term.ID, version.CreatedBy); err != nil {
		return fmt.Errorf("insert imported version: %w", err)
	}

	for _, tr := range translations {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO term_translations (version_id, language_code, name, description)
			VALUES ($1, $2, $3, $4)
		`, version.ID, tr.LanguageCode, tr.Name, tr.Description); err != nil {
			return fmt.Errorf("insert imported translation: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE terms SET active_version_id=$2 WHERE id=$1
	`, term.ID, version.ID); err != nil {
		return fmt.Errorf("point imported term: %w", err)
	}
	return tx.Commit()
}

// ---- favorites ----

func (s *PostgresStore) AddFavorite(ctx context.Context, favorite Favorite) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO favorites (id, user_id, term_id) VALUES ($1, $2, $3)
		ON CONFLICT (user_id, term_id) DO NOTHING
	`, favorite.ID, favorite.UserID, favorite.TermID)
	if err != nil {
		return fmt.Errorf("add favorite: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveFavorite(ctx context.Context, userID, termID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM favorites WHERE user_id=$1 AND term_id=$2
	`, userID, termID)
	if err != nil {
		return false, fmt.Errorf("remove favorite: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("remove favorite rows: %w", err)
	}
	return affected > 0, nil
}

func (s *PostgresStore) ListFavorites(ctx context.Context, userID string) ([]Favorite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, term_id, created_at FROM favorites WHERE user_id=$1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	defer rows.Close()

	var favorites []Favorite
	for rows.Next() {
		var favorite Favorite
		if err := rows.Scan(&favorite.ID, &favorite.UserID, &favorite.TermID, &favorite.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		favorites = append(favorites, favorite)
	}
	return favorites, rows.Err()
}

// ---- comments ----

func (s *PostgresStore) InsertComment(ctx context.Context, comment Comment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, term_id, user_id, author_name, body)
		VALUES ($1, $2, $3, $4, $5)
	`, comment.ID, comment.TermID, comment.UserID, comment.AuthorName, comment.Body)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListComments(ctx context.Context, termID string) ([]Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, term_id, user_id, author_name, body, created_at
		FROM comments WHERE term_id=$1 ORDER BY created_at
	`, termID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var comment Comment
		if err := rows.Scan(&comment.ID, &comment.TermID, &comment.UserID, &comment.AuthorName, &comment.Body, &comment.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, comment)
	}
	return comments, rows.Err()
}

func (s *PostgresStore) GetComment(ctx context.Context, commentID string) (Comment, error) {
	var comment Comment
	err := s.db.QueryRowContext(ctx, `
		SELECT id, term_id, user_id, author_name, body, created_at FROM comments WHERE id=$1
	`, commentID).Scan(&comment.ID, &comment.TermID, &comment.UserID, &comment.AuthorName, &comment.Body, &comment.CreatedAt)
	if err != nil {
		return Comment{}, err
	}
	return comment, nil
}

func (s *PostgresStore) DeleteComment(ctx context.Context, commentID string) (bool, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id=$1`, commentID)
	if err != nil {
		return false, fmt.Errorf("delete comment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete comment rows: %w", err)
	}
	return affected > 0, nil
}

// ---- import runs ----

func (s *PostgresStore) InsertImportRun(ctx context.Context, run ImportRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO import_runs (id, object_key, status, started_by)
		VALUES ($1, $2, $3, $4)
	`, run.ID, run.ObjectKey, run.Status, run.StartedBy)
	if err != nil {
		return fmt.Errorf("insert import run: %w", err)
	}
	return nil
}

func (s *PostgresStore) FinishImportRun(ctx context.Context, runID, status string, created, skipped int, runError string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE import_runs
		SET status=$2, terms_created=$3, terms_skipped=$4, error=$5, finished_at=NOW()
		WHERE id=$1
	`, runID, status, created, skipped, runError)
	if err != nil {
		return fmt.Errorf("finish import run: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetImportRun(ctx context.Context, runID string) (ImportRun, error) {
	var run ImportRun
	err := s.db.QueryRowContext(ctx, `
		SELECT id, object_key, status, terms_created, terms_skipped, error, started_by, started_at, finished_at
		FROM import_runs WHERE id=$1
	`, runID).Scan(&run.ID, &run.ObjectKey, &run.Status, &run.TermsCreated, &run.TermsSkipped, &run.Error, &run.StartedBy, &run.StartedAt, &run.FinishedAt)
	if err != nil {
		return ImportRun{}, err
	}
	return run, nil
}

func (s *PostgresStore) ListImportRuns(ctx context.Context, limit int) ([]ImportRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, object_key, status, terms_created, terms_skipped, error, started_by, started_at, finished_at
		FROM import_runs ORDER BY started_at DESC LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list import runs: %w", err)
	}
	defer rows.Close()

	var runs []ImportRun
	for rows.Next() {
		var run ImportRun
		if err := rows.Scan(&run.ID, &run.ObjectKey, &run.Status, &run.TermsCreated, &run.TermsSkipped, &run.Error, &run.StartedBy, &run.StartedAt, &run.FinishedAt); err != nil {
			return nil, fmt.Errorf("scan import run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
