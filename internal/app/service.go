package app

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"dentalex/api/internal/auth"
	"dentalex/api/internal/authpw"
	"dentalex/api/internal/config"
	"dentalex/api/internal/gitrepo"
	"dentalex/api/internal/importer"
	"dentalex/api/internal/l10n"
	"dentalex/api/internal/rbac"
	"dentalex/api/internal/search"
	"dentalex/api/internal/store"
	"dentalex/api/internal/util"
	"dentalex/api/internal/workflow"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Role         string
	Locale       string
	JTI          string
	ExpiresAt    time.Time
}

type TranslationInput struct {
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name"`
	Description  string `json:"description"`
}

type CategoryInput struct {
	SortOrder    int                `json:"sortOrder"`
	Translations []TranslationInput `json:"translations"`
}

type LabelInput struct {
	Translations []TranslationInput `json:"translations"`
}

type CreateTermInput struct {
	Identifier string `json:"identifier"`
	CategoryID string `json:"categoryId"`
}

type SaveDraftInput struct {
	Translations []TranslationInput `json:"translations"`
}

type PublishInput struct {
	Force bool `json:"force"`
}

type CommentInput struct {
	Body string `json:"body"`
}

var identifierPattern = regexp.MustCompile(`^[a-z0-9]+(?:[-_][a-z0-9]+)*$`)
var languageCodePattern = regexp.MustCompile(`^[a-z]{2,3}(?:-[A-Za-z]{2,4})?$`)

type dataStore interface {
	GetUserByID(context.Context, string) (store.User, error)
	UpdateUserLocale(context.Context, string, string) error
	ListAdminEmails(context.Context) ([]string, error)
	ListLanguages(context.Context, bool) ([]store.Language, error)
	GetLanguage(context.Context, string) (store.Language, error)
	InsertLanguage(context.Context, store.Language) error
	UpdateLanguage(context.Context, string, string, bool) (bool, error)
	SetDefaultLanguage(context.Context, string) error
	ListCategories(context.Context) ([]store.Category, error)
	GetCategory(context.Context, string) (store.Category, error)
	InsertCategory(context.Context, store.Category) error
	UpsertCategoryTranslations(context.Context, string, []store.CategoryTranslation) error
	TermCountByCategory(context.Context, string) (int, error)
	DeleteCategory(context.Context, string) (bool, error)
	ListLabels(context.Context) ([]store.Label, error)
	GetLabel(context.Context, string) (store.Label, error)
	InsertLabel(context.Context, store.Label) error
	UpsertLabelTranslations(context.Context, string, []store.LabelTranslation) error
	DeleteLabel(context.Context, string) (bool, error)
	SetTermLabels(context.Context, string, []string) error
	ListTermLabels(context.Context, string) ([]store.Label, error)
	GetTerm(context.Context, string) (store.Term, error)
	GetTermByIdentifier(context.Context, string) (store.Term, error)
	ListTerms(context.Context) ([]store.Term, error)
	CreateTermWithDraft(context.Context, store.Term, string, string) (store.TermVersion, error)
	UpdateTermCategory(context.Context, string, *string) (bool, error)
	ListPublishedTermRows(context.Context, string, string) ([]store.PublishedTermRow, error)
	GetTermVersion(context.Context, string) (store.TermVersion, error)
	ListTermVersions(context.Context, string) ([]store.TermVersion, error)
	ListVersionTranslations(context.Context, string) ([]store.TermTranslation, error)
	GetDraftVersion(context.Context, string) (*store.TermVersion, error)
	CreateDraftFrom(context.Context, string, string, string) (store.TermVersion, error)
	UpsertDraftTranslations(context.Context, string, []store.TermTranslation) error
	SetReadyToPublish(context.Context, string, bool) (bool, error)
	PublishVersion(context.Context, string, bool, time.Time) (store.PublishOutcome, error)
	AddFavorite(context.Context, store.Favorite) error
	RemoveFavorite(context.Context, string, string) (bool, error)
	ListFavorites(context.Context, string) ([]store.Favorite, error)
	InsertComment(context.Context, store.Comment) error
	ListComments(context.Context, string) ([]store.Comment, error)
	GetComment(context.Context, string) (store.Comment, error)
	DeleteComment(context.Context, string) (bool, error)
	GetImportRun(context.Context, string) (store.ImportRun, error)
	ListImportRuns(context.Context, int) ([]store.ImportRun, error)
	Ping(ctx context.Context) error
}

type sessionStore interface {
	SaveRefreshSession(context.Context, string, store.User, time.Time) error
	LookupRefreshSession(context.Context, string) (store.User, error)
	RevokeRefreshSession(context.Context, string) error
}

type archiveService interface {
	CommitPublish(snap gitrepo.Snapshot, author string) (gitrepo.CommitInfo, error)
	History(limit int) ([]gitrepo.CommitInfo, error)
}

type searchService interface {
	Search(q search.Query) search.Response
	IndexTerms(records []search.TermRecord)
	DeleteTermRecord(id string)
}

type mailer interface {
	IsConfigured() bool
	SendDraftReadyEmail(to []string, termIdentifier, editorName string, versionNumber int) error
}

type importRunner interface {
	Run(ctx context.Context, objectKey, startedBy string) (*importer.Report, error)
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions sessionStore
	archive  archiveService
	search   searchService
	email    mailer
	importer importRunner
	authPw   *authpw.Service
}

type Deps struct {
	Store    dataStore
	Sessions sessionStore
	Archive  archiveService
	Search   searchService
	Email    mailer
	Importer importRunner
	AuthPw   *authpw.Service
}

func New(cfg config.Config, deps Deps) *Service {
	return &Service{
		cfg:      cfg,
		store:    deps.Store,
		sessions: deps.Sessions,
		archive:  deps.Archive,
		search:   deps.Search,
		email:    deps.Email,
		importer: deps.Importer,
		authPw:   deps.AuthPw,
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) AuthPasswordService() *authpw.Service {
	return s.authPw
}

func (s *Service) SMTPConfigured() bool {
	return s.email != nil && s.email.IsConfigured()
}

// Bootstrap seeds a small starter glossary on an empty database so the
// workflow has something to exercise on first run.
func (s *Service) Bootstrap(ctx context.Context) error {
	terms, err := s.store.ListTerms(ctx)
	if err != nil {
		return err
	}
	if len(terms) > 0 {
		return nil
	}

	anatomy := store.Category{
		ID:        util.NewID("cat"),
		SortOrder: 1,
		Translations: []store.CategoryTranslation{
			{LanguageCode: "en", Name: "Anatomy"},
			{LanguageCode: "lv", Name: "Anatomija"},
		},
	}
	if err := s.store.InsertCategory(ctx, anatomy); err != nil {
		return err
	}

	seeds := []struct {
		Identifier   string
		Translations []TranslationInput
	}{
		{
			Identifier: "molar",
			Translations: []TranslationInput{
				{LanguageCode: "en", Name: "Molar", Description: "A large grinding tooth at the back of the jaw."},
				{LanguageCode: "lv", Name: "Dzeroklis", Description: "Liels koszobs zokla aizmugure."},
			},
		},
		{
			Identifier: "incisor",
			Translations: []TranslationInput{
				{LanguageCode: "en", Name: "Incisor", Description: "A narrow-edged front tooth adapted for cutting."},
			},
		},
	}

	for _, seed := range seeds {
		term := store.Term{
			ID:         util.NewID("term"),
			Identifier: seed.Identifier,
			CategoryID: &anatomy.ID,
		}
		version, err := s.store.CreateTermWithDraft(ctx, term, util.NewID("ver"), "system")
		if err != nil {
			return err
		}

		translations := make([]store.TermTranslation, 0, len(seed.Translations))
		for _, tr := range seed.Translations {
			translations = append(translations, store.TermTranslation{
				VersionID:    version.ID,
				LanguageCode: tr.LanguageCode,
				Name:         tr.Name,
				Description:  tr.Description,
			})
		}
		if err := s.store.UpsertDraftTranslations(ctx, version.ID, translations); err != nil {
			return err
		}
		if _, err := s.store.SetReadyToPublish(ctx, version.ID, true); err != nil {
			return err
		}
		outcome, err := s.store.PublishVersion(ctx, version.ID, true, time.Now())
		if err != nil {
			return err
		}
		s.archiveAndIndex(ctx, outcome, translations, "system")
	}
	return nil
}

// ---- sessions ----

func (s *Service) CreateSession(ctx context.Context, userID string) (Session, error) {
	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	locale := user.PreferredLocale
	if locale == "" {
		locale = s.cfg.DefaultLocale
	}

	token, err := auth.IssueToken([]byte(s.cfg.TokenSecret), auth.Claims{
		Sub:    user.ID,
		Name:   user.DisplayName,
		Role:   string(rbac.Normalize(user.Role)),
		Locale: locale,
		JTI:    jti,
		Exp:    expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		Role:         string(rbac.Normalize(user.Role)),
		Locale:       locale,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

// SessionFromToken validates an access token. The claims are trusted for
// their lifetime; role changes take effect on the next refresh.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		UserID:    claims.Sub,
		UserName:  claims.Name,
		Role:      string(rbac.Normalize(claims.Role)),
		Locale:    claims.Locale,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
}

func (s *Service) Can(role string, action rbac.Action) bool {
	return rbac.Can(rbac.Normalize(role), action)
}

func (s *Service) UpdateMyLocale(ctx context.Context, userID, locale string) error {
	lang, err := s.store.GetLanguage(ctx, locale)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domainError(http.StatusUnprocessableEntity, "VALIDATION_FAILED", "unknown language", map[string]any{locale: []string{"language does not exist"}})
		}
		return err
	}
	if !lang.IsEnabled {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_FAILED", "language is disabled", map[string]any{locale: []string{"language is disabled"}})
	}
	return s.store.UpdateUserLocale(ctx, userID, locale)
}

// ---- languages ----

func (s *Service) ListLanguages(ctx context.Context, enabledOnly bool) ([]map[string]any, error) {
	languages, err := s.store.ListLanguages(ctx, enabledOnly)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(languages))
	for _, lang := range languages {
		items = append(items, map[string]any{
			"code":      lang.Code,
			"name":      lang.Name,
			"isDefault": lang.IsDefault,
			"isEnabled": lang.IsEnabled,
		})
	}
	return items, nil
}

func (s *Service) CreateLanguage(ctx context.Context, code, name string) (map[string]any, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if !languageCodePattern.MatchString(code) {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_FAILED", "invalid language code", map[string]any{code: []string{"code must look like en, lv or en-GB"}})
	}
	if name == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_FAILED", "name is required", map[string]any{code: []string{"name is required"}})
	}
	if _, err := s.store.GetLanguage(ctx, code); err == nil {
		return nil, domainError(http.StatusConflict, "EDITORIAL_CONFLICT", "language already exists", nil)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	lang := store.Language{Code: code, Name: name, IsEnabled: true}
	if err := s.store.InsertLanguage(ctx, lang); err != nil {
		return nil, err
	}
	return map[string]any{"code": code, "name": name, "isDefault": false, "isEnabled": true}, nil
}

func (s *Service) UpdateLanguage(ctx context.Context, code, name string, isEnabled bool) error {
	lang, err := s.store.GetLanguage(ctx, code)
	if err != nil {
		return err
	}
	if lang.IsDefault && !isEnabled {
		return domainError(http.StatusConflict, "ILLEGAL_TRANSITION", "the default language cannot be disabled", nil)
	}
	if strings.TrimSpace(name) == "" {
		name = lang.Name
	}
	updated, err := s.store.UpdateLanguage(ctx, code, strings.TrimSpace(name), isEnabled)
	if err != nil {
		return err
	}
	if !updated {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Service) SetDefaultLanguage(ctx context.Context, code string) error {
	lang, err := s.store.GetLanguage(ctx, code)
	if err != nil {
		return err
	}
	if !lang.IsEnabled {
		return domainError(http.StatusConflict, "ILLEGAL_TRANSITION", "a disabled language cannot become the default", nil)
	}
	return s.store.SetDefaultLanguage(ctx, code)
}

// ---- categories and labels ----

func (s *Service) ListCategories(ctx context.Context, locale string) ([]map[string]any, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(categories))
	for _, cat := range categories {
		count, err := s.store.TermCountByCategory(ctx, cat.ID)
		if err != nil {
			return nil, err
		}
		items = append(items, map[string]any{
			"id":           cat.ID,
			"sortOrder":    cat.SortOrder,
			"name":         categoryName(cat.Translations, locale, s.cfg.DefaultLocale),
			"translations": categoryTranslationsPayload(cat.Translations),
			"termCount":    count,
		})
	}
	return items, nil
}

func (s *Service) CreateCategory(ctx context.Context, input CategoryInput) (map[string]any, error) {
	translations, err := s.namedTranslations(ctx, input.Translations)
	if err != nil {
		return nil, err
	}
	cat := store.Category{ID: util.NewID("cat"), SortOrder: input.SortOrder}
	for _, tr := range translations {
		cat.Translations = append(cat.Translations, store.CategoryTranslation{
			CategoryID:   cat.ID,
			LanguageCode: tr.LanguageCode,
			Name:         tr.Name,
		})
	}
	if err := s.store.InsertCategory(ctx, cat); err != nil {
		return nil, err
	}
	return map[string]any{
		"id":           cat.ID,
		"sortOrder":    cat.SortOrder,
		"translations": categoryTranslationsPayload(cat.Translations),
	}, nil
}

func (s *Service) UpdateCategoryTranslations(ctx context.Context, categoryID string, inputs []TranslationInput) error {
	if _, err := s.store.GetCategory(ctx, categoryID); err != nil {
		return err
	}
	translations, err := s.namedTranslations(ctx, inputs)
	if err != nil {
		return err
	}
	rows := make([]store.CategoryTranslation, 0, len(translations))
	for _, tr := range translations {
		rows = append(rows, store.CategoryTranslation{
			CategoryID:   categoryID,
			LanguageCode: tr.LanguageCode,
			Name:         tr.Name,
		})
	}
	return s.store.UpsertCategoryTranslations(ctx, categoryID, rows)
}

func (s *Service) DeleteCategory(ctx context.Context, categoryID string) error {
	count, err := s.store.TermCountByCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if count > 0 {
		return domainError(http.StatusConflict, "CATEGORY_IN_USE", "category still has terms assigned", map[string]any{"termCount": count})
	}
	deleted, err := s.store.DeleteCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if !deleted {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Service) ListLabels(ctx context.Context, locale string) ([]map[string]any, error) {
	labels, err := s.store.ListLabels(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(labels))
	for _, label := range labels {
		items = append(items, labelPayload(label, locale, s.cfg.DefaultLocale))
	}
	return items, nil
}

func (s *Service) CreateLabel(ctx context.Context, input LabelInput) (map[string]any, error) {
	translations, err := s.namedTranslations(ctx, input.Translations)
	if err != nil {
		return nil, err
	}
	label := store.Label{ID: util.NewID("lbl")}
	for _, tr := range translations {
		label.Translations = append(label.Translations, store.LabelTranslation{
			LabelID:      label.ID,
			LanguageCode: tr.LanguageCode,
			Name:         tr.Name,
		})
	}
	if err := s.store.InsertLabel(ctx, label); err != nil {
		return nil, err
	}
	return labelPayload(label, "", s.cfg.DefaultLocale), nil
}

func (s *Service) UpdateLabelTranslations(ctx context.Context, labelID string, inputs []TranslationInput) error {
	if _, err := s.store.GetLabel(ctx, labelID); err != nil {
		return err
	}
	translations, err := s.namedTranslations(ctx, inputs)
	if err != nil {
		return err
	}
	rows := make([]store.LabelTranslation, 0, len(translations))
	for _, tr := range translations {
		rows = append(rows, store.LabelTranslation{
			LabelID:      labelID,
			LanguageCode: tr.LanguageCode,
			Name:         tr.Name,
		})
	}
	return s.store.UpsertLabelTranslations(ctx, labelID, rows)
}

func (s *Service) DeleteLabel(ctx context.Context, labelID string) error {
	deleted, err := s.store.DeleteLabel(ctx, labelID)
	if err != nil {
		return err
	}
	if !deleted {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Service) SetTermLabels(ctx context.Context, termID string, labelIDs []string) error {
	if _, err := s.store.GetTerm(ctx, termID); err != nil {
		return err
	}
	for _, labelID := range labelIDs {
		if _, err := s.store.GetLabel(ctx, labelID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domainError(http.StatusUnprocessableEntity, "VALIDATION_FAILED", "unknown label", map[string]any{"labelId": labelID})
			}
			return err
		}
	}
	return s.store.SetTermLabels(ctx, termID, labelIDs)
}

// ---- terms ----

func (s *Service) ListTerms(ctx context.Context, locale string) ([]map[string]any, error) {
	terms, err := s.store.ListTerms(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(terms))
	for _, term := range terms {
		draft, err := s.store.GetDraftVersion(ctx, term.ID)
		if err != nil {
			return nil, err
		}
		item := map[string]any{
			"id":              term.ID,
			"identifier":      term.Identifier,
			"categoryId":      term.CategoryID,
			"activeVersionId": term.ActiveVersionID,
			"hasDraft":        draft != nil,
			"updatedAt":       term.UpdatedAt,
		}
		if draft != nil {
			item["draftVersionId"] = draft.ID
		}
		if term.ActiveVersionID != nil {
			resolved, err := s.resolveVersionName(ctx, *term.ActiveVersionID, locale)
			if err != nil {
				return nil, err
			}
			item["displayName"] = resolved.Name
			item["displayLanguage"] = resolved.LanguageCode
		} else {
			item["displayName"] = l10n.PlaceholderName
			item["displayLanguage"] = ""
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) CreateTerm(ctx context.Context, input CreateTermInput, userName string) (map[string]any, error) {
	identifier := strings.TrimSpace(strings.ToLower(input.Identifier))
	if !identifierPattern.MatchString(identifier) {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_FAILED", "identifier must be lowercase letters, digits, dashes or underscores", nil)
	}
	if _, err := s.store.GetTermByIdentifier(ctx, identifier); err == nil {
		return nil, domainError(http.StatusConflict, "EDITORIAL_CONFLICT", "a term with this identifier already exists", nil)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	var categoryID *string
	if trimmed := strings.TrimSpace(input.CategoryID); trimmed != "" {
		if _, err := s.store.GetCategory(ctx, trimmed); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_FAILED", "unknown category", map[string]any{"categoryId": trimmed})
			}
			return nil, err
		}
		categoryID = &trimmed
	}

	term := store.Term{
		ID:         util.NewID("term"),
		Identifier: identifier,
		CategoryID: categoryID,
	}
	version, err := s.store.CreateTermWithDraft(ctx, term, util.NewID("ver"), userName)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"id":             term.ID,
		"identifier":     term.Identifier,
		"categoryId":     term.CategoryID,
		"draftVersionId": version.ID,
		"versionNumber":  version.VersionNumber,
		"status":         version.Status,
	}, nil
}

func (s *Service) GetTermDetail(ctx context.Context, termID, locale string) (map[string]any, error) {
	term, err := s.store.GetTerm(ctx, termID)
	if err != nil {
		return nil, err
	}
	labels, err := s.store.ListTermLabels(ctx, termID)
	if err != nil {
		return nil, err
	}
	labelItems := make([]map[string]any, 0, len(labels))
	for _, label := range labels {
		labelItems = append(labelItems, labelPayload(label, locale, s.cfg.DefaultLocale))
	}

	item := map[string]any{
		"id":              term.ID,
		"identifier":      term.Identifier,
		"categoryId":      term.CategoryID,
		"activeVersionId": term.ActiveVersionID,
		"labels":          labelItems,
		"createdAt":       term.CreatedAt,
		"updatedAt":       term.UpdatedAt,
	}

	draft, err := s.store.GetDraftVersion(ctx, termID)
	if err != nil {
		return nil, err
	}
	if draft != nil {
		item["draftVersionId"] = draft.ID
	}

	if term.ActiveVersionID != nil {
		translations, err := s.store.ListVersionTranslations(ctx, *term.ActiveVersionID)
		if err != nil {
			return nil, err
		}
		resolved := l10n.Resolve(toL10n(translations), requestedLocale(locale, s.cfg.DefaultLocale))
		item["name"] = resolved.Name
		item["description"] = resolved.Description
		item["resolvedLanguage"] = resolved.LanguageCode
		item["translations"] = translationsPayload(translations)
	} else {
		item["name"] = l10n.PlaceholderName
		item["description"] = l10n.PlaceholderDescription
		item["resolvedLanguage"] = ""
		item["translations"] = []map[string]any{}
	}
	return item, nil
}

func (s *Service) UpdateTermCategory(ctx context.Context, termID, categoryID string) error {
	if _, err := s.store.GetTerm(ctx, termID); err != nil {
		return err
	}
	var target *string
	if trimmed := strings.TrimSpace(categoryID); trimmed != "" {
		if _, err := s.store.GetCategory(ctx, trimmed); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domainError(http.StatusUnprocessableEntity, "VALIDATION_FAILED", "unknown category", map[string]any{"categoryId": trimmed})
			}
			return err
		}
		target = &trimmed
	}
	updated, err := s.store.UpdateTermCategory(ctx, termID, target)
	if err != nil {
		return err
	}
	if !updated {
		return sql.ErrNoRows
	}
	return nil
}

// ---- editorial workflow ----

// GetVersionForEditing returns a version with its translations and the
// edit mode decided from the version status and the caller's mode hint.
func (s *Service) GetVersionForEditing(ctx context.Context, versionID, modeHint string) (map[string]any, error) {
	version, err := s.store.GetTermVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	status, err := workflow.ParseStatus(version.Status)
	if err != nil {
		return nil, err
	}
	translations, err := s.store.ListVersionTranslations(ctx, versionID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"version":      versionPayload(version),
		"translations": translationsPayload(translations),
		"editMode":     string(workflow.Decide(status, modeHint)),
	}, nil
}

// CreateDraftFrom forks a published or archived version into a new
// draft. A term can carry at most one open draft; a concurrent fork
// loses with an editorial conflict.
func (s *Service) CreateDraftFrom(ctx context.Context, sourceVersionID, userName string) (map[string]any, error) {
	source, err := s.store.GetTermVersion(ctx, sourceVersionID)
	if err != nil {
		return nil, err
	}
	if source.Status == string(workflow.StatusDraft) {
		return nil, domainError(http.StatusConflict, "ILLEGAL_TRANSITION", "the source version is an open draft; edit it directly", nil)
	}

	draft, err := s.store.CreateDraftFrom(ctx, sourceVersionID, util.NewID("ver"), userName)
	if err != nil {
		if errors.Is(err, store.ErrDraftExists) {
			details := map[string]any{"termId": source.TermID}
			if existing, lookupErr := s.store.GetDraftVersion(ctx, source.TermID); lookupErr == nil && existing != nil {
				details["draftVersionId"] = existing.ID
			}
			return nil, domainError(http.StatusConflict, "EDITORIAL_CONFLICT", "the term already has an open draft", details)
		}
		return nil, err
	}

	translations, err := s.store.ListVersionTranslations(ctx, draft.ID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"version":      versionPayload(draft),
		"translations": translationsPayload(translations),
		"editMode":     string(workflow.EditExisting),
	}, nil
}

// SaveDraft validates and writes the draft's translations. Validation
// failures are reported per language so the editor can fix each tab.
func (s *Service) SaveDraft(ctx context.Context, versionID string, input SaveDraftInput) (map[string]any, error) {
	version, err := s.store.GetTermVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if len(input.Translations) == 0 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_FAILED", "at least one translation is required", nil)
	}

	enabled, err := s.enabledLanguages(ctx)
	if err != nil {
		return nil, err
	}

	details := map[string]any{}
	translations := make([]store.TermTranslation, 0, len(input.Translations))
	seen := make(map[string]bool, len(input.Translations))
	for _, tr := range input.Translations {
		code := strings.TrimSpace(tr.LanguageCode)
		var problems []string
		if !enabled[code] {
			problems = append(problems, "language is not enabled")
		}
		if seen[code] {
			problems = append(problems, "language appears more than once")
		}
		seen[code] = true
		name := strings.TrimSpace(tr.Name)
		description := strings.TrimSpace(tr.Description)
		if name == "" {
			problems = append(problems, "name is required")
		}
		if len(name) > 200 {
			problems = append(problems, "name must be at most 200 characters")
		}
		if len(description) > 5000 {
			problems = append(problems, "description must be at most 5000 characters")
		}
		if len(problems) > 0 {
			details[code] = problems
			continue
		}
		translations = append(translations, store.TermTranslation{
			VersionID:    versionID,
			LanguageCode: code,
			Name:         name,
			Description:  description,
		})
	}
	if len(details) > 0 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_FAILED", "some translations are invalid", details)
	}

	if err := s.store.UpsertDraftTranslations(ctx, versionID, translations); err != nil {
		if errors.Is(err, store.ErrNotDraft) {
			return nil, domainError(http.StatusConflict, "ILLEGAL_TRANSITION", "only draft versions can be edited", nil)
		}
		return nil, err
	}

	saved, err := s.store.ListVersionTranslations(ctx, versionID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"version":      versionPayload(version),
		"translations": translationsPayload(saved),
	}, nil
}

// MarkReady flags a draft as ready to publish and notifies the admins.
func (s *Service) MarkReady(ctx context.Context, versionID string, ready bool, userName string) error {
	version, err := s.store.GetTermVersion(ctx, versionID)
	if err != nil {
		return err
	}
	updated, err := s.store.SetReadyToPublish(ctx, versionID, ready)
	if err != nil {
		return err
	}
	if !updated {
		return domainError(http.StatusConflict, "ILLEGAL_TRANSITION", "only draft versions can be marked ready", nil)
	}
	if !ready || !s.SMTPConfigured() {
		return nil
	}

	term, err := s.store.GetTerm(ctx, version.TermID)
	if err != nil {
		return err
	}
	emails, err := s.store.ListAdminEmails(ctx)
	if err != nil || len(emails) == 0 {
		if err != nil {
			log.Printf("mark ready: list admin emails: %v", err)
		}
		return nil
	}
	go func() {
		if err := s.email.SendDraftReadyEmail(emails, term.Identifier, userName, version.VersionNumber); err != nil {
			log.Printf("mark ready: notify admins for %s: %v", term.Identifier, err)
		}
	}()
	return nil
}

// Publish promotes a draft to the active published version. The prior
// active version is archived, the public pointer moves, the archive
// repository gets a commit and the search index is refreshed. Publish
// is the only operation that moves the active pointer.
func (s *Service) Publish(ctx context.Context, versionID string, input PublishInput, session Session) (map[string]any, error) {
	version, err := s.store.GetTermVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if version.Status != string(workflow.StatusDraft) {
		return nil, domainError(http.StatusConflict, "ILLEGAL_TRANSITION", "only draft versions can be published", nil)
	}
	if !version.ReadyToPublish {
		if !input.Force {
			return nil, domainError(http.StatusConflict, "ILLEGAL_TRANSITION", "the draft is not marked ready to publish", nil)
		}
		if !s.Can(session.Role, rbac.ActionAdmin) {
			return nil, domainError(http.StatusForbidden, "FORBIDDEN", "only admins can force publish", nil)
		}
	}

	translations, err := s.store.ListVersionTranslations(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if len(translations) == 0 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_FAILED", "a version without translations cannot be published", nil)
	}

	outcome, err := s.store.PublishVersion(ctx, versionID, !input.Force, time.Now())
	if err != nil {
		if errors.Is(err, store.ErrNotDraft) {
			return nil, domainError(http.StatusConflict, "ILLEGAL_TRANSITION", "the version was published or archived by someone else", nil)
		}
		if errors.Is(err, store.ErrNotReady) {
			return nil, domainError(http.StatusConflict, "ILLEGAL_TRANSITION", "the draft is not marked ready to publish", nil)
		}
		return nil, err
	}

	s.archiveAndIndex(ctx, outcome, translations, session.UserName)

	payload := map[string]any{
		"term": map[string]any{
			"id":              outcome.Term.ID,
			"identifier":      outcome.Term.Identifier,
			"activeVersionId": outcome.Term.ActiveVersionID,
		},
		"version": versionPayload(outcome.Version),
	}
	if outcome.ArchivedVersionID != nil {
		payload["archivedVersionId"] = *outcome.ArchivedVersionID
	}
	return payload, nil
}

// archiveAndIndex performs the post-publish side effects: the git
// archive commit and the search index refresh. Both are best-effort;
// the database state is already committed.
func (s *Service) archiveAndIndex(ctx context.Context, outcome store.PublishOutcome, translations []store.TermTranslation, author string) {
	if s.archive != nil {
		snap := gitrepo.Snapshot{
			Identifier:    outcome.Term.Identifier,
			VersionNumber: outcome.Version.VersionNumber,
		}
		for _, tr := range translations {
			snap.Translations = append(snap.Translations, gitrepo.SnapshotTranslation{
				LanguageCode: tr.LanguageCode,
				Name:         tr.Name,
				Description:  tr.Description,
			})
		}
		if _, err := s.archive.CommitPublish(snap, author); err != nil {
			log.Printf("publish %s: archive commit: %v", outcome.Term.Identifier, err)
		}
	}

	if s.search == nil {
		return
	}
	categoryID := ""
	if outcome.Term.CategoryID != nil {
		categoryID = *outcome.Term.CategoryID
	}
	records := make([]search.TermRecord, 0, len(translations))
	current := make(map[string]bool, len(translations))
	for _, tr := range translations {
		current[tr.LanguageCode] = true
		records = append(records, search.TermRecord{
			ID:           search.RecordID(outcome.Term.ID, tr.LanguageCode),
			TermID:       outcome.Term.ID,
			Identifier:   outcome.Term.Identifier,
			LanguageCode: tr.LanguageCode,
			Name:         tr.Name,
			Description:  tr.Description,
			CategoryID:   categoryID,
		})
	}
	s.search.IndexTerms(records)

	// Languages present in the superseded version but absent from the new
	// one would otherwise keep a stale document alive.
	if outcome.ArchivedVersionID != nil {
		old, err := s.store.ListVersionTranslations(ctx, *outcome.ArchivedVersionID)
		if err != nil {
			log.Printf("publish %s: load archived translations: %v", outcome.Term.Identifier, err)
			return
		}
		for _, tr := range old {
			if !current[tr.LanguageCode] {
				s.search.DeleteTermRecord(search.RecordID(outcome.Term.ID, tr.LanguageCode))
			}
		}
	}
}

// ListVersionHistory returns a term's versions newest first, each with a
// display name resolved for the requested locale.
func (s *Service) ListVersionHistory(ctx context.Context, termID, locale string) ([]map[string]any, error) {
	term, err := s.store.GetTerm(ctx, termID)
	if err != nil {
		return nil, err
	}
	versions, err := s.store.ListTermVersions(ctx, termID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(versions))
	for _, version := range versions {
		resolved, err := s.resolveVersionName(ctx, version.ID, locale)
		if err != nil {
			return nil, err
		}
		item := versionPayload(version)
		item["displayName"] = resolved.Name
		item["displayLanguage"] = resolved.LanguageCode
		item["isActive"] = term.ActiveVersionID != nil && *term.ActiveVersionID == version.ID
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) ArchiveHistory(ctx context.Context, limit int) ([]map[string]any, error) {
	if s.archive == nil {
		return []map[string]any{}, nil
	}
	commits, err := s.archive.History(limit)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(commits))
	for _, commit := range commits {
		items = append(items, map[string]any{
			"hash":      commit.Hash,
			"message":   commit.Message,
			"author":    commit.Author,
			"createdAt": commit.CreatedAt,
		})
	}
	return items, nil
}

// ---- public surface ----

// PublicTerms lists published terms with one resolved translation per
// term. Terms with no active version are invisible here.
func (s *Service) PublicTerms(ctx context.Context, locale, categoryID, labelID string) ([]map[string]any, error) {
	rows, err := s.store.ListPublishedTermRows(ctx, categoryID, labelID)
	if err != nil {
		return nil, err
	}

	order := make([]string, 0)
	grouped := make(map[string][]store.PublishedTermRow)
	for _, row := range rows {
		if _, ok := grouped[row.TermID]; !ok {
			order = append(order, row.TermID)
		}
		grouped[row.TermID] = append(grouped[row.TermID], row)
	}

	categoryNames, err := s.categoryNamesByID(ctx, locale)
	if err != nil {
		return nil, err
	}

	requested := requestedLocale(locale, s.cfg.DefaultLocale)
	items := make([]map[string]any, 0, len(order))
	for _, termID := range order {
		group := grouped[termID]
		translations := make([]l10n.Translation, 0, len(group))
		languages := make([]string, 0, len(group))
		for _, row := range group {
			translations = append(translations, l10n.Translation{
				LanguageCode: row.LanguageCode,
				Name:         row.Name,
				Description:  row.Description,
			})
			languages = append(languages, row.LanguageCode)
		}
		resolved := l10n.Resolve(translations, requested)
		items = append(items, map[string]any{
			"id":               termID,
			"identifier":       group[0].Identifier,
			"categoryId":       group[0].CategoryID,
			"categoryName":     displayCategoryName(categoryNames, group[0].CategoryID),
			"name":             resolved.Name,
			"description":      resolved.Description,
			"resolvedLanguage": resolved.LanguageCode,
			"languages":        languages,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i]["identifier"].(string) < items[j]["identifier"].(string)
	})
	return items, nil
}

func (s *Service) PublicTerm(ctx context.Context, identifier, locale string) (map[string]any, error) {
	term, err := s.store.GetTermByIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if term.ActiveVersionID == nil {
		return nil, sql.ErrNoRows
	}
	translations, err := s.store.ListVersionTranslations(ctx, *term.ActiveVersionID)
	if err != nil {
		return nil, err
	}
	resolved := l10n.Resolve(toL10n(translations), requestedLocale(locale, s.cfg.DefaultLocale))

	labels, err := s.store.ListTermLabels(ctx, term.ID)
	if err != nil {
		return nil, err
	}
	labelItems := make([]map[string]any, 0, len(labels))
	for _, label := range labels {
		labelItems = append(labelItems, labelPayload(label, locale, s.cfg.DefaultLocale))
	}

	categoryNames, err := s.categoryNamesByID(ctx, locale)
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"id":               term.ID,
		"identifier":       term.Identifier,
		"categoryId":       term.CategoryID,
		"categoryName":     displayCategoryName(categoryNames, term.CategoryID),
		"name":             resolved.Name,
		"description":      resolved.Description,
		"resolvedLanguage": resolved.LanguageCode,
		"translations":     translationsPayload(translations),
		"labels":           labelItems,
	}, nil
}

func (s *Service) Search(ctx context.Context, text, language, categoryID string, limit, offset int) (map[string]any, error) {
	if s.search == nil {
		return map[string]any{"results": []any{}, "total": 0, "query": text}, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	response := s.search.Search(search.Query{
		Text:             text,
		FilterLanguage:   language,
		FilterCategoryID: categoryID,
		Limit:            limit,
		Offset:           offset,
	})
	return map[string]any{
		"results": response.Results,
		"total":   response.Total,
		"query":   response.Query,
	}, nil
}

// ---- favorites and comments ----

func (s *Service) FavoriteTerm(ctx context.Context, userID, termID string) error {
	if _, err := s.store.GetTerm(ctx, termID); err != nil {
		return err
	}
	return s.store.AddFavorite(ctx, store.Favorite{
		ID:     util.NewID("fav"),
		UserID: userID,
		TermID: termID,
	})
}

func (s *Service) UnfavoriteTerm(ctx context.Context, userID, termID string) error {
	removed, err := s.store.RemoveFavorite(ctx, userID, termID)
	if err != nil {
		return err
	}
	if !removed {
		return sql.ErrNoRows
	}
	return nil
}

func (s *Service) ListFavorites(ctx context.Context, userID, locale string) ([]map[string]any, error) {
	favorites, err := s.store.ListFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(favorites))
	for _, favorite := range favorites {
		term, err := s.store.GetTerm(ctx, favorite.TermID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, err
		}
		item := map[string]any{
			"id":         favorite.ID,
			"termId":     term.ID,
			"identifier": term.Identifier,
			"createdAt":  favorite.CreatedAt,
		}
		if term.ActiveVersionID != nil {
			resolved, err := s.resolveVersionName(ctx, *term.ActiveVersionID, locale)
			if err != nil {
				return nil, err
			}
			item["displayName"] = resolved.Name
			item["displayLanguage"] = resolved.LanguageCode
		} else {
			item["displayName"] = l10n.PlaceholderName
			item["displayLanguage"] = ""
		}
		items = append(items, item)
	}
	return items, nil
}

func (s *Service) AddComment(ctx context.Context, termID string, session Session, input CommentInput) (map[string]any, error) {
	if _, err := s.store.GetTerm(ctx, termID); err != nil {
		return nil, err
	}
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_FAILED", "comment body is required", nil)
	}
	if len(body) > 2000 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_FAILED", "comment body must be at most 2000 characters", nil)
	}
	comment := store.Comment{
		ID:         util.NewID("cmt"),
		TermID:     termID,
		UserID:     session.UserID,
		AuthorName: session.UserName,
		Body:       body,
	}
	if err := s.store.InsertComment(ctx, comment); err != nil {
		return nil, err
	}
	return commentPayload(comment), nil
}

func (s *Service) ListComments(ctx context.Context, termID string) ([]map[string]any, error) {
	if _, err := s.store.GetTerm(ctx, termID); err != nil {
		return nil, err
	}
	comments, err := s.store.ListComments(ctx, termID)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(comments))
	for _, comment := range comments {
		items = append(items, commentPayload(comment))
	}
	return items, nil
}

// DeleteComment removes a comment. Authors can delete their own;
// admins can delete any.
func (s *Service) DeleteComment(ctx context.Context, commentID string, session Session) error {
	comment, err := s.store.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != session.UserID && !s.Can(session.Role, rbac.ActionAdmin) {
		return domainError(http.StatusForbidden, "FORBIDDEN", "only the author or an admin can delete a comment", nil)
	}
	deleted, err := s.store.DeleteComment(ctx, commentID)
	if err != nil {
		return err
	}
	if !deleted {
		return sql.ErrNoRows
	}
	return nil
}

// ---- imports ----

func (s *Service) StartImport(ctx context.Context, objectKey, userName string) (map[string]any, error) {
	if s.importer == nil {
		return nil, domainError(http.StatusServiceUnavailable, "IMPORT_UNAVAILABLE", "no import object store is configured", nil)
	}
	objectKey = strings.TrimSpace(objectKey)
	if objectKey == "" {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_FAILED", "objectKey is required", nil)
	}
	report, err := s.importer.Run(ctx, objectKey, userName)
	if err != nil {
		return nil, domainError(http.StatusUnprocessableEntity, "IMPORT_FAILED", err.Error(), nil)
	}
	return map[string]any{
		"runId":    report.RunID,
		"created":  report.Created,
		"skipped":  report.Skipped,
		"problems": report.Problems,
	}, nil
}

func (s *Service) GetImportRun(ctx context.Context, runID string) (map[string]any, error) {
	run, err := s.store.GetImportRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	return importRunPayload(run), nil
}

func (s *Service) ListImportRuns(ctx context.Context, limit int) ([]map[string]any, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	runs, err := s.store.ListImportRuns(ctx, limit)
	if err != nil {
		return nil, err
	}
	items := make([]map[string]any, 0, len(runs))
	for _, run := range runs {
		items = append(items, importRunPayload(run))
	}
	return items, nil
}

// ---- helpers ----

func (s *Service) enabledLanguages(ctx context.Context) (map[string]bool, error) {
	languages, err := s.store.ListLanguages(ctx, true)
	if err != nil {
		return nil, err
	}
	enabled := make(map[string]bool, len(languages))
	for _, lang := range languages {
		enabled[lang.Code] = true
	}
	return enabled, nil
}

// namedTranslations validates a translation set where only names matter
// (categories, labels). Failures are grouped per language.
func (s *Service) namedTranslations(ctx context.Context, inputs []TranslationInput) ([]TranslationInput, error) {
	if len(inputs) == 0 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_FAILED", "at least one translation is required", nil)
	}
	enabled, err := s.enabledLanguages(ctx)
	if err != nil {
		return nil, err
	}
	details := map[string]any{}
	out := make([]TranslationInput, 0, len(inputs))
	for _, tr := range inputs {
		code := strings.TrimSpace(tr.LanguageCode)
		name := strings.TrimSpace(tr.Name)
		var problems []string
		if !enabled[code] {
			problems = append(problems, "language is not enabled")
		}
		if name == "" {
			problems = append(problems, "name is required")
		}
		if len(problems) > 0 {
			details[code] = problems
			continue
		}
		out = append(out, TranslationInput{LanguageCode: code, Name: name})
	}
	if len(details) > 0 {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_FAILED", "some translations are invalid", details)
	}
	return out, nil
}

func (s *Service) resolveVersionName(ctx context.Context, versionID, locale string) (l10n.Resolved, error) {
	translations, err := s.store.ListVersionTranslations(ctx, versionID)
	if err != nil {
		return l10n.Resolved{}, err
	}
	return l10n.Resolve(toL10n(translations), requestedLocale(locale, s.cfg.DefaultLocale)), nil
}

func requestedLocale(locale, fallback string) string {
	if strings.TrimSpace(locale) == "" {
		return fallback
	}
	return strings.TrimSpace(locale)
}

func toL10n(translations []store.TermTranslation) []l10n.Translation {
	out := make([]l10n.Translation, 0, len(translations))
	for _, tr := range translations {
		out = append(out, l10n.Translation{
			LanguageCode: tr.LanguageCode,
			Name:         tr.Name,
			Description:  tr.Description,
		})
	}
	return out
}

func (s *Service) categoryNamesByID(ctx context.Context, locale string) (map[string]string, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(categories))
	for _, cat := range categories {
		names[cat.ID] = categoryName(cat.Translations, locale, s.cfg.DefaultLocale)
	}
	return names, nil
}

// displayCategoryName is the public display path for a term's category.
// Terms without a category show as "Uncategorized".
func displayCategoryName(names map[string]string, categoryID *string) string {
	if categoryID == nil {
		return "Uncategorized"
	}
	if name, ok := names[*categoryID]; ok && name != "" {
		return name
	}
	return "Uncategorized"
}

// categoryName resolves through the shared fallback chain. An empty
// result means the category has no translations at all.
func categoryName(translations []store.CategoryTranslation, locale, defaultLocale string) string {
	all := make([]l10n.Translation, 0, len(translations))
	for _, tr := range translations {
		all = append(all, l10n.Translation{LanguageCode: tr.LanguageCode, Name: tr.Name})
	}
	resolved := l10n.Resolve(all, requestedLocale(locale, defaultLocale))
	if resolved.LanguageCode == "" {
		return ""
	}
	return resolved.Name
}

func categoryTranslationsPayload(translations []store.CategoryTranslation) []map[string]any {
	items := make([]map[string]any, 0, len(translations))
	for _, tr := range translations {
		items = append(items, map[string]any{
			"languageCode": tr.LanguageCode,
			"name":         tr.Name,
		})
	}
	return items
}

func labelPayload(label store.Label, locale, defaultLocale string) map[string]any {
	all := make([]l10n.Translation, 0, len(label.Translations))
	translations := make([]map[string]any, 0, len(label.Translations))
	for _, tr := range label.Translations {
		translations = append(translations, map[string]any{
			"languageCode": tr.LanguageCode,
			"name":         tr.Name,
		})
		all = append(all, l10n.Translation{LanguageCode: tr.LanguageCode, Name: tr.Name})
	}
	name := ""
	if resolved := l10n.Resolve(all, requestedLocale(locale, defaultLocale)); resolved.LanguageCode != "" {
		name = resolved.Name
	}
	return map[string]any{
		"id":           label.ID,
		"name":         name,
		"translations": translations,
	}
}

func versionPayload(version store.TermVersion) map[string]any {
	item := map[string]any{
		"id":             version.ID,
		"termId":         version.TermID,
		"versionNumber":  version.VersionNumber,
		"status":         version.Status,
		"readyToPublish": version.ReadyToPublish,
		"createdBy":      version.CreatedBy,
		"createdAt":      version.CreatedAt,
	}
	if version.PublishedAt != nil {
		item["publishedAt"] = *version.PublishedAt
	}
	if version.ArchivedAt != nil {
		item["archivedAt"] = *version.ArchivedAt
	}
	return item
}

func translationsPayload(translations []store.TermTranslation) []map[string]any {
	items := make([]map[string]any, 0, len(translations))
	for _, tr := range translations {
		items = append(items, map[string]any{
			"languageCode": tr.LanguageCode,
			"name":         tr.Name,
			"description":  tr.Description,
		})
	}
	return items
}

func commentPayload(comment store.Comment) map[string]any {
	return map[string]any{
		"id":         comment.ID,
		"termId":     comment.TermID,
		"userId":     comment.UserID,
		"authorName": comment.AuthorName,
		"body":       comment.Body,
		"createdAt":  comment.CreatedAt,
	}
}

func importRunPayload(run store.ImportRun) map[string]any {
	item := map[string]any{
		"id":           run.ID,
		"objectKey":    run.ObjectKey,
		"status":       run.Status,
		"termsCreated": run.TermsCreated,
		"termsSkipped": run.TermsSkipped,
		"startedBy":    run.StartedBy,
		"startedAt":    run.StartedAt,
	}
	if run.Error != "" {
		item["error"] = run.Error
	}
	if run.FinishedAt != nil {
		item["finishedAt"] = *run.FinishedAt
	}
	return item
}
