package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/Dan9191/balancify/internal/models"
	"github.com/Dan9191/balancify/internal/utils"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a questionnaire or analysis does not exist.
var ErrNotFound = errors.New("not found")

// timeLayout is fixed width so stored timestamps compare as text.
const timeLayout = "2006-01-02T15:04:05.000Z07:00"

var placeholder = regexp.MustCompile(`\$\d+`)

// Repository provides database operations
type Repository struct {
	db     *sql.DB
	driver string
	key    []byte
}

// Open connects to postgres (lib/pq) or sqlite (modernc) and verifies the connection.
func Open(ctx context.Context, driver, conn string) (*sql.DB, error) {
	db, err := sql.Open(driver, conn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if driver == "sqlite" {
		// A single connection keeps in-memory databases shared and serializes writers.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// NewRepository initializes a new repository. key encrypts questionnaire payloads.
func NewRepository(db *sql.DB, driver string, key []byte) *Repository {
	return &Repository{db: db, driver: driver, key: key}
}

// q adapts $n placeholders for drivers that only accept ?.
func (r *Repository) q(query string) string {
	if r.driver == "sqlite" {
		return placeholder.ReplaceAllString(query, "?")
	}
	return query
}

// Migrate creates the schema if it does not exist.
func (r *Repository) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS questionnaires (
			id TEXT PRIMARY KEY,
			user_id TEXT,
			payload TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS financial_analyses (
			id TEXT PRIMARY KEY,
			questionnaire_id TEXT NOT NULL REFERENCES questionnaires(id),
			analysis TEXT NOT NULL,
			insights TEXT NOT NULL,
			insight_source TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_financial_analyses_questionnaire ON financial_analyses (questionnaire_id)`,
		`CREATE INDEX IF NOT EXISTS idx_questionnaires_created_at ON questionnaires (created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate: %w", err)
		}
	}
	return nil
}

// CreateQuestionnaire stores a normalized profile, encrypted at rest.
func (r *Repository) CreateQuestionnaire(ctx context.Context, q *models.Questionnaire) error {
	raw, err := json.Marshal(q.Profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	payload, err := utils.Encrypt(raw, r.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt profile: %w", err)
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO questionnaires (id, user_id, payload, created_at)
		VALUES ($1, $2, $3, $4)`
	_, err = r.db.ExecContext(ctx, r.q(query), q.ID, q.UserID, payload, formatTime(q.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create questionnaire: %w", err)
	}
	return nil
}

// FindQuestionnaire retrieves and decrypts a questionnaire by id
func (r *Repository) FindQuestionnaire(ctx context.Context, id string) (*models.Questionnaire, error) {
	var (
		q         = &models.Questionnaire{ID: id}
		userID    sql.NullString
		payload   string
		createdAt string
	)
	query := `
		SELECT user_id, payload, created_at
		FROM questionnaires
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, r.q(query), id).Scan(&userID, &payload, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("questionnaire %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find questionnaire: %w", err)
	}

	raw, err := utils.Decrypt(payload, r.key)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt questionnaire: %w", err)
	}
	q.Profile = &models.FinancialProfile{}
	if err := json.Unmarshal(raw, q.Profile); err != nil {
		return nil, fmt.Errorf("failed to decode questionnaire: %w", err)
	}
	if userID.Valid {
		q.UserID = &userID.String
	}
	if q.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return q, nil
}

// CreateAnalysis stores the numeric analysis with its insights.
func (r *Repository) CreateAnalysis(ctx context.Context, a *models.StoredAnalysis) error {
	analysis, err := json.Marshal(a.Analysis)
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}
	insights, err := json.Marshal(a.Insights)
	if err != nil {
		return fmt.Errorf("failed to encode insights: %w", err)
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO financial_analyses (id, questionnaire_id, analysis, insights, insight_source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err = r.db.ExecContext(ctx, r.q(query), a.ID, a.QuestionnaireID, string(analysis), string(insights),
		string(a.InsightSource), formatTime(a.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to create analysis: %w", err)
	}
	return nil
}

// FindAnalysisByQuestionnaire returns the latest analysis of a questionnaire.
func (r *Repository) FindAnalysisByQuestionnaire(ctx context.Context, questionnaireID string) (*models.StoredAnalysis, error) {
	var (
		a         = &models.StoredAnalysis{QuestionnaireID: questionnaireID}
		analysis  string
		insights  string
		source    string
		createdAt string
	)
	query := `
		SELECT id, analysis, insights, insight_source, created_at
		FROM financial_analyses
		WHERE questionnaire_id = $1
		ORDER BY created_at DESC
		LIMIT 1`
	err := r.db.QueryRowContext(ctx, r.q(query), questionnaireID).Scan(&a.ID, &analysis, &insights, &source, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("analysis for questionnaire %s: %w", questionnaireID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find analysis: %w", err)
	}

	if err := json.Unmarshal([]byte(analysis), &a.Analysis); err != nil {
		return nil, fmt.Errorf("failed to decode analysis: %w", err)
	}
	if err := json.Unmarshal([]byte(insights), &a.Insights); err != nil {
		return nil, fmt.Errorf("failed to decode insights: %w", err)
	}
	a.InsightSource = models.InsightSource(source)
	if a.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return a, nil
}

// PurgeOlderThan deletes questionnaires created before cutoff together with
// their analyses and returns the number of questionnaires removed.
func (r *Repository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin purge: %w", err)
	}
	defer tx.Rollback()

	ts := formatTime(cutoff)
	_, err = tx.ExecContext(ctx, r.q(`
		DELETE FROM financial_analyses
		WHERE questionnaire_id IN (SELECT id FROM questionnaires WHERE created_at < $1)`), ts)
	if err != nil {
		return 0, fmt.Errorf("failed to purge analyses: %w", err)
	}
	res, err := tx.ExecContext(ctx, r.q(`DELETE FROM questionnaires WHERE created_at < $1`), ts)
	if err != nil {
		return 0, fmt.Errorf("failed to purge questionnaires: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count purged rows: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit purge: %w", err)
	}
	return n, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}
