package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"TruthPost/internal/domain"
	"TruthPost/internal/ports"
)

const articlesTable = "articles"

// invalid_text_representation, raised for ids that are not UUIDs.
const pqInvalidText = "22P02"

//go:embed schema.sql
var schema string

var articleColumns = []string{
	"id", "title", "content", "media_path", "status",
	"text_result", "media_result", "created_at", "updated_at",
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresRepository persists articles into Postgres.
type PostgresRepository struct {
	db *sql.DB
}

var _ ports.ArticleRepository = (*PostgresRepository)(nil)

// OpenPostgres connects with the lib/pq driver and verifies the connection.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the articles table when missing.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Create inserts the pending record and returns its id.
func (r *PostgresRepository) Create(ctx context.Context, article domain.Article) (string, error) {
	query, args, err := insertQuery(article)
	if err != nil {
		return "", err
	}

	var id string
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return "", fmt.Errorf("insert article: %w", err)
	}
	return id, nil
}

// Update writes the verdict and both analysis results in one statement.
func (r *PostgresRepository) Update(ctx context.Context, id string, outcome domain.AnalysisOutcome) (domain.Article, error) {
	query, args, err := updateOutcomeQuery(id, outcome)
	if err != nil {
		return domain.Article{}, err
	}
	return r.queryOne(ctx, "update article", query, args)
}

// SetStatus overrides the status only.
func (r *PostgresRepository) SetStatus(ctx context.Context, id string, status domain.Status) (domain.Article, error) {
	query, args, err := psql.Update(articlesTable).
		Set("status", string(status)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Suffix(returningColumns()).
		ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build status update: %w", err)
	}
	return r.queryOne(ctx, "set status", query, args)
}

// Get loads one article by id.
func (r *PostgresRepository) Get(ctx context.Context, id string) (domain.Article, error) {
	query, args, err := psql.Select(articleColumns...).
		From(articlesTable).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build select: %w", err)
	}
	return r.queryOne(ctx, "get article", query, args)
}

// List returns articles newest first.
func (r *PostgresRepository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Article, error) {
	query, args, err := listQuery(filter)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}

	var result []domain.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		result = append(result, article)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return result, nil
}

func (r *PostgresRepository) queryOne(ctx context.Context, op, query string, args []any) (domain.Article, error) {
	article, err := scanArticle(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if isNotFound(err) {
			return domain.Article{}, fmt.Errorf("%s: %w", op, domain.ErrNotFound)
		}
		return domain.Article{}, fmt.Errorf("%s: %w", op, err)
	}
	return article, nil
}

func insertQuery(article domain.Article) (string, []any, error) {
	query, args, err := psql.Insert(articlesTable).
		Columns("id", "title", "content", "media_path", "status", "created_at", "updated_at").
		Values(
			article.ID,
			article.Title,
			article.Content,
			nullString(article.MediaPath),
			string(article.Status),
			article.CreatedAt,
			article.CreatedAt,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build insert: %w", err)
	}
	return query, args, nil
}

func updateOutcomeQuery(id string, outcome domain.AnalysisOutcome) (string, []any, error) {
	text, err := json.Marshal(outcome.TextResult)
	if err != nil {
		return "", nil, fmt.Errorf("marshal text result: %w", err)
	}
	media, err := json.Marshal(outcome.MediaResult)
	if err != nil {
		return "", nil, fmt.Errorf("marshal media result: %w", err)
	}

	query, args, err := psql.Update(articlesTable).
		Set("status", string(outcome.Status)).
		Set("text_result", string(text)).
		Set("media_result", string(media)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		Suffix(returningColumns()).
		ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build update: %w", err)
	}
	return query, args, nil
}

func listQuery(filter domain.ListFilter) (string, []any, error) {
	builder := psql.Select(articleColumns...).
		From(articlesTable).
		OrderBy("created_at DESC", "id")

	if filter.Status != "" {
		builder = builder.Where(sq.Eq{"status": string(filter.Status)})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return "", nil, fmt.Errorf("build list: %w", err)
	}
	return query, args, nil
}

func returningColumns() string {
	return "RETURNING " + strings.Join(articleColumns, ", ")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (domain.Article, error) {
	var (
		article     domain.Article
		mediaPath   sql.NullString
		status      string
		textResult  []byte
		mediaResult []byte
	)

	err := row.Scan(
		&article.ID,
		&article.Title,
		&article.Content,
		&mediaPath,
		&status,
		&textResult,
		&mediaResult,
		&article.CreatedAt,
		&article.UpdatedAt,
	)
	if err != nil {
		return domain.Article{}, err
	}

	article.MediaPath = mediaPath.String
	article.Status = domain.Status(status)

	if article.TextResult, err = decodeResult(textResult); err != nil {
		return domain.Article{}, fmt.Errorf("decode text result of %s: %w", article.ID, err)
	}
	if article.MediaResult, err = decodeResult(mediaResult); err != nil {
		return domain.Article{}, fmt.Errorf("decode media result of %s: %w", article.ID, err)
	}

	return article, nil
}

func decodeResult(raw []byte) (*domain.AnalysisResult, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var r domain.AnalysisResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func isNotFound(err error) bool {
	if errors.Is(err, sql.ErrNoRows) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqInvalidText
}
