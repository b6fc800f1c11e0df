package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"TrendCast/internal/domain/models"
	domrepo "TrendCast/internal/domain/repository"
	pkgch "TrendCast/pkg/clickhouse"
	applogger "TrendCast/pkg/logger"
	"TrendCast/pkg/util"
)

const (
	observationColumns = "entity_id, name, category, day, target, price, search_volume, sentiment_score, marketing_spend, competitor_price"
	insertChunkSize    = 2000
)

// ObservationSchema returns the DDL for the observations table.
// ReplacingMergeTree keeps the last write of an entity day.
func ObservationSchema(database, table string) []string {
	return []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.%s (
    entity_id        String,
    name             String,
    category         LowCardinality(String),
    day              Date,
    target           Float64,
    price            Float64,
    search_volume    Float64,
    sentiment_score  Nullable(Float64),
    marketing_spend  Float64,
    competitor_price Float64,
    inserted_at      DateTime DEFAULT now()
) ENGINE = ReplacingMergeTree(inserted_at)
ORDER BY (category, entity_id, day)`, database, table),
	}
}

// CHObservationStore reads and appends observations in ClickHouse.
type CHObservationStore struct {
	db    *sql.DB
	table string
	l     *applogger.Logger
}

var (
	_ domrepo.ObservationStore  = (*CHObservationStore)(nil)
	_ domrepo.ObservationWriter = (*CHObservationStore)(nil)
)

// NewCHObservationStore uses database.table, e.g. "trendcast.observations".
func NewCHObservationStore(ch *pkgch.Client, database, table string, l *applogger.Logger) *CHObservationStore {
	if l == nil {
		l = applogger.Nop()
	}
	return &CHObservationStore{db: ch.DB(), table: database + "." + table, l: l}
}

func (s *CHObservationStore) Entities(ctx context.Context, category string) ([]string, error) {
	q := fmt.Sprintf("SELECT DISTINCT entity_id FROM %s", s.table)
	var args []any
	if category != "" {
		q += " WHERE category = ?"
		args = append(args, category)
	}
	q += " ORDER BY entity_id"
	return s.column(ctx, "entities", q, args...)
}

func (s *CHObservationStore) Categories(ctx context.Context) ([]string, error) {
	q := fmt.Sprintf("SELECT DISTINCT category FROM %s ORDER BY category", s.table)
	return s.column(ctx, "categories", q)
}

func (s *CHObservationStore) Observations(ctx context.Context, entityID string) ([]models.ObservationRecord, error) {
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE entity_id = ? ORDER BY day ASC", observationColumns, s.table)
	out, err := s.records(ctx, "observations", entityID, q, entityID)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("entity %s: %w", entityID, models.ErrEntityNotFound)
	}
	return out, nil
}

func (s *CHObservationStore) CategoryObservations(ctx context.Context, category string) ([]models.ObservationRecord, error) {
	q := fmt.Sprintf("SELECT %s FROM %s FINAL WHERE category = ? ORDER BY day ASC, entity_id ASC", observationColumns, s.table)
	out, err := s.records(ctx, "category_observations", category, q, category)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("category %s: %w", category, models.ErrEntityNotFound)
	}
	return out, nil
}

// InsertBatch writes records with multi-row VALUES in chunks.
func (s *CHObservationStore) InsertBatch(ctx context.Context, records []models.ObservationRecord) error {
	start := time.Now()
	for from := 0; from < len(records); from += insertChunkSize {
		chunk := records[from:min(from+insertChunkSize, len(records))]
		q, args := insertStatement(s.table, chunk)
		if q == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			s.l.Error("clickhouse insert observations error",
				applogger.String("table", s.table),
				applogger.Int("rows", len(chunk)),
				applogger.Error(err),
			)
			return fmt.Errorf("insert observations: %w", err)
		}
	}
	s.l.Debug("clickhouse insert observations ok",
		applogger.String("table", s.table),
		applogger.Int("rows", len(records)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return nil
}

func insertStatement(table string, recs []models.ObservationRecord) (string, []any) {
	values := make([]string, 0, len(recs))
	args := make([]any, 0, len(recs)*10)
	for _, r := range recs {
		if r.EntityID == "" || r.Date.IsZero() {
			continue
		}
		var sentiment any
		if v, ok := r.Covariate(models.CovariateSentiment); ok {
			sentiment = v
		}
		values = append(values, "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			r.EntityID,
			r.Name,
			r.Category,
			util.TruncateDay(r.Date),
			r.Target,
			r.Covariates[models.CovariatePrice],
			r.Covariates[models.CovariateSearchVolume],
			sentiment,
			r.Covariates[models.CovariateMarketingSpend],
			r.Covariates[models.CovariateCompetitorPrice],
		)
	}
	if len(values) == 0 {
		return "", nil
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s", table, observationColumns, strings.Join(values, ","))
	return q, args
}

func (s *CHObservationStore) column(ctx context.Context, op, q string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse query error", applogger.String("op", op), applogger.String("table", s.table), applogger.Error(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s rows: %w", op, err)
	}
	return out, nil
}

func (s *CHObservationStore) records(ctx context.Context, op, key, q string, args ...any) ([]models.ObservationRecord, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		s.l.Error("clickhouse query error",
			applogger.String("op", op),
			applogger.String("table", s.table),
			applogger.String("key", key),
			applogger.Error(err),
		)
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make([]models.ObservationRecord, 0, 1024)
	for rows.Next() {
		var (
			r                                 models.ObservationRecord
			price, search, marketing, compete float64
			sentiment                         sql.NullFloat64
		)
		if err := rows.Scan(&r.EntityID, &r.Name, &r.Category, &r.Date, &r.Target,
			&price, &search, &sentiment, &marketing, &compete); err != nil {
			s.l.Error("clickhouse scan error", applogger.String("op", op), applogger.String("key", key), applogger.Error(err))
			return nil, fmt.Errorf("%s scan: %w", op, err)
		}
		r.Date = util.TruncateDay(r.Date)
		r.Covariates = map[string]float64{
			models.CovariatePrice:           price,
			models.CovariateSearchVolume:    search,
			models.CovariateMarketingSpend:  marketing,
			models.CovariateCompetitorPrice: compete,
		}
		if sentiment.Valid {
			r.Covariates[models.CovariateSentiment] = sentiment.Float64
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		s.l.Error("clickhouse rows error", applogger.String("op", op), applogger.String("key", key), applogger.Error(err))
		return nil, fmt.Errorf("%s rows: %w", op, err)
	}
	s.l.Debug("clickhouse query ok",
		applogger.String("op", op),
		applogger.String("key", key),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}
