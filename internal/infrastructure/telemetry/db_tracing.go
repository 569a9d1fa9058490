package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig configures query spans
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // include bind variables in spans
	SlowQueryThresh time.Duration
	DBSystem        string
}

// DefaultDBTracingConfig returns a disabled config with a 200ms slow query threshold
func DefaultDBTracingConfig() DBTracingConfig {
	return DBTracingConfig{
		SlowQueryThresh: 200 * time.Millisecond,
		DBSystem:        "sqlite",
	}
}

type queryStartKey struct{}

// RegisterDBTracing installs the otelgorm plugin plus callbacks flagging slow and failed queries
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		return nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBSystem)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	threshold := cfg.SlowQueryThresh
	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	after := func(tx *gorm.DB) { annotateQuerySpan(tx, threshold) }

	cb := db.Callback()
	if err := cb.Create().Before("gorm:create").Register("labelbridge:before_create", before); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("labelbridge:after_create", after); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("labelbridge:before_query", before); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("labelbridge:after_query", after); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("labelbridge:before_update", before); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("labelbridge:after_update", after); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("labelbridge:before_delete", before); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("labelbridge:after_delete", after); err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("logFullSql", cfg.LogFullSQL),
		zap.Duration("slowQueryThreshold", threshold))
	return nil
}

func annotateQuerySpan(tx *gorm.DB, threshold time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.SetAttributes(attribute.Int64("db.rows_affected", tx.Statement.RowsAffected))
	if tx.Statement.Table != "" {
		span.SetAttributes(attribute.String("db.sql.table", tx.Statement.Table))
	}
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.RecordError(tx.Error)
		span.SetStatus(codes.Error, tx.Error.Error())
	}
	if start, ok := ctx.Value(queryStartKey{}).(time.Time); ok && threshold > 0 {
		if elapsed := time.Since(start); elapsed > threshold {
			span.SetAttributes(
				attribute.Bool("db.slow_query", true),
				attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()))
		}
	}
}
