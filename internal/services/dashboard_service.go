package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gastos/internal/core"
	applog "gastos/internal/log"
	"gastos/internal/sheets"
)

// Result is the outcome of one pipeline run for the dashboard.
type Result struct {
	Source   string
	Months   []core.MonthKey
	Overview core.MonthOverview
	Rows     int
	Dropped  int
}

// Selected is the month the overview was computed for.
func (r Result) Selected() core.MonthKey {
	return r.Overview.Month
}

// DashboardService loads a table from a reader and runs the aggregation
// pipeline over it. Every call performs exactly one read.
type DashboardService struct {
	logger *applog.StructuredLogger
	now    func() time.Time
}

func NewDashboardService(logger *applog.Logger) *DashboardService {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	return &DashboardService{
		logger: applog.NewStructuredLogger(logger),
		now:    time.Now,
	}
}

// Months returns the selectable months of the source, most recent first.
func (s *DashboardService) Months(ctx context.Context, r sheets.TableReader) ([]core.MonthKey, error) {
	table, source, err := s.read(ctx, r)
	if err != nil {
		return nil, err
	}
	ds, err := core.Prepare(table)
	if err != nil {
		return nil, s.rejected(ctx, err, source, table)
	}
	return ds.Months, nil
}

// Overview loads the source and aggregates the expenses of month.
// An empty month selects the most recent month in the data.
func (s *DashboardService) Overview(ctx context.Context, r sheets.TableReader, month core.MonthKey) (Result, error) {
	start := s.now()
	table, source, err := s.read(ctx, r)
	if err != nil {
		return Result{Source: source}, err
	}

	ds, ov, err := core.Run(table, month)
	switch {
	case err == nil:
	case core.IsSchemaError(err) || core.IsLoadError(err):
		return Result{Source: source}, s.rejected(ctx, err, source, table)
	default:
		return Result{Source: source, Months: ds.Months}, fmt.Errorf("summarize %s: %w", month, err)
	}
	if !month.IsZero() && !ds.HasMonth(month) {
		s.logger.For(ctx, applog.ComponentPipeline).InfoContext(ctx, "Selected month has no rows",
			applog.FieldSource, source,
			applog.FieldMonth, month.String(),
			applog.FieldMonths, len(ds.Months))
	}

	s.logger.LogPipelineRun(ctx, source, ov.Month.String(),
		len(ds.Records)+ds.Dropped, ds.Dropped, len(ds.Months), len(ov.ByCategory), ov.ExpenseRows,
		s.now().Sub(start).Milliseconds())

	return Result{
		Source:   source,
		Months:   ds.Months,
		Overview: ov,
		Rows:     len(ds.Records) + ds.Dropped,
		Dropped:  ds.Dropped,
	}, nil
}

// read performs the single source read of a run. Failures that the reader did
// not already report as a LoadError are wrapped in one naming the source.
func (s *DashboardService) read(ctx context.Context, r sheets.TableReader) (core.Table, string, error) {
	if r == nil {
		return core.Table{}, "", errors.New("no data source configured")
	}
	source := sheets.Describe(r)

	table, err := r.ReadTable(ctx)
	if err != nil {
		if !core.IsLoadError(err) {
			err = core.NewLoadError(source, err)
		}
		s.logger.LogError(ctx, "Failed to load table", err, applog.ErrorTypeLoad,
			applog.ComponentLoader, applog.OpLoad, applog.NewFields().WithSource(source))
		return core.Table{}, source, err
	}
	return table, source, nil
}

// rejected logs a table the pipeline refused and names the source on
// LoadErrors raised by the pipeline itself.
func (s *DashboardService) rejected(ctx context.Context, err error, source string, table core.Table) error {
	var le *core.LoadError
	if errors.As(err, &le) && le.Source == "" {
		le.Source = source
	}
	errorType := applog.ErrorTypeLoad
	if core.IsSchemaError(err) {
		errorType = applog.ErrorTypeSchema
	}
	s.logger.LogWarn(ctx, "Table rejected", err, errorType,
		applog.ComponentPipeline, applog.OpValidate,
		applog.NewFields().WithSource(source).WithPipeline("", len(table.Rows), len(table.Rows), 0, 0, 0))
	return err
}
