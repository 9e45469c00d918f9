package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gastos/internal/core"
	applog "gastos/internal/log"
	"gastos/internal/sheets/memory"
)

type failingReader struct{ err error }

func (f failingReader) ReadTable(context.Context) (core.Table, error) { return core.Table{}, f.err }
func (f failingReader) Describe() string                              { return "remote" }

type countingReader struct {
	table core.Table
	calls int
}

func (c *countingReader) ReadTable(context.Context) (core.Table, error) {
	c.calls++
	return c.table, nil
}

func fixture() core.Table {
	return core.Table{
		Columns: []string{"data", "valor", "categoria"},
		Rows: []core.RawRow{
			{"data": "2024-03-01", "valor": "-50", "categoria": "Food"},
			{"data": "2024-03-05", "valor": "-20", "categoria": "Transport"},
			{"data": "2024-03-09", "valor": "-30", "categoria": "Food"},
			{"data": "2024-03-10", "valor": "1000", "categoria": "Salary"},
			{"data": "2024-02-11", "valor": "-5", "categoria": "Food"},
			{"data": "not a date", "valor": "-99", "categoria": "Food"},
		},
	}
}

func TestDashboardService_OverviewDefaultsToLatest(t *testing.T) {
	svc := NewDashboardService(nil)

	res, err := svc.Overview(context.Background(), memory.New(fixture()), "")
	require.NoError(t, err)

	assert.Equal(t, []core.MonthKey{"2024-03", "2024-02"}, res.Months)
	assert.Equal(t, core.MonthKey("2024-03"), res.Selected())
	assert.Equal(t, 6, res.Rows)
	assert.Equal(t, 1, res.Dropped)
	require.Len(t, res.Overview.ByCategory, 2)
	assert.Equal(t, "Food", res.Overview.ByCategory[0].Category)
	assert.True(t, res.Overview.ByCategory[0].Total.Equal(decimal.NewFromInt(-80)))
	assert.True(t, res.Overview.Total.Equal(decimal.NewFromInt(-100)))
}

func TestDashboardService_OverviewSelectedMonth(t *testing.T) {
	svc := NewDashboardService(nil)

	res, err := svc.Overview(context.Background(), memory.New(fixture()), "2024-02")
	require.NoError(t, err)
	require.Len(t, res.Overview.ByCategory, 1)
	assert.True(t, res.Overview.ByCategory[0].Total.Equal(decimal.NewFromInt(-5)))

	res, err = svc.Overview(context.Background(), memory.New(fixture()), "2023-01")
	require.NoError(t, err)
	assert.Empty(t, res.Overview.ByCategory)
}

func TestDashboardService_OneReadPerCall(t *testing.T) {
	svc := NewDashboardService(nil)
	r := &countingReader{table: fixture()}

	_, err := svc.Overview(context.Background(), r, "2024-03")
	require.NoError(t, err)
	_, err = svc.Months(context.Background(), r)
	require.NoError(t, err)

	assert.Equal(t, 2, r.calls)
}

func TestDashboardService_Errors(t *testing.T) {
	svc := NewDashboardService(nil)

	t.Run("load failure", func(t *testing.T) {
		cause := core.NewLoadError("remote", errors.New("boom"))
		_, err := svc.Overview(context.Background(), failingReader{err: cause}, "")
		require.Error(t, err)
		assert.True(t, core.IsLoadError(err))
	})

	t.Run("plain reader error becomes a load error", func(t *testing.T) {
		_, err := svc.Overview(context.Background(), failingReader{err: errors.New("disk gone")}, "")
		var le *core.LoadError
		require.ErrorAs(t, err, &le)
		assert.Equal(t, "remote", le.Source)
		assert.Contains(t, err.Error(), "disk gone")
	})

	t.Run("schema failure", func(t *testing.T) {
		bad := core.Table{Columns: []string{"date", "amount"}}
		_, err := svc.Months(context.Background(), memory.New(bad))
		require.Error(t, err)
		assert.True(t, core.IsSchemaError(err))
	})

	t.Run("no usable rows names the source", func(t *testing.T) {
		table := core.Table{
			Columns: []string{"data", "valor", "categoria"},
			Rows:    []core.RawRow{{"data": "x", "valor": "y", "categoria": "z"}},
		}
		_, err := svc.Overview(context.Background(), memory.New(table), "")
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrNoUsableRows)
	})

	t.Run("nil reader", func(t *testing.T) {
		_, err := svc.Months(context.Background(), nil)
		require.Error(t, err)
	})
}

func TestDashboardService_LogsThroughRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	svc := NewDashboardService(applog.New(applog.Config{Level: slog.LevelInfo, Output: &bytes.Buffer{}}))
	reqLogger := applog.New(applog.Config{Level: slog.LevelInfo, Output: &buf}).
		With(applog.FieldRequestID, "req_0001")
	ctx := applog.NewContext(context.Background(), reqLogger)

	_, err := svc.Overview(ctx, memory.New(fixture()), "2023-01")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Selected month has no rows")
	assert.Contains(t, out, "Pipeline run completed")
	assert.Contains(t, out, "request_id=req_0001")
	assert.Contains(t, out, "month=2023-01")
}
