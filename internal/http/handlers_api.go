package http

import (
	"context"
	"net/http"

	"gastos/internal/core"
	applog "gastos/internal/log"
	"gastos/internal/middleware/trace"
	"gastos/internal/sheets"
)

type apiMonth struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type apiCategory struct {
	Category  string `json:"category"`
	Total     string `json:"total"`
	Formatted string `json:"formatted"`
	Width     int    `json:"width"`
}

type apiMonthsResponse struct {
	Source string     `json:"source"`
	Months []apiMonth `json:"months"`
}

type apiOverviewResponse struct {
	Source         string        `json:"source"`
	Month          string        `json:"month"`
	Label          string        `json:"label"`
	Months         []apiMonth    `json:"months"`
	Total          string        `json:"total"`
	TotalFormatted string        `json:"total_formatted"`
	ExpenseRows    int           `json:"expense_rows"`
	Rows           int           `json:"rows"`
	DroppedRows    int           `json:"dropped_rows"`
	Categories     []apiCategory `json:"categories"`
}

func toAPIMonths(months []core.MonthKey) []apiMonth {
	out := make([]apiMonth, 0, len(months))
	for _, m := range months {
		out = append(out, apiMonth{Key: m.String(), Label: m.Label()})
	}
	return out
}

// handleAPIMonths returns the selectable months, most recent first.
func (s *Server) handleAPIMonths(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()

	params, err := ParseSelectionParams(r.URL.Query())
	if err != nil {
		JSONError(http.StatusBadRequest, msgBadMonth, trace.GetRequestID(ctx)).Write(w)
		return
	}
	reader, err := s.readerFor(params.UploadID)
	if err != nil {
		s.writeJSONRunError(ctx, w, err, applog.OpAPIMonths)
		return
	}
	months, err := s.dashboard.Months(ctx, reader)
	if err != nil {
		s.writeJSONRunError(ctx, w, err, applog.OpAPIMonths)
		return
	}

	NewHTMXResponse().BodyJSON(apiMonthsResponse{
		Source: sheets.Describe(reader),
		Months: toAPIMonths(months),
	}).Write(w)
}

func (s *Server) writeJSONRunError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	code, msg, errorType := classifyError(err, s.uploadsEnabled)
	s.logRunError(ctx, err, code, errorType, op)
	JSONError(code, msg, trace.GetRequestID(ctx)).Write(w)
}

// handleAPIOverview returns the aggregated expenses of a month as JSON.
// Totals are decimal strings with two places.
func (s *Server) handleAPIOverview(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()

	params, err := ParseSelectionParams(r.URL.Query())
	if err != nil {
		JSONError(http.StatusBadRequest, msgBadMonth, trace.GetRequestID(ctx)).Write(w)
		return
	}
	reader, err := s.readerFor(params.UploadID)
	if err != nil {
		s.writeJSONRunError(ctx, w, err, applog.OpAPIOverview)
		return
	}

	res, err := s.dashboard.Overview(ctx, reader, params.Month)
	if err != nil {
		s.writeJSONRunError(ctx, w, err, applog.OpAPIOverview)
		return
	}

	ov := res.Overview
	body := apiOverviewResponse{
		Source:         res.Source,
		Month:          ov.Month.String(),
		Label:          ov.Month.Label(),
		Months:         toAPIMonths(res.Months),
		Total:          ov.Total.StringFixed(2),
		TotalFormatted: core.FormatBRL(ov.Total),
		ExpenseRows:    ov.ExpenseRows,
		Rows:           res.Rows,
		DroppedRows:    res.Dropped,
		Categories:     make([]apiCategory, 0, len(ov.ByCategory)),
	}
	bars := barRows(ov.ByCategory)
	for i, ct := range ov.ByCategory {
		body.Categories = append(body.Categories, apiCategory{
			Category:  ct.Category,
			Total:     ct.Total.StringFixed(2),
			Formatted: bars[i].Amount,
			Width:     bars[i].Width,
		})
	}
	NewHTMXResponse().BodyJSON(body).Write(w)
}
