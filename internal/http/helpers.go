package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"gastos/internal/core"
	applog "gastos/internal/log"
	"gastos/internal/services"
)

const (
	pageTitle      = "Dashboard Financeiro - Gastos Mensais"
	chartTitle     = "Distribuição de Gastos"
	chartAxisLabel = "Valor (R$)"
	uploadInfo     = "Por favor, faça o upload de um arquivo Excel (.xlsx) com as colunas: 'data', 'valor', 'categoria'"
	msgUploadGone  = "O arquivo enviado expirou. Envie a planilha novamente."
	msgBadMonth    = "Mês inválido: use o formato AAAA-MM."
	msgInternal    = "Erro inesperado ao processar os dados."

	// minBarWidth keeps tiny categories visible next to large ones.
	minBarWidth = 2
)

var hundred = decimal.NewFromInt(100)

type barRow struct {
	Category string
	Amount   string
	Width    int
}

type monthOption struct {
	Key      string
	Label    string
	Selected bool
}

type overviewView struct {
	Month       string
	Heading     string
	Total       string
	ExpenseRows int
	Rows        []barRow
	ChartTitle  string
	AxisLabel   string
	UploadID    string
}

type errorView struct {
	Status  int
	Message string
}

type dashboardView struct {
	Title      string
	Source     string
	UploadMode bool
	UploadInfo string
	UploadMax  string
	UploadID   string
	Months     []monthOption
	Dropped    int
	Overview   *overviewView
	Error      *errorView
}

// newOverviewView prepares a month overview for the templates.
func newOverviewView(ov core.MonthOverview, uploadID string) *overviewView {
	return &overviewView{
		Month:       ov.Month.String(),
		Heading:     "Gastos por Categoria - " + ov.Month.String(),
		Total:       core.FormatBRL(ov.Total),
		ExpenseRows: ov.ExpenseRows,
		Rows:        barRows(ov.ByCategory),
		ChartTitle:  chartTitle,
		AxisLabel:   chartAxisLabel,
		UploadID:    uploadID,
	}
}

// barRows scales each total against the largest absolute total, as a rounded
// percentage with a floor of minBarWidth.
func barRows(totals []core.CategoryTotal) []barRow {
	largest := decimal.Zero
	for _, ct := range totals {
		if a := ct.Total.Abs(); a.GreaterThan(largest) {
			largest = a
		}
	}

	rows := make([]barRow, 0, len(totals))
	for _, ct := range totals {
		width := 0
		if largest.IsPositive() {
			width = int(ct.Total.Abs().Mul(hundred).Div(largest).Round(0).IntPart())
			if width < minBarWidth {
				width = minBarWidth
			}
			if width > 100 {
				width = 100
			}
		}
		rows = append(rows, barRow{
			Category: ct.Category,
			Amount:   core.FormatBRL(ct.Total),
			Width:    width,
		})
	}
	return rows
}

func monthOptions(months []core.MonthKey, selected core.MonthKey) []monthOption {
	opts := make([]monthOption, 0, len(months))
	for _, m := range months {
		opts = append(opts, monthOption{
			Key:      m.String(),
			Label:    m.Label(),
			Selected: m == selected,
		})
	}
	return opts
}

// newDashboardView assembles the page state after a successful run.
func newDashboardView(res services.Result, uploadID string) dashboardView {
	return dashboardView{
		Title:    pageTitle,
		Source:   res.Source,
		UploadID: uploadID,
		Months:   monthOptions(res.Months, res.Selected()),
		Dropped:  res.Dropped,
		Overview: newOverviewView(res.Overview, uploadID),
	}
}

func uploadLimitLabel(maxBytes int64) string {
	if maxBytes <= 0 {
		return ""
	}
	return humanize.IBytes(uint64(maxBytes))
}

// classifyError maps a pipeline error to a status code, a user-facing message
// and a log error type. Remote load failures are 502; the same failure on an
// uploaded file is the client's input and gets 422.
func classifyError(err error, upload bool) (int, string, string) {
	var schemaErr *core.SchemaError
	var loadErr *core.LoadError
	switch {
	case errors.Is(err, ErrUploadExpired):
		return http.StatusGone, msgUploadGone, applog.ErrorTypeNotFound
	case errors.Is(err, core.ErrInvalidMonth):
		return http.StatusBadRequest, msgBadMonth, applog.ErrorTypeValidation
	case errors.As(err, &schemaErr):
		return http.StatusUnprocessableEntity, schemaErr.Error(), applog.ErrorTypeSchema
	case errors.As(err, &loadErr):
		if upload {
			return http.StatusUnprocessableEntity, loadErr.Error(), applog.ErrorTypeLoad
		}
		return http.StatusBadGateway, loadErr.Error(), applog.ErrorTypeLoad
	default:
		return http.StatusInternalServerError, msgInternal, applog.ErrorTypeInternal
	}
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
