package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	applog "gastos/internal/log"
	"gastos/internal/sheets"
)

// readerFor resolves the source for a request: the configured reader, or the
// upload named by uploadID when the server runs in upload mode.
func (s *Server) readerFor(uploadID string) (sheets.TableReader, error) {
	if !s.uploadsEnabled {
		if s.reader == nil {
			return nil, errors.New("no data source configured")
		}
		return s.reader, nil
	}
	u, err := s.uploads.Get(uploadID)
	if err != nil {
		return nil, err
	}
	return u.Reader(), nil
}

// render executes a template into a buffer so a failing template never
// produces a half-written page.
func (s *Server) render(ctx context.Context, name string, data interface{}) (*HTMXResponseBuilder, error) {
	if s.templates == nil {
		return nil, errors.New("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		s.structured.LogError(ctx, "Template execution failed", err, applog.ErrorTypeInternal,
			applog.ComponentTemplate, applog.OpRender, applog.NewFields().WithOperation(name))
		return nil, err
	}
	return NewHTMXResponse().BodyHTML(buf.String()), nil
}

// logRunError logs a failed pipeline run at a level matching its status.
func (s *Server) logRunError(ctx context.Context, err error, status int, errorType, op string) {
	fields := applog.NewFields().WithHTTPResponse(status, 0, false)
	if status >= http.StatusInternalServerError {
		s.structured.LogError(ctx, "Dashboard run failed", err, errorType, applog.ComponentHTTP, op, fields)
		return
	}
	s.structured.LogWarn(ctx, "Dashboard run rejected", err, errorType, applog.ComponentHTTP, op, fields)
}

// handleIndex renders the full dashboard page. With a configured source it
// runs the pipeline for the requested (or most recent) month; in upload mode
// it shows the upload form.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()

	view := dashboardView{
		Title:      pageTitle,
		UploadMode: s.uploadsEnabled,
		UploadInfo: uploadInfo,
		UploadMax:  uploadLimitLabel(s.maxUploadBytes),
	}
	status := http.StatusOK

	if !s.uploadsEnabled {
		params, err := ParseSelectionParams(r.URL.Query())
		if err == nil {
			res, runErr := s.dashboard.Overview(ctx, s.reader, params.Month)
			if runErr == nil {
				view = newDashboardView(res, "")
			}
			err = runErr
		}
		if err != nil {
			code, msg, errorType := classifyError(err, false)
			s.logRunError(ctx, err, code, errorType, applog.OpLoad)
			view.Error = &errorView{Status: code, Message: msg}
			status = code
		}
	}

	resp, err := s.render(ctx, "page", view)
	if err != nil {
		http.Error(w, "erro ao renderizar a página", http.StatusInternalServerError)
		return
	}
	resp.Status(status).Write(w)
}

// handleMonthOverview renders the table and bar chart partial for one month.
func (s *Server) handleMonthOverview(w http.ResponseWriter, r *http.Request) {
	if resp := RequireGET(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()

	params, err := ParseSelectionParams(r.URL.Query())
	if err != nil {
		BadRequestError(msgBadMonth).Write(w)
		return
	}

	reader, err := s.readerFor(params.UploadID)
	if err != nil {
		s.writeRunError(ctx, w, err, applog.OpAggregate)
		return
	}
	res, err := s.dashboard.Overview(ctx, reader, params.Month)
	if err != nil {
		s.writeRunError(ctx, w, err, applog.OpAggregate)
		return
	}

	resp, err := s.render(ctx, "month_overview", newOverviewView(res.Overview, params.UploadID))
	if err != nil {
		InternalServerError(msgInternal).Write(w)
		return
	}
	resp.TriggerMonthSelected(res.Selected().String()).Write(w)
}

// writeRunError renders a failed run as an error banner.
func (s *Server) writeRunError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	code, msg, errorType := classifyError(err, s.uploadsEnabled)
	s.logRunError(ctx, err, code, errorType, op)
	ErrorResponse(code, msg).Write(w)
}

// handleUpload accepts a workbook, keeps its bytes for later month
// selections and renders the dashboard body for the most recent month.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	if !s.uploadsEnabled {
		NotFoundError("Upload desabilitado: a fonte de dados é configurada no servidor.").Write(w)
		return
	}
	ctx := r.Context()

	file, err := ReadUploadedFile(w, r, s.maxUploadBytes)
	if err != nil {
		code := http.StatusBadRequest
		msg := err.Error()
		switch {
		case errors.Is(err, ErrFileTooLarge):
			code = http.StatusRequestEntityTooLarge
			msg = fmt.Sprintf("%s (%s)", err.Error(), uploadLimitLabel(s.maxUploadBytes))
		case errors.Is(err, ErrUnsupportedFile):
			code = http.StatusUnsupportedMediaType
		case errors.Is(err, ErrNoFile):
		default:
			msg = "Não foi possível ler o arquivo enviado."
		}
		s.structured.LogWarn(ctx, "Upload rejected", err, applog.ErrorTypeValidation,
			applog.ComponentUpload, applog.OpUpload, nil)
		ErrorResponse(code, msg).Write(w)
		return
	}

	upload := s.uploads.Put(file.Name, file.Data)
	res, err := s.dashboard.Overview(ctx, upload.Reader(), "")
	if err != nil {
		s.uploads.Delete(upload.ID)
		s.writeRunError(ctx, w, err, applog.OpUpload)
		return
	}

	applog.FromContext(ctx).WithComponent(applog.ComponentUpload).InfoContext(ctx, "Upload accepted",
		applog.FieldUploadID, upload.ID,
		applog.FieldUploadBytes, len(upload.Data),
		applog.FieldSource, upload.Name,
		applog.FieldMonths, len(res.Months))

	resp, err := s.render(ctx, "dashboard_body", newDashboardView(res, upload.ID))
	if err != nil {
		InternalServerError(msgInternal).Write(w)
		return
	}
	resp.TriggerUploadAccepted(upload.ID, res.Selected().String())
	if res.Dropped > 0 {
		resp.TriggerWarningNotification(fmt.Sprintf("%d linha(s) com data ou valor inválido foram ignoradas.", res.Dropped))
	} else {
		resp.TriggerSuccessNotification(fmt.Sprintf("Arquivo %s carregado: %d mês(es) disponíveis.", upload.Name, len(res.Months)))
	}
	resp.Write(w)
}
