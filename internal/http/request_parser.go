// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data:
// the month and upload query parameters and multipart uploads.

package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"gastos/internal/core"
)

const (
	paramMonth  = "month"
	paramUpload = "upload"
	fieldFile   = "file"
)

var (
	// ErrNoFile is returned when the multipart form has no file field.
	ErrNoFile = errors.New("nenhum arquivo enviado")
	// ErrFileTooLarge is returned when the upload exceeds the configured limit.
	ErrFileTooLarge = errors.New("arquivo excede o tamanho máximo permitido")
	// ErrUnsupportedFile is returned for extensions other than .xlsx and .csv.
	ErrUnsupportedFile = errors.New("formato não suportado: envie um arquivo .xlsx ou .csv")
)

var allowedUploadExt = map[string]bool{
	".xlsx": true,
	".xlsm": true,
	".csv":  true,
}

// SelectionParams holds the month selection and optional upload reference.
type SelectionParams struct {
	Month    core.MonthKey
	UploadID string
}

// ParseSelectionParams reads month and upload from query parameters. An empty
// month is allowed and means "most recent"; a malformed one is an error.
func ParseSelectionParams(query url.Values) (SelectionParams, error) {
	params := SelectionParams{
		UploadID: sanitizeInput(query.Get(paramUpload)),
	}
	if v := sanitizeInput(query.Get(paramMonth)); v != "" {
		m, err := core.ParseMonthKey(v)
		if err != nil {
			return params, err
		}
		params.Month = m
	}
	return params, nil
}

// UploadedFile is a file read from a multipart request.
type UploadedFile struct {
	Name string
	Data []byte
}

// ReadUploadedFile reads the "file" field of a multipart form, enforcing
// maxBytes on the whole body and the allowed extensions.
func ReadUploadedFile(w http.ResponseWriter, r *http.Request, maxBytes int64) (UploadedFile, error) {
	// Multipart framing adds a little on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+64<<10)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return UploadedFile{}, ErrFileTooLarge
		}
		return UploadedFile{}, fmt.Errorf("parse multipart form: %w", err)
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	file, header, err := r.FormFile(fieldFile)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return UploadedFile{}, ErrNoFile
		}
		return UploadedFile{}, fmt.Errorf("read form file: %w", err)
	}
	defer file.Close()

	name := filepath.Base(sanitizeInput(header.Filename))
	if !allowedUploadExt[strings.ToLower(filepath.Ext(name))] {
		return UploadedFile{}, ErrUnsupportedFile
	}
	if header.Size > maxBytes {
		return UploadedFile{}, ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return UploadedFile{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxBytes {
		return UploadedFile{}, ErrFileTooLarge
	}
	if len(data) == 0 {
		return UploadedFile{}, ErrNoFile
	}
	return UploadedFile{Name: name, Data: data}, nil
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(r *http.Request, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}

// RequireGET is a convenience function for read-only handlers. HEAD is allowed too.
func RequireGET(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodGet, http.MethodHead)
}

// RequirePOST is a convenience function for POST-only handlers.
func RequirePOST(r *http.Request) *HTMXResponseBuilder {
	return RequireMethod(r, http.MethodPost)
}
