package google

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"

	"gastos/internal/core"
)

func TestParseValues(t *testing.T) {
	values := [][]interface{}{
		{"data", "valor", "categoria"},
		{"03/01/2024", -50.0, "food"},
		{"03/05/2024", -20.25, " food "},
		{"03/10/2024", 100.0},
		{},
	}
	tbl, err := parseValues(values)
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, "-20.25", tbl.Rows[1]["valor"])
	assert.Equal(t, "food", tbl.Rows[1]["categoria"])
	assert.Equal(t, "", tbl.Rows[2]["categoria"], "short rows are padded")

	_, ov, err := core.Run(tbl, "2024-03")
	require.NoError(t, err)
	require.Len(t, ov.ByCategory, 1)
	assert.Equal(t, "-70.25", ov.ByCategory[0].Total.String())
}

func TestParseValues_Empty(t *testing.T) {
	_, err := parseValues(nil)
	assert.Error(t, err)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(context.Background(), Config{APIKey: "k"})
	assert.Error(t, err, "missing spreadsheet id")

	_, err = New(context.Background(), Config{SpreadsheetID: "id"})
	assert.Error(t, err, "missing api key")
}

func TestReadRange(t *testing.T) {
	c := &Client{}
	assert.Equal(t, "A:Z", c.readRange())

	c.sheetName = "Gastos d'agua"
	assert.Equal(t, "'Gastos d''agua'!A:Z", c.readRange())
}

func TestClient_ReadTable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/spreadsheets/sheet-id/values/") {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("key") != "test-key" {
			http.Error(w, "missing key", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"range":"Sheet1!A1:C3","majorDimension":"ROWS","values":[` +
			`["data","valor","categoria"],["2024-03-01",-50,"food"],["2024-03-02",-5,"bus"]]}`))
	}))
	defer ts.Close()

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-id", APIKey: "test-key"},
		goption.WithEndpoint(ts.URL+"/"))
	require.NoError(t, err)

	tbl, err := c.ReadTable(context.Background())
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "bus", tbl.Rows[1]["categoria"])
}

func TestClient_ReadTable_ErrorIsLoadError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"forbidden"}}`, http.StatusForbidden)
	}))
	defer ts.Close()

	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-id", APIKey: "k"},
		goption.WithEndpoint(ts.URL+"/"))
	require.NoError(t, err)

	_, err = c.ReadTable(context.Background())
	assert.True(t, core.IsLoadError(err))
}
