package csvexport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"gastos/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	in := "\xEF\xBB\xBFdata, valor ,categoria,extra\n" +
		"2024-03-01,-50,food,x\n" +
		"\n" +
		"2024-03-05,\"-1.234,56\",\"rent \"\"home\"\"\"\n" +
		",,,\n" +
		"2024-03-07,-3\n"

	tbl, err := Decode(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"data", "valor", "categoria", "extra"}, tbl.Columns)
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, "-1.234,56", tbl.Rows[1]["valor"])
	assert.Equal(t, `rent "home"`, tbl.Rows[1]["categoria"])
	assert.Equal(t, "", tbl.Rows[1]["extra"])
	assert.Equal(t, "", tbl.Rows[2]["categoria"])
}

func TestDecode_Empty(t *testing.T) {
	_, err := Decode(strings.NewReader("  \n"))
	assert.ErrorIs(t, err, ErrEmptyCSV)
}

func TestDecode_HeaderOnly(t *testing.T) {
	tbl, err := Decode(strings.NewReader("data,valor,categoria\n"))
	require.NoError(t, err)
	assert.Len(t, tbl.Columns, 3)
	assert.Empty(t, tbl.Rows)
}

func TestDecode_RecordLimit(t *testing.T) {
	prev := maxRecordsPerCSV
	maxRecordsPerCSV = 3
	t.Cleanup(func() { maxRecordsPerCSV = prev })

	tbl, err := Decode(strings.NewReader("data,valor,categoria\n2024-03-01,-1,a\n2024-03-02,-2,b\n"))
	require.NoError(t, err)
	assert.Len(t, tbl.Rows, 2)

	_, err = Decode(strings.NewReader("data,valor,categoria\n2024-03-01,-1,a\n2024-03-02,-2,b\n2024-03-03,-3,c\n"))
	assert.ErrorIs(t, err, ErrTooManyRows)
}

type failAfter struct {
	r   io.Reader
	err error
}

func (f *failAfter) Read(p []byte) (int, error) {
	n, err := f.r.Read(p)
	if errors.Is(err, io.EOF) {
		return n, f.err
	}
	return n, err
}

func TestDecode_StopsOnReadError(t *testing.T) {
	boom := errors.New("connection reset")
	src := &failAfter{r: strings.NewReader("data,valor,categoria\n2024-03-01,-1,a\n"), err: boom}

	_, err := Decode(src)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestDecode_SkipsBlankLinesBeforeHeader(t *testing.T) {
	tbl, err := Decode(strings.NewReader(" , \ndata,valor,categoria\n2024-03-01,-1,a\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"data", "valor", "categoria"}, tbl.Columns)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "a", tbl.Rows[0]["categoria"])
}

func TestFromRecords(t *testing.T) {
	tbl := FromRecords([][]string{
		{" data", "valor ", "categoria"},
		{"2024-03-01", "-1"},
		{"", " ", ""},
	})
	assert.Equal(t, []string{"data", "valor", "categoria"}, tbl.Columns)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, core.RawRow{"data": "2024-03-01", "valor": "-1", "categoria": ""}, tbl.Rows[0])

	assert.Empty(t, FromRecords(nil).Columns)
}

func TestNew_RejectsNonHTTP(t *testing.T) {
	_, err := New("ftp://example.com/x.csv", 0)
	assert.Error(t, err)
	_, err = New("://bad", 0)
	assert.Error(t, err)
}

func TestClient_ReadTable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "csv", r.URL.Query().Get("format"))
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("data,valor,categoria\n2024-03-01,-50,food\n"))
	}))
	defer ts.Close()

	c, err := New(ts.URL+"/export?format=csv", time.Second)
	require.NoError(t, err)
	c.httpClient = ts.Client()

	tbl, err := c.ReadTable(context.Background())
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "food", tbl.Rows[0]["categoria"])
	assert.Equal(t, strings.TrimPrefix(ts.URL, "http://"), c.Describe())
}

func TestClient_ReadTable_Errors(t *testing.T) {
	t.Run("status", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusNotFound)
		}))
		defer ts.Close()

		c, err := New(ts.URL, time.Second)
		require.NoError(t, err)
		_, err = c.ReadTable(context.Background())

		var le *core.LoadError
		require.True(t, errors.As(err, &le))
		assert.Contains(t, err.Error(), "404")
	})

	t.Run("unreachable", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		url := ts.URL
		ts.Close()

		c, err := New(url, time.Second)
		require.NoError(t, err)
		_, err = c.ReadTable(context.Background())
		assert.True(t, core.IsLoadError(err))
	})

	t.Run("empty body", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		defer ts.Close()

		c, err := New(ts.URL, time.Second)
		require.NoError(t, err)
		_, err = c.ReadTable(context.Background())
		assert.ErrorIs(t, err, ErrEmptyCSV)
	})

	t.Run("body over the limit", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("data,valor,categoria\n"))
			for i := 0; i < 200; i++ {
				_, _ = w.Write([]byte("2024-03-01,-125,mercado\n"))
			}
		}))
		defer ts.Close()

		c, err := New(ts.URL, time.Second)
		require.NoError(t, err)
		c.maxBytes = 1024

		tbl, err := c.ReadTable(context.Background())
		assert.ErrorIs(t, err, ErrExportTooLarge)
		assert.True(t, core.IsLoadError(err))
		assert.Empty(t, tbl.Rows)
	})
}

func TestClient_ReadTable_AtLimit(t *testing.T) {
	body := "data,valor,categoria\n2024-03-01,-125,mercado\n"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer ts.Close()

	c, err := New(ts.URL, time.Second)
	require.NoError(t, err)
	c.maxBytes = int64(len(body))

	tbl, err := c.ReadTable(context.Background())
	require.NoError(t, err)
	require.Len(t, tbl.Rows, 1)
	assert.Equal(t, "-125", tbl.Rows[0]["valor"])
}
