package xlsx

import (
	"bytes"
	"context"
	"testing"
	"time"

	"gastos/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func workbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	data := workbook(t, [][]any{
		{"data", "valor", "categoria"},
		{time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), -50, "food"},
		{"03/05/2024", -20.5, "food"},
		{"2024-04-01", 100, "salary"},
	})

	tbl, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []string{"data", "valor", "categoria"}, tbl.Columns)
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, "2024-03-01", tbl.Rows[0]["data"])
	assert.Equal(t, "-50", tbl.Rows[0]["valor"])
	assert.Equal(t, "03/05/2024", tbl.Rows[1]["data"])
	assert.Equal(t, "-20.5", tbl.Rows[1]["valor"])

	_, ov, err := core.Run(tbl, "2024-03")
	require.NoError(t, err)
	require.Len(t, ov.ByCategory, 1)
	assert.Equal(t, "food", ov.ByCategory[0].Category)
	assert.Equal(t, "-70.5", ov.ByCategory[0].Total.String())
}

func TestDecode_NotAWorkbook(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte("data,valor,categoria\n")))
	assert.Error(t, err)
}

func TestReader_WrapsLoadError(t *testing.T) {
	r := NewReader("gastos.xlsx", []byte("garbage"))
	_, err := r.ReadTable(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsLoadError(err))
	assert.Contains(t, err.Error(), "gastos.xlsx")
}

func TestReader_MissingColumnIsSchemaError(t *testing.T) {
	data := workbook(t, [][]any{
		{"data", "valor"},
		{"2024-03-01", -1},
	})
	tbl, err := NewReader("", data).ReadTable(context.Background())
	require.NoError(t, err)

	_, err = core.Prepare(tbl)
	assert.True(t, core.IsSchemaError(err))
}
