package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func rosterDataset() Dataset {
	return Dataset{
		Title:   "Student roster",
		Headers: []string{"enrollment_number", "full_name"},
		Rows: []map[string]string{
			{"enrollment_number": "UU202400042", "full_name": "Ada Lovelace"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(rosterDataset())
	require.NoError(t, err)
	assert.Equal(t, "enrollment_number,full_name\nUU202400042,Ada Lovelace\n", string(out))
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(rosterDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestXLSXExporterRender(t *testing.T) {
	out, err := NewXLSXExporter().Render(rosterDataset())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Export")
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"enrollment_number", "full_name"},
		{"UU202400042", "Ada Lovelace"},
	}, rows)
}

func TestExportersRequireHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewPDFExporter().Render(Dataset{})
	assert.Error(t, err)
	_, err = NewXLSXExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestForFormat(t *testing.T) {
	csv, ok := ForFormat("csv")
	require.True(t, ok)
	assert.Equal(t, "csv", csv.Extension())

	pdf, ok := ForFormat("pdf")
	require.True(t, ok)
	assert.Equal(t, "application/pdf", pdf.ContentType())

	xlsx, ok := ForFormat("xlsx")
	require.True(t, ok)
	assert.Equal(t, "xlsx", xlsx.Extension())

	_, ok = ForFormat("docx")
	assert.False(t, ok)
}
