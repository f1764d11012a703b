package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scheduleDataset() Dataset {
	return Dataset{
		Title:   "Schedule for alice",
		Headers: []string{"course_code", "course_title"},
		Rows: []map[string]string{
			{"course_code": "CSCI-101", "course_title": "Intro to Programming"},
			{"course_code": "MATH-121", "course_title": "Calculus I, Section A"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(scheduleDataset())
	require.NoError(t, err)

	expected := "course_code,course_title\nCSCI-101,Intro to Programming\nMATH-121,\"Calculus I, Section A\"\n"
	assert.Equal(t, expected, string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(scheduleDataset(), "Schedule")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestRendererDispatchesByFormat(t *testing.T) {
	r := NewRenderer()

	csvOut, err := r.Render(FormatCSV, scheduleDataset())
	require.NoError(t, err)
	assert.Contains(t, string(csvOut), "CSCI-101")

	pdfOut, err := r.Render(FormatPDF, scheduleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdfOut, []byte("%PDF-")))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat(" PDF ")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)
	assert.Equal(t, "application/pdf", f.ContentType())

	f, err = ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("xlsx")
	assert.Error(t, err)
}
