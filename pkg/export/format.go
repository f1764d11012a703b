package export

import (
	"fmt"
	"strings"
)

// Format names a supported export encoding.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat accepts "csv" or "pdf" in any case; blank means CSV.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unsupported export format %q", raw)
}

// ContentType returns the MIME type served for the format.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv"
}

// Dataset defines tabular export content.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
}

// Renderer renders datasets in both supported formats.
type Renderer struct {
	csv *CSVExporter
	pdf *PDFExporter
}

// NewRenderer builds a renderer backed by the CSV and PDF exporters.
func NewRenderer() *Renderer {
	return &Renderer{csv: NewCSVExporter(), pdf: NewPDFExporter()}
}

// Render encodes the dataset in the requested format.
func (r *Renderer) Render(format Format, data Dataset) ([]byte, error) {
	switch format {
	case FormatPDF:
		return r.pdf.Render(data, data.Title)
	case FormatCSV:
		return r.csv.Render(data)
	}
	return nil, fmt.Errorf("unsupported export format %q", format)
}
