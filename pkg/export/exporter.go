package export

// Dataset defines tabular export content.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
}

// Exporter renders a dataset into a downloadable document.
type Exporter interface {
	Render(data Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// ForFormat returns the exporter registered for a format name.
func ForFormat(format string) (Exporter, bool) {
	switch format {
	case "csv":
		return NewCSVExporter(), true
	case "pdf":
		return NewPDFExporter(), true
	case "xlsx":
		return NewXLSXExporter(), true
	default:
		return nil, false
	}
}
