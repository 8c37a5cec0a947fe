package export

import "fmt"

// Format names a supported export encoding.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// Dataset defines tabular export content.
type Dataset struct {
	Title   string
	Headers []string
	Rows    []map[string]string
}

// Document is a rendered export ready to be served.
type Document struct {
	Filename    string
	ContentType string
	Body        []byte
}

// ParseFormat validates a user supplied format name.
func ParseFormat(raw string) (Format, error) {
	switch Format(raw) {
	case FormatCSV, "":
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// Render encodes the dataset in the requested format. baseName is used without extension.
func Render(format Format, baseName string, data Dataset) (*Document, error) {
	switch format {
	case FormatPDF:
		body, err := NewPDFExporter().Render(data)
		if err != nil {
			return nil, err
		}
		return &Document{Filename: baseName + ".pdf", ContentType: "application/pdf", Body: body}, nil
	case FormatCSV:
		body, err := renderCSV(data)
		if err != nil {
			return nil, err
		}
		return &Document{Filename: baseName + ".csv", ContentType: "text/csv", Body: body}, nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
