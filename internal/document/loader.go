package document

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"medminer/internal/models"
)

// Load reads one uploaded file into patient documents, dispatching on the
// detected content type. Plain text, PDF and HTML files become a single
// document whose patient id is the file stem.
func Load(path string) ([]models.Document, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("detect type of %s: %w", filepath.Base(path), err)
	}

	switch {
	case mtype.Is("application/pdf"):
		return loadPDF(path)
	case mtype.Is("text/html"):
		return loadHTML(path)
	case strings.HasPrefix(mtype.String(), "text/"):
		return loadText(path)
	default:
		return nil, fmt.Errorf("unsupported document type %s for %s", mtype.String(), filepath.Base(path))
	}
}

// stem is the file name without its extension, used as the fallback patient
// id for single-document files.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
