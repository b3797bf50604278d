package document

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"

	"medminer/internal/models"
)

func loadPDF(path string) ([]models.Document, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return nil, fmt.Errorf("extract text from %s: %w", path, err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return nil, fmt.Errorf("read text from %s: %w", path, err)
	}

	return []models.Document{{PatientID: stem(path), Text: buf.String()}}, nil
}
