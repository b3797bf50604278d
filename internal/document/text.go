package document

import (
	"fmt"
	"os"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"medminer/internal/models"
)

func loadText(path string) ([]models.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return []models.Document{{PatientID: stem(path), Text: string(content)}}, nil
}

// loadHTML converts the markup to markdown so the model sees readable text
// instead of tags.
func loadHTML(path string) ([]models.Document, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	text, err := htmltomarkdown.ConvertString(string(content))
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", path, err)
	}
	return []models.Document{{PatientID: stem(path), Text: text}}, nil
}
