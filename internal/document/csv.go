package document

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"medminer/internal/models"
)

// idColumns are tried in order when picking the patient id of a CSV row.
var idColumns = []string{"patient_id", "id"}

// LoadCSVColumn reads one document per row of a CSV file, taking the text
// from the named column. The patient id comes from a patient_id or id
// column when present, otherwise from the 1-based row number.
func LoadCSVColumn(path, column string) ([]models.Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s is empty", path)
	}

	header := records[0]
	textIdx := -1
	idIdx := -1
	for i, name := range header {
		if name == column {
			textIdx = i
		}
	}
	if textIdx < 0 {
		return nil, fmt.Errorf("%s has no column %q", path, column)
	}
	for _, candidate := range idColumns {
		for i, name := range header {
			if name == candidate {
				idIdx = i
				break
			}
		}
		if idIdx >= 0 {
			break
		}
	}

	var docs []models.Document
	for row, record := range records[1:] {
		if textIdx >= len(record) {
			continue
		}
		id := strconv.Itoa(row + 1)
		if idIdx >= 0 && idIdx < len(record) {
			id = record[idIdx]
		}
		docs = append(docs, models.Document{PatientID: id, Text: record[textIdx]})
	}
	return docs, nil
}
