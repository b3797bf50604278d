package models

import "fmt"

// Document is one patient note to run extraction tasks against.
type Document struct {
	PatientID string `json:"patientId"`
	Text      string `json:"text"`
}

// Content renders the document as the text block handed to a task,
// prefixing the patient identifier so the model can fill the patient_id
// column.
func (d Document) Content() string {
	if d.PatientID == "" {
		return d.Text
	}
	return fmt.Sprintf("Patient: %s\n\n%s", d.PatientID, d.Text)
}
