package task

import "medminer/internal/tool"

const diagnosePrompt = `Given a icu stay protocol of a patient, save all information as csv.
Make a column for each diagnosis.

save the the following columns:
- patient_id: The patient ID.
- diagnosis: The diagnosis of the medical history.
`

// DiagnoseTask dumps the diagnoses of an ICU stay protocol without any
// vocabulary normalization.
func DiagnoseTask() *Definition {
	return &Definition{
		Name:        "diagnose",
		VerboseName: "Diagnoses",
		Prompt:      diagnosePrompt,
		Tools:       []tool.Descriptor{tool.CSV()},
	}
}
