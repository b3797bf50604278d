package task

import (
	"medminer/internal/tool"
	"medminer/internal/vocab"
)

var extractMedication = tool.NewEchoTool(
	"extract_medication_data",
	"Stages the medications extracted from the document so they can be normalized and saved.",
	"One extracted medication with its name, dose, unit and dosage scheme.",
)

const medicationPrompt = `Given a list of medications, save all medications for the patient as csv.
To complete the task make the following steps:
1. extract all information defined in the columns below from the document. Infer the medication_name_corrected column.
2. get the RXCUI for all medications. Use the active ingredient of the medications. Usually the first candidate is the best choice. If there are no codes, write an empty string.
3. get the ATC code for all medications. Use the RXCUI of the medications.
4. save the medication information as csv with the columns defined below.

Columns:
- patient_id: The patient ID.
- medication_name: The name of the medication in the document without dose, unit or additional information.
- medication_name_corrected: Use the following format "Brand name or medication name (active ingredient)". e.g. "Aspirin (acetylsalicylic acid)".
- dose: The dose of the medication. this should only contain the numeric value.
- unit: The unit of the dose (e.g. ml, mg, ...). if not applicable, write an empty string.
- dosage_morning: The dose in the morning. if not applicable, write a 0.
- dosage_noon: The dose in the noon. if not applicable, write a 0.
- dosage_evening: The dose in the evening. if not applicable, write a 0.
- dosage_night: The dose in the night. if not applicable, write a 0.
- dosage_information: Additional information about the dosage. if not applicable, write an empty string.
- atc_id: The ATC code of the medication. if not applicable, write an empty string.
- atc_name: The name of the ATC code. if not applicable, write an empty string.
- atc_type: The type of the ATC code. if not applicable, write an empty string.
`

// MedicationTask extracts the medication list of a patient, normalizes the
// names against RxNorm and attaches the ATC classification.
func MedicationTask(rx *vocab.RxNormClient) *Definition {
	return &Definition{
		Name:        "medication",
		VerboseName: "Medications",
		Prompt:      medicationPrompt,
		Tools: []tool.Descriptor{
			tool.CSV(),
			tool.Ready(tool.NewRxCUITool(rx)),
			tool.Ready(tool.NewATCTool(rx)),
			tool.Ready(extractMedication),
		},
	}
}
