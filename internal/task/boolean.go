package task

import (
	"fmt"
	"strings"

	"medminer/internal/tool"
	"medminer/internal/vocab"
)

const booleanPrompt = `Given a medical information of a patient, extract all patients which information match a given filter query. These are the steps you should follow to complete the task:

1. Check if the medical information of the patient matches the filter query.
2. save the information as csv with the columns defined below.
3a. If the patient information contains a list of medications, extract the medications from the text. The medication can be in any language.
3b. If the medication name is not in english, translate it to english and infer the name. Correct any misspellings in the process. Use the following format "Brand name or medication name (active ingredient)". e.g. "Aspirin (acetylsalicylic acid)".
3c. get the RXCUI for all medications. Use the active ingredient of the medications. If there are multiple RXCUI codes, choose the one that fits the best to the translated medication. Usually, the first candidate with a score of 1 is the best choice, but you can decide otherwise if you have reasonable grounds for another decision. If there are no codes, write an empty string.
3d. get the VA code and information for all medications. Use the rxcui of the medications.
3e. look if the VA code of one of the medications matches the filter query.
4. If the patient information contains a list of procedures, extract the procedures from the text and look if the procedure name matches the filter query.
5. If the patient information contains a list of diagnoses, extract the diagnoses from the text and look if the diagnosis name matches the filter query.
6. Save every patient only once. If the patient information not matches the filter query, save the patient information as well but set the patient_filter to false.

Example 1:
    Query: "return all patients which where given antibiotics"
    Input: "Patient 1: Doxycyclin 200 mg  0-1-0"
    Output: [
        {"patient_id": 1, "patient_filter": true, "patient_information": "Doxycyclin 200 mg  0-1-0", "filter_reference": "Doxycyclin"},
    ]

save the following columns:
- patient_id: The patient ID.
- patient_filter: True if the patient information matches the filter query, false otherwise.
- patient_information: The medical information of the patient that matched the query.
- filter_reference: The part of the text that was relevant for your decision in filtering. If not applicable, write an empty string.
`

// BooleanTask filters patients against a free-text query, resolving
// medications through RxNorm and the VA drug classes where needed. The query
// itself is a task-level setting embedded into the prompt.
func BooleanTask(rx *vocab.RxNormClient) *Definition {
	return &Definition{
		Name:        "boolean",
		VerboseName: "Filter",
		Prompt:      booleanPrompt,
		Tools: []tool.Descriptor{
			tool.CSV(),
			tool.Ready(tool.NewRxCUITool(rx)),
			tool.Ready(tool.NewVATool(rx)),
		},
		ExtraSettings: []tool.Setting{
			{ID: "boolean_query", Label: "Filter Query", Type: tool.TypeString},
		},
		BuildPrompt: booleanBuildPrompt,
	}
}

func booleanBuildPrompt(def *Definition, settings tool.Settings, data string) string {
	query, _ := settings["boolean_query"].(string)
	return fmt.Sprintf("Task name: %s\nPrompt: \n%s\n\nFilter query: %s\n\n%s\nData: \n%s\n",
		def.Name, Indent(def.Prompt), query, strings.Repeat("-", 80), Indent(data))
}
