package session

import "strings"

// totalQuestions is the fixed length of the symptom questionnaire.
const totalQuestions = 7

// symptomQuestions are the questions asked during symptom discovery, in
// order. The ordinal of a question is its index plus one.
var symptomQuestions = []string{
	"When did the issue start? (e.g., 'yesterday', 'last week', 'a month ago')",
	"Describe the exact symptoms (e.g., no water, error codes, noises, not heating)",
	"Any recent changes? (e.g., power surge, moved, new parts, recent service)",
	"Are there any error codes displayed? (If yes, list all of them)",
	"Under what conditions does it happen? (e.g., cold start, after cycle, continuously)",
	"What troubleshooting have you already tried? (e.g., restarted, checked connections)",
	"Environment details? (installation location, water pressure, electrical stability)",
}

// symptomLabels are the summary labels per ordinal.
var symptomLabels = []string{
	"Start date",
	"Symptoms",
	"Recent changes",
	"Error codes",
	"Conditions",
	"Troubleshooting tried",
	"Environment",
}

// symptomSummary builds the labeled multi-line summary of collected answers.
func symptomSummary(answers map[int]string) string {
	var lines []string
	for ordinal := 1; ordinal <= totalQuestions; ordinal++ {
		if answer, ok := answers[ordinal]; ok {
			lines = append(lines, "- "+symptomLabels[ordinal-1]+": "+answer)
		}
	}
	if len(lines) == 0 {
		return "No symptoms recorded"
	}
	return strings.Join(lines, "\n")
}
