package reviewer

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are a clinical documentation reviewer deciding whether the notes support a cardiac diagnostic procedure. " +
	"Report only what the notes state explicitly. Respond with strict JSON only."

const promptTemplate = `Review the clinical notes below.

Rules:
- A finding is CONFIRMED only when the notes explicitly state it is present (for example "positive for", "diagnosed with", "history of", "reports").
- A finding that is denied, ruled out, absent or preceded by "no" is NEGATED. Never report a negated finding as confirmed.
- A finding that is possible, suspected, to be ruled out or questioned is UNCERTAIN. Never report an uncertain finding as confirmed.
- Do not infer findings from medications, procedures or risk profiles. Do not guess.
- Use only these finding names, exactly as written: %s.
- qualification_status is one of Qualified, NotQualified, ReviewNeeded, InsufficientInformation.
- confidence is one of High, Medium, Low.
- If nothing is confirmed, qualification_status must be InsufficientInformation.

Respond with a single JSON object:
{"confirmed_findings": [], "negated_findings": [], "uncertain_findings": [], "qualification_status": "", "primary_indication": null, "confidence": "", "reasoning": "", "warnings": []}

Clinical notes:
<<<
%s
>>>`

func BuildPrompt(notes string, terms []string) string {
	quoted := make([]string, len(terms))
	for i, term := range terms {
		quoted[i] = fmt.Sprintf("%q", term)
	}
	return fmt.Sprintf(promptTemplate, strings.Join(quoted, ", "), notes)
}
