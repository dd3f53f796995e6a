package pipeline

import (
	"text2phenotype.com/qde/types"
	"text2phenotype.com/qde/vocabulary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"strings"
	"testing"
	"time"
)

func sectionTexts(sections []types.NoteSection) []string {
	texts := make([]string, len(sections))
	for i, section := range sections {
		texts[i] = section.Text
	}
	return texts
}

func TestSplitterDelimiterClasses(t *testing.T) {
	split := NewSectionSplitter(50)
	vocab := vocabulary.Default()

	first := "Primary care follow up: blood pressure controlled on current regimen."
	second := "Cardiology consult: reports exertional chest pain for three weeks now."

	cases := []struct {
		name     string
		text     string
		expected []string
	}{
		{"no delimiter", first, []string{first}},
		{"rule marker", first + "\n=====\n" + second, []string{first, second}},
		{"heading", first + "\n" + second, []string{first, second}},
		{"date of service", first + " Date of Service: 02/02/2024 " + strings.TrimPrefix(second, "Cardiology consult: "),
			[]string{first, "Date of Service: 02/02/2024 reports exertional chest pain for three weeks now."}},
		{"short piece keeps whole", "Short note.\n---\n" + second, []string{"Short note.\n---\n" + second}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sections := split(tc.text, vocab)
			require.Equal(t, tc.expected, sectionTexts(sections))
			for i, section := range sections {
				require.Equal(t, i, section.Index)
				require.Equal(t, tc.text[section.Begin:section.End], section.Text)
			}
		})
	}
}

func TestSplitterProvenance(t *testing.T) {
	split := NewSectionSplitter(50)
	text := "ED visit on 02/03/2024, Date: 02/04/2024, evaluated by Dr. Nora Quinn for palpitations."
	sections := split(text, vocabulary.Default())
	require.Len(t, sections, 1)

	section := sections[0]
	require.Equal(t, "Emergency Medicine", section.Specialty)
	require.Equal(t, 2, section.Priority())
	require.Equal(t, "Nora Quinn", section.Provider)
	require.Equal(t, "02/04/2024", section.DateText)
}

func finding(term string, category vocabulary.Category, weight int, termIndex int) types.DetectedFinding {
	return types.DetectedFinding{
		Term:      term,
		Category:  category,
		Weight:    weight,
		TermIndex: termIndex,
		Priority:  vocabulary.UnknownPriority,
	}
}

func present(f types.DetectedFinding) types.DetectedFinding {
	f.IsPresent, f.IsExplicitlyConfirmed = true, true
	return f
}

func negated(f types.DetectedFinding) types.DetectedFinding {
	f.IsNegated = true
	return f
}

func uncertain(f types.DetectedFinding) types.DetectedFinding {
	f.IsUncertain = true
	return f
}

func from(f types.DetectedFinding, specialty string, priority int, date string) types.DetectedFinding {
	f.Specialty, f.Priority = specialty, priority
	if date != "" {
		parsed, err := time.Parse(types.DateLayout, date)
		if err != nil {
			panic(err)
		}
		f.Date, f.DateText = types.NewDate(parsed), date
	}
	return f
}

func TestResolver(t *testing.T) {
	resolve := NewConflictResolver(6)
	chf := finding("Congestive Heart Failure", vocabulary.CategoryHistory, 5, 2)

	cases := []struct {
		name        string
		findings    []types.DetectedFinding
		wantPresent bool
		wantSource  string
		conflicts   int
	}{
		{"priority wins", []types.DetectedFinding{
			negated(from(chf, "Cardiology", 1, "")),
			present(from(chf, "Primary Care", 3, "2024-05-01")),
		}, false, "Cardiology", 0},
		{"known specialist beats unknown", []types.DetectedFinding{
			present(chf),
			negated(from(chf, "Orthopedics", 4, "")),
		}, false, "Orthopedics", 0},
		{"recent visit wins", []types.DetectedFinding{
			negated(from(chf, "Cardiology", 1, "2023-01-10")),
			present(from(chf, "Cardiology", 1, "2024-03-01")),
		}, true, "Cardiology", 0},
		{"later visit wins outside window", []types.DetectedFinding{
			present(from(chf, "Cardiology", 1, "2021-01-10")),
			negated(from(chf, "Cardiology", 1, "2022-07-01")),
		}, false, "Cardiology", 0},
		{"undated tie is a conflict", []types.DetectedFinding{
			present(from(chf, "Cardiology", 1, "2020-05-01")),
			negated(from(chf, "Cardiology", 1, "")),
		}, true, "Cardiology", 1},
		{"same date is a conflict", []types.DetectedFinding{
			uncertain(from(chf, "", vocabulary.UnknownPriority, "2024-05-01")),
			present(from(chf, "", vocabulary.UnknownPriority, "2024-05-01")),
		}, true, "", 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resolved, conflicts := resolve(tc.findings, asOf)
			require.Len(t, resolved, 1)
			require.Equal(t, tc.wantPresent, resolved[0].IsPresent)
			require.Equal(t, tc.wantSource, resolved[0].Specialty)
			require.Len(t, conflicts, tc.conflicts)
		})
	}
}

func TestResolverUnknownSpecialtyLabel(t *testing.T) {
	resolve := NewConflictResolver(6)
	chf := finding("Congestive Heart Failure", vocabulary.CategoryHistory, 5, 2)
	_, conflicts := resolve([]types.DetectedFinding{present(chf), negated(chf)}, asOf)
	require.Len(t, conflicts, 1)
	require.Equal(t, "Unknown", conflicts[0].Sources[0].Specialty)
	require.Equal(t, types.AssessmentAbsent, conflicts[0].Sources[1].Assessment)
}

func TestResolverKeepsVocabularyOrder(t *testing.T) {
	resolve := NewConflictResolver(6)
	resolved, _ := resolve([]types.DetectedFinding{
		present(finding("Dyspnea", vocabulary.CategorySymptom, 3, 20)),
		present(from(finding("Chest Pain", vocabulary.CategorySymptom, 4, 19), "Primary Care", 3, "")),
		present(from(finding("Chest Pain", vocabulary.CategorySymptom, 4, 19), "Cardiology", 1, "")),
		present(from(finding("Chest Pain", vocabulary.CategorySymptom, 4, 19), "Internal Medicine", 1, "")),
	}, asOf)
	require.Len(t, resolved, 2)
	require.Equal(t, "Chest Pain", resolved[0].Term)
	require.Equal(t, "Cardiology", resolved[0].Specialty)
	require.Equal(t, "Dyspnea", resolved[1].Term)
}

func TestDecisionChain(t *testing.T) {
	decide := NewDecisionEngine(types.DefaultParams().Rules)

	mi := finding("Myocardial Infarction", vocabulary.CategoryHistory, 5, 0)
	ekg := finding("Abnormal EKG", vocabulary.CategoryFinding, 5, 7)
	chestPain := finding("Chest Pain", vocabulary.CategorySymptom, 4, 14)
	dyspnea := finding("Dyspnea", vocabulary.CategorySymptom, 3, 15)
	htn := finding("Hypertension", vocabulary.CategoryRiskFactor, 2, 21)
	hld := finding("Hyperlipidemia", vocabulary.CategoryRiskFactor, 2, 22)
	dm := finding("Diabetes", vocabulary.CategoryRiskFactor, 2, 23)
	obesity := finding("Obesity", vocabulary.CategoryRiskFactor, 1, 25)
	conflict := []types.ConflictRecord{{Term: "x"}}

	cases := []struct {
		name       string
		resolved   []types.DetectedFinding
		conflicts  []types.ConflictRecord
		status     types.Status
		confidence types.ConfidenceLevel
		primary    string
	}{
		{"history qualifies", []types.DetectedFinding{present(from(mi, "Cardiology", 1, ""))}, nil,
			types.StatusQualified, types.ConfidenceHigh, "Myocardial Infarction"},
		{"finding qualifies with conflicts", []types.DetectedFinding{present(from(ekg, "Cardiology", 1, ""))}, conflict,
			types.StatusQualified, types.ConfidenceMedium, "Abnormal EKG"},
		{"two symptoms", []types.DetectedFinding{present(chestPain), present(dyspnea)}, nil,
			types.StatusQualified, types.ConfidenceMedium, "Chest Pain"},
		{"symptom from high priority source", []types.DetectedFinding{present(from(dyspnea, "Internal Medicine", 2, ""))}, nil,
			types.StatusQualified, types.ConfidenceHigh, "Dyspnea"},
		{"risk factors plus symptom", []types.DetectedFinding{present(dyspnea), present(htn), present(hld), present(obesity)}, nil,
			types.StatusQualified, types.ConfidenceMedium, "Dyspnea"},
		{"conflict needs review", []types.DetectedFinding{present(htn)}, conflict,
			types.StatusReviewNeeded, types.ConfidenceLow, "Hypertension"},
		{"single symptom needs review", []types.DetectedFinding{present(dyspnea), present(htn)}, nil,
			types.StatusReviewNeeded, types.ConfidenceLow, "Dyspnea"},
		{"weighted risk factors need review", []types.DetectedFinding{present(htn), present(hld), present(dm)}, nil,
			types.StatusReviewNeeded, types.ConfidenceLow, "Hypertension"},
		{"uncertain alongside confirmed", []types.DetectedFinding{uncertain(mi), present(htn)}, nil,
			types.StatusReviewNeeded, types.ConfidenceLow, "Hypertension"},
		{"not qualified", []types.DetectedFinding{present(htn), present(obesity), negated(mi)}, nil,
			types.StatusNotQualified, types.ConfidenceMedium, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			result := decide(tc.resolved, tc.conflicts, tc.resolved)
			assert.Equal(t, tc.status, result.Status)
			assert.Equal(t, tc.confidence, result.Confidence)
			if tc.primary == "" {
				assert.Nil(t, result.PrimaryIndication)
			} else if assert.NotNil(t, result.PrimaryIndication) {
				assert.Equal(t, tc.primary, *result.PrimaryIndication)
			}
		})
	}
}

func TestDecisionInsufficientReasons(t *testing.T) {
	decide := NewDecisionEngine(types.DefaultParams().Rules)
	mi := finding("Myocardial Infarction", vocabulary.CategoryHistory, 5, 0)
	acs := finding("Acute Coronary Syndrome", vocabulary.CategoryHistory, 5, 3)
	htn := finding("Hypertension", vocabulary.CategoryRiskFactor, 2, 21)

	findings := []types.DetectedFinding{negated(mi), uncertain(acs)}
	result := decide(findings, nil, findings)
	require.Equal(t, types.StatusInsufficientInformation, result.Status)
	require.Equal(t, "Uncertain findings require explicit confirmation: Acute Coronary Syndrome.", result.Reason)

	findings = []types.DetectedFinding{negated(mi), negated(uncertain(acs)), negated(mi)}
	result = decide(findings, nil, findings)
	require.Equal(t, "Only denied or negated findings were documented: Myocardial Infarction, Acute Coronary Syndrome.", result.Reason)

	findings = []types.DetectedFinding{negated(mi), htn}
	result = decide(findings, nil, findings)
	require.Equal(t, reasonNoEvidence, result.Reason)

	result = decide(nil, nil, nil)
	require.Equal(t, reasonNoEvidence, result.Reason)
	require.Equal(t, types.ConfidenceLow, result.Confidence)
	require.NotNil(t, result.Conflicts)
}

func TestInsufficientReasonLooksAtEveryDetection(t *testing.T) {
	decide := NewDecisionEngine(types.DefaultParams().Rules)
	chestPain := finding("Chest Pain", vocabulary.CategorySymptom, 4, 14)
	mi := finding("Myocardial Infarction", vocabulary.CategoryHistory, 5, 0)

	// resolution kept only the denial, but an unqualified mention exists
	resolved := []types.DetectedFinding{negated(chestPain)}
	result := decide(resolved, nil, []types.DetectedFinding{negated(chestPain), chestPain})
	require.Equal(t, types.StatusInsufficientInformation, result.Status)
	require.Equal(t, reasonNoEvidence, result.Reason)

	// an uncertain mention is reported even when resolution dropped it
	resolved = []types.DetectedFinding{negated(mi)}
	result = decide(resolved, nil, []types.DetectedFinding{uncertain(mi), negated(mi)})
	require.Equal(t, "Uncertain findings require explicit confirmation: Myocardial Infarction.", result.Reason)
}

func TestCitationsKeepBestPriority(t *testing.T) {
	decide := NewDecisionEngine(types.DefaultParams().Rules)
	chestPain := finding("Chest Pain", vocabulary.CategorySymptom, 4, 14)

	resolvedPain := present(from(chestPain, "Primary Care", 3, "2024-01-01"))
	detections := []types.DetectedFinding{
		resolvedPain,
		present(from(chestPain, "Cardiology", 1, "2024-02-01")),
		negated(from(chestPain, "Cardiothoracic Surgery", 1, "")),
	}
	result := decide([]types.DetectedFinding{resolvedPain}, nil, detections)
	require.Len(t, result.Citations, 1)
	require.Equal(t, "Cardiology", result.Citations[0].Specialty)
	require.Equal(t, 1, result.Citations[0].Priority)
	require.Equal(t, "2024-02-01", result.Citations[0].Date.String())
}

func TestConfidenceScore(t *testing.T) {
	params := types.DefaultParams().Confidence
	cases := []struct {
		finding  types.DetectedFinding
		known    bool
		expected float64
	}{
		{types.DetectedFinding{IsPresent: true, Priority: 1}, true, 0.98},
		{types.DetectedFinding{IsPresent: true, Priority: vocabulary.UnknownPriority}, false, 0.9},
		{types.DetectedFinding{IsNegated: true, Priority: 4}, true, 0.87},
		{types.DetectedFinding{IsUncertain: true, Priority: 2}, true, 0.46},
		{types.DetectedFinding{Priority: vocabulary.UnknownPriority}, false, 0.3},
	}
	for _, tc := range cases {
		require.InDelta(t, tc.expected, confidence(tc.finding, tc.known, params), 1e-9)
	}
}

func TestSnippetRespectsRunes(t *testing.T) {
	text := "ééé chest pain ééé"
	got := snippet(text, 7, 17, 2)
	require.Equal(t, "é chest pain é", got)
}
