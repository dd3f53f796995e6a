package pipeline

import (
	"text2phenotype.com/qde/types"
	"sort"
	"time"
)

type ConflictResolver func(findings []types.DetectedFinding, asOf time.Time) ([]types.DetectedFinding, []types.ConflictRecord)

// NewConflictResolver keeps one finding per term. Contradicting statements
// are settled by specialist priority, then by a visit inside the recency
// window, then by the later visit; anything else becomes a ConflictRecord and
// the present statement is kept.
func NewConflictResolver(recencyWindowMonths int) ConflictResolver {
	return func(findings []types.DetectedFinding, asOf time.Time) ([]types.DetectedFinding, []types.ConflictRecord) {
		cutoff := asOf.AddDate(0, -recencyWindowMonths, 0)

		groups := make(map[int][]types.DetectedFinding)
		var order []int
		for _, finding := range findings {
			if _, ok := groups[finding.TermIndex]; !ok {
				order = append(order, finding.TermIndex)
			}
			groups[finding.TermIndex] = append(groups[finding.TermIndex], finding)
		}
		sort.Ints(order)

		resolved := make([]types.DetectedFinding, 0, len(order))
		conflicts := make([]types.ConflictRecord, 0)
		for _, termIndex := range order {
			var present, other []types.DetectedFinding
			for _, finding := range groups[termIndex] {
				if finding.IsPresent {
					present = append(present, finding)
				} else {
					other = append(other, finding)
				}
			}

			switch {
			case len(other) == 0:
				resolved = append(resolved, mostCredible(present))
			case len(present) == 0:
				resolved = append(resolved, mostCredible(other))
			default:
				winner, conflict := settle(mostCredible(present), mostCredible(other), cutoff)
				resolved = append(resolved, winner)
				if conflict != nil {
					conflicts = append(conflicts, *conflict)
				}
			}
		}
		return resolved, conflicts
	}
}

// mostCredible returns the lowest priority number; the earliest finding wins
// ties.
func mostCredible(findings []types.DetectedFinding) types.DetectedFinding {
	best := findings[0]
	for _, finding := range findings[1:] {
		if finding.Priority < best.Priority {
			best = finding
		}
	}
	return best
}

func settle(present types.DetectedFinding, absent types.DetectedFinding, cutoff time.Time) (types.DetectedFinding, *types.ConflictRecord) {
	if present.Priority != absent.Priority {
		if present.Priority < absent.Priority {
			return present, nil
		}
		return absent, nil
	}

	presentRecent, absentRecent := isRecent(present.Date, cutoff), isRecent(absent.Date, cutoff)
	if presentRecent != absentRecent {
		if presentRecent {
			return present, nil
		}
		return absent, nil
	}

	if present.Date.Valid() && absent.Date.Valid() && !present.Date.Equal(absent.Date.Time) {
		if present.Date.After(absent.Date.Time) {
			return present, nil
		}
		return absent, nil
	}

	return present, &types.ConflictRecord{
		Term: present.Term,
		Sources: []types.ConflictSource{
			{
				Specialty:  present.SpecialtyLabel(),
				Assessment: types.AssessmentPresent,
				Date:       present.Date,
				DateText:   present.DateText,
			},
			{
				Specialty:  absent.SpecialtyLabel(),
				Assessment: types.AssessmentAbsent,
				Date:       absent.Date,
				DateText:   absent.DateText,
			},
		},
	}
}

func isRecent(date types.Date, cutoff time.Time) bool {
	return date.Valid() && !date.Before(cutoff)
}
