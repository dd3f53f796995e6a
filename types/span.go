package types

import (
	"text2phenotype.com/qde/utils"
	"fmt"
)

// Span is a half-open byte range [Begin, End) of the original note text.
type Span struct {
	Begin int    `json:"begin"`
	End   int    `json:"end"`
	Text  string `json:"-"`
}

func CheckSpansOverlap(covered Span, covering Span) bool {
	return covering.Begin <= covered.Begin && covering.End >= covered.End
}

func (span Span) Len() int {
	return span.End - span.Begin
}

func (span Span) GetHashCode() uint64 {
	key := fmt.Sprintf("%d_%d", span.Begin, span.End)
	return utils.HashString(key)
}
