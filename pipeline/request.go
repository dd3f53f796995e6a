package pipeline

import (
	"time"
)

type Request struct {
	Text string    `json:"text"`
	Tid  string    `json:"tid"`
	AsOf time.Time `json:"as_of"`
}
