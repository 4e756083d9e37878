package progress

import (
	"encoding/json"
	"io"
)

type event struct {
	Event    string `json:"event"`
	Step     int    `json:"step"`
	Max      int    `json:"max"`
	Received int64  `json:"received"`
	Total    int64  `json:"total,omitempty"`
}

// JSON writes one object per line, for consumption by other programs.
type JSON struct {
	enc *json.Encoder
}

func NewJSON(w io.Writer) *JSON {
	return &JSON{enc: json.NewEncoder(w)}
}

func (j *JSON) Ready() {
	j.enc.Encode(event{Event: "ready", Max: MaxSteps})
}

func (j *JSON) Update(step int, received, total int64) {
	Check(step)

	j.enc.Encode(event{
		Event:    "progress",
		Step:     step,
		Max:      MaxSteps,
		Received: received,
		Total:    total,
	})
}
