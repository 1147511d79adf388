package model

import "time"

// Report is the outcome of replicating one change event.
type Report struct {
	Kind   ChangeKind
	Event  string
	Source string
	Target string
	Result string
	Err    error
	At     time.Time
}

func (r Report) OK() bool {
	return r.Err == nil
}

// Fields renders the report as the display mapping handed to consumers.
func (r Report) Fields() map[string]string {
	return map[string]string{
		"Event":  r.Event,
		"Source": r.Source,
		"Target": r.Target,
		"Result": r.Result,
	}
}
