package models

// RunStatus represents the outcome of a generation run or of a single source within it
type RunStatus string

const (
	RunStatusUnset   RunStatus = ""        // Zero value = unset/unknown
	RunStatusSuccess RunStatus = "success" // Everything generated and the index was written
	RunStatusPartial RunStatus = "partial" // Some sources failed but the index was still written
	RunStatusFailure RunStatus = "failure" // The run aborted before the index was written
	RunStatusSkipped RunStatus = "skipped" // Source not selected for this run
)

// String implements fmt.Stringer for logging
func (s RunStatus) String() string {
	if s == "" {
		return "unset"
	}
	return string(s)
}

// IsValid returns true if the status is a known operational value
func (s RunStatus) IsValid() bool {
	switch s {
	case RunStatusSuccess, RunStatusPartial, RunStatusFailure, RunStatusSkipped:
		return true
	}
	return false
}
