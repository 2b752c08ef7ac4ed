package cleaning

import "fmt"

// Step names the pipeline stage that produced a log entry.
type Step string

const (
	StepDedupe    Step = "dedupe"
	StepNormalize Step = "normalize"
	StepCoerce    Step = "coerce"
	StepFixup     Step = "fixup"
	StepImpute    Step = "impute"
	StepCap       Step = "cap"
)

// LogEntry records one transformation that changed data.
type LogEntry struct {
	Step    Step   `json:"step"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

func (e LogEntry) String() string { return e.Message }

func entry(step Step, column, format string, args ...any) LogEntry {
	return LogEntry{Step: step, Column: column, Message: fmt.Sprintf(format, args...)}
}

// Messages flattens a log to its human-readable lines.
func Messages(log []LogEntry) []string {
	out := make([]string, len(log))
	for i, e := range log {
		out[i] = e.Message
	}
	return out
}
