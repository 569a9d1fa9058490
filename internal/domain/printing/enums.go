package printing

// JobStatus represents the status of a print job
type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"
	JobStatusPrinting  JobStatus = "PRINTING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
)

// IsValid checks if the JobStatus is a valid value
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusPrinting, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of JobStatus
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the job finished processing
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// CanTransitionTo checks if the status can transition to the target status.
// Terminal statuses only go back to pending, which is reserved for retry.
func (s JobStatus) CanTransitionTo(target JobStatus) bool {
	switch s {
	case JobStatusPending:
		return target == JobStatusPrinting
	case JobStatusPrinting:
		return target == JobStatusCompleted || target == JobStatusFailed
	case JobStatusCompleted, JobStatusFailed:
		return target == JobStatusPending
	}
	return false
}

// ItemStatus represents the outcome of one label's submission
type ItemStatus string

const (
	ItemStatusPending ItemStatus = "PENDING"
	ItemStatusPrinted ItemStatus = "PRINTED"
	ItemStatusFailed  ItemStatus = "FAILED"
)

// IsValid checks if the ItemStatus is a valid value
func (s ItemStatus) IsValid() bool {
	switch s {
	case ItemStatusPending, ItemStatusPrinted, ItemStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of ItemStatus
func (s ItemStatus) String() string {
	return string(s)
}

// PrinterStatus is the advisory state reported by the operating system.
// Only an actual submission attempt is authoritative.
type PrinterStatus string

const (
	PrinterStatusIdle     PrinterStatus = "IDLE"
	PrinterStatusPrinting PrinterStatus = "PRINTING"
	PrinterStatusOffline  PrinterStatus = "OFFLINE"
	PrinterStatusDisabled PrinterStatus = "DISABLED"
	PrinterStatusUnknown  PrinterStatus = "UNKNOWN"
)

// String returns the string representation of PrinterStatus
func (s PrinterStatus) String() string {
	return string(s)
}
