package constants

// Severity is the level attached to a rule outcome.
type Severity string

// Stable values (serialized into reports and stored in the DB).
const (
	SeverityError   Severity = "error"   // makes the invoice invalid
	SeverityWarning Severity = "warning" // reported only
)
