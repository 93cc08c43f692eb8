package events

// ConstraintViolation is emitted when an argument or input value fails a
// constraint directive during execution.
type ConstraintViolation struct {
	ObjectType string
	Field      string
	Path       []any
	Label      string
	Rule       string
	Message    string
}
