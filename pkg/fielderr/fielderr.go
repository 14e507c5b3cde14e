// Package fielderr carries field-keyed validation messages from the service
// layer to the HTTP boundary, mirroring how forms surface inline errors.
package fielderr

// Errors maps input field names to human-readable validation messages.
// It implements error so services can return it through normal error paths.
type Errors map[string]string

// New returns an empty, ready-to-use error map.
func New() Errors {
	return make(Errors)
}

// Add records a message for a field. The first message per field wins.
func (e Errors) Add(field, message string) {
	if _, exists := e[field]; !exists {
		e[field] = message
	}
}

// Has reports whether the field already carries a message.
func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Any reports whether at least one field failed validation.
func (e Errors) Any() bool {
	return len(e) > 0
}

func (e Errors) Error() string {
	for field, msg := range e {
		return field + ": " + msg
	}
	return "validation failed"
}
