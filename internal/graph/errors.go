package graph

import (
	"github.com/MarcoPoloResearchLab/questgraph/internal/validation"
)

const codeInternal = "INTERNAL"

// publicError is the client-facing form of a server-side failure. The cause
// is logged and never rendered.
type publicError struct {
	message string
	cause   error
}

func (e *publicError) Error() string {
	return e.message
}

func (e *publicError) Unwrap() error {
	return e.cause
}

// Extensions exposes the error classification to GraphQL responses.
func (e *publicError) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": codeInternal}
}

// mutationError passes validation failures through and hides the rest
// behind message.
func (s *Service) mutationError(operation, message string, err error) error {
	if validationErr, ok := validation.AsValidationError(err); ok {
		return validationErr
	}
	s.logError(operation, err)
	return &publicError{message: message, cause: err}
}
