package services

import (
	"errors"
	"fmt"
)

// Common service errors
var (
	ErrNotFound      = errors.New("registro no encontrado")
	ErrInvalidState  = errors.New("transición de estado inválida")
	ErrInvalidSecret = errors.New("código de verificación inválido")
)

// ValidationError reports malformed or incomplete input. It is raised before
// any store call, so a validation failure never leaves partial state behind.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AuthorizationError reports a failed capability or secondary-secret check.
type AuthorizationError struct {
	Capability string
	Reason     string
}

func (e *AuthorizationError) Error() string {
	if e.Reason != "" {
		return "no autorizado: " + e.Reason
	}
	return fmt.Sprintf("no autorizado: se requiere la capacidad %q", e.Capability)
}

// PersistenceError reports a failed store call. Step is the high-water mark of
// the operation: everything before it was applied and stays applied, so a
// manual reconciliation knows exactly where to resume.
type PersistenceError struct {
	Step string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("falló la persistencia en el paso %q: %v", e.Step, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistError(step string, err error) *PersistenceError {
	return &PersistenceError{Step: step, Err: err}
}
