package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Se envuelven con fmt.Errorf("...: %w", err) y se comparan con errors.Is.
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrInvalidTransition = errors.New("transición de estado no permitida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrConsistency       = errors.New("violación de consistencia del inventario")
	ErrTransient         = errors.New("error transitorio de almacenamiento")
)

// IsRetryable indica si la operación completa puede reintentarse en una transacción nueva
// (timeout de bloqueo, deadlock, fallo de serialización o de conexión).
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}
