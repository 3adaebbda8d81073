package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound           = errors.New("recurso no encontrado")
	ErrUserNotFound       = errors.New("usuario no encontrado")
	ErrEmailAlreadyExists = errors.New("el email ya está registrado")
	ErrInvalidInput       = errors.New("entrada inválida")
	ErrDuplicate          = errors.New("recurso duplicado")
	ErrUnauthorized       = errors.New("no autorizado")
	ErrForbidden          = errors.New("acceso denegado")
	ErrConflict           = errors.New("conflicto con el estado actual")
)

// Errores del motor de conciliación de stock.
var (
	ErrProductNotFound     = errors.New("producto no encontrado")
	ErrMovementNotFound    = errors.New("movimiento de stock no encontrado")
	ErrInvalidMovementType = errors.New("tipo de movimiento inválido")
	ErrNegativeStock       = errors.New("el stock no puede quedar negativo")
	// ErrTransactionConflict es transitorio: el motor reintenta un número acotado de veces.
	ErrTransactionConflict = errors.New("conflicto de transacción concurrente")
	// ErrStorageFailure envuelve errores de I/O del almacenamiento; nunca se reintenta.
	ErrStorageFailure = errors.New("falla del almacenamiento")
)

var known = []error{
	ErrNotFound, ErrUserNotFound, ErrEmailAlreadyExists, ErrInvalidInput, ErrDuplicate,
	ErrUnauthorized, ErrForbidden, ErrConflict,
	ErrProductNotFound, ErrMovementNotFound, ErrInvalidMovementType, ErrNegativeStock,
	ErrTransactionConflict, ErrStorageFailure,
}

// IsDomainError indica si err ya es (o envuelve) un error de dominio conocido.
func IsDomainError(err error) bool {
	for _, k := range known {
		if errors.Is(err, k) {
			return true
		}
	}
	return false
}

// IsCallerError indica errores de entrada del llamador (equivalentes a 4xx, no se reintentan).
func IsCallerError(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidMovementType) ||
		errors.Is(err, ErrNegativeStock)
}
