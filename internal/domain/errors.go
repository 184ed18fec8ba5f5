package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound               = errors.New("recurso no encontrado")
	ErrInvalidInput           = errors.New("entrada inválida")
	ErrInvalidQuantity        = errors.New("cantidad o costo inválido")
	ErrDuplicate              = errors.New("recurso duplicado")
	ErrUnauthorized           = errors.New("no autorizado")
	ErrConflict               = errors.New("conflicto con el estado actual")
	ErrInsufficientStock      = errors.New("stock insuficiente")
	ErrLedgerInconsistency    = errors.New("inconsistencia en el kardex")
	ErrInvariantViolation     = errors.New("violación de invariante de lote")
	ErrLockTimeout            = errors.New("tiempo de espera de bloqueo agotado")
	ErrMaterialInactive       = errors.New("materia prima inactiva")
	ErrOrderNotPending        = errors.New("la orden de producción no está pendiente")
	ErrMissingBillOfMaterials = errors.New("producto sin ficha técnica")
)

// InsufficientStockError indica que la salida pide más de lo disponible en los lotes.
// La operación que lo retorna no realizó ninguna mutación.
type InsufficientStockError struct {
	MaterialID int64
	Available  decimal.Decimal
	Required   decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para materia prima %d: disponible %s, requerido %s",
		e.MaterialID, e.Available.String(), e.Required.String())
}

func (e *InsufficientStockError) Is(target error) bool { return target == ErrInsufficientStock }

// LedgerInconsistencyError se produce cuando los lotes se agotan antes de cubrir la cantidad
// pese a la verificación previa de disponibilidad. Siempre es fatal: es un bug, no un reintento.
type LedgerInconsistencyError struct {
	MaterialID int64
	Missing    decimal.Decimal
}

func (e *LedgerInconsistencyError) Error() string {
	return fmt.Sprintf("kardex inconsistente para materia prima %d: faltaron %s al consumir lotes",
		e.MaterialID, e.Missing.String())
}

func (e *LedgerInconsistencyError) Is(target error) bool { return target == ErrLedgerInconsistency }

// InvariantViolationError se produce al intentar reducir un lote por debajo de cero.
type InvariantViolationError struct {
	LotID     int64
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InvariantViolationError) Error() string {
	return fmt.Sprintf("lote %d: se intentó reducir %s con solo %s disponible",
		e.LotID, e.Requested.String(), e.Available.String())
}

func (e *InvariantViolationError) Is(target error) bool { return target == ErrInvariantViolation }
