package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Direction indica si el movimiento de kardex es entrada o salida.
type Direction string

const (
	DirectionEntry Direction = "ENTRY"
	DirectionExit  Direction = "EXIT"
)

// Valid reporta si la dirección es una de las conocidas.
func (d Direction) Valid() bool {
	return d == DirectionEntry || d == DirectionExit
}

// ReferenceKind es el origen del movimiento. Enumeración cerrada: no se aceptan textos libres.
type ReferenceKind uint8

const (
	ReferencePurchase ReferenceKind = iota + 1
	ReferenceProductionOrder
	ReferenceManual
	ReferenceOther
)

var referenceKindNames = map[ReferenceKind]string{
	ReferencePurchase:        "PURCHASE",
	ReferenceProductionOrder: "PRODUCTION_ORDER",
	ReferenceManual:          "MANUAL",
	ReferenceOther:           "OTHER",
}

func (k ReferenceKind) String() string {
	if s, ok := referenceKindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("ReferenceKind(%d)", uint8(k))
}

// Valid reporta si el tipo de referencia pertenece a la enumeración.
func (k ReferenceKind) Valid() bool {
	_, ok := referenceKindNames[k]
	return ok
}

// ParseReferenceKind convierte el nombre (insensible a mayúsculas) en ReferenceKind.
func ParseReferenceKind(s string) (ReferenceKind, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for k, name := range referenceKindNames {
		if name == up {
			return k, nil
		}
	}
	return 0, fmt.Errorf("tipo de referencia desconocido: %q", s)
}

// MarshalText permite serializar el tipo como texto en JSON y en la base de datos.
func (k ReferenceKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("tipo de referencia inválido: %d", uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText es el inverso de MarshalText.
func (k *ReferenceKind) UnmarshalText(b []byte) error {
	parsed, err := ParseReferenceKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Reference identifica el documento que originó el movimiento (compra 42, orden 7...).
type Reference struct {
	Kind ReferenceKind
	ID   int64
}

func (r Reference) String() string {
	return fmt.Sprintf("%s#%d", r.Kind, r.ID)
}

// KardexEntry es un movimiento inmutable del kardex sobre un lote.
// Quantity siempre es positiva; Direction determina el signo.
// Una salida que toca N lotes genera N entradas con el mismo MovementID.
type KardexEntry struct {
	ID         int64
	MovementID string
	LotID      int64
	MaterialID int64
	Direction  Direction
	Reference  Reference
	Quantity   decimal.Decimal
	UnitCost   decimal.Decimal
	CreatedAt  time.Time
	CreatedBy  string
}

// SignedQuantity devuelve la cantidad con signo (negativa en salidas).
func (e *KardexEntry) SignedQuantity() decimal.Decimal {
	if e.Direction == DirectionExit {
		return e.Quantity.Neg()
	}
	return e.Quantity
}

// TotalCost es Quantity * UnitCost (sin signo).
func (e *KardexEntry) TotalCost() decimal.Decimal {
	return e.Quantity.Mul(e.UnitCost)
}
