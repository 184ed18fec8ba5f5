package entity

import "time"

// Roles válidos para User.
const (
	RoleAdmin      = "admin"
	RoleWarehouse  = "bodeguero"
	RoleProduction = "produccion"
)

// ValidRole indica si role es uno de los roles conocidos.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleWarehouse, RoleProduction:
		return true
	}
	return false
}

// User operario o administrador que registra movimientos; su ID queda en CreatedBy del kardex.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt, nunca la clave plana
	Name         string
	Role         string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
