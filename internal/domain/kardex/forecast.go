package kardex

import (
	"time"

	"github.com/shopspring/decimal"
)

// AlertLevel es la urgencia de reposición según los días de stock restantes.
type AlertLevel string

const (
	AlertNone       AlertLevel = "NONE"
	AlertPreventive AlertLevel = "PREVENTIVE"
	AlertUrgent     AlertLevel = "URGENT"
)

// Severity permite ordenar alertas (mayor = más urgente).
func (a AlertLevel) Severity() int {
	switch a {
	case AlertUrgent:
		return 2
	case AlertPreventive:
		return 1
	}
	return 0
}

// Thresholds umbrales en días para cada nivel de alerta.
type Thresholds struct {
	UrgentDays     int64
	PreventiveDays int64
}

// DefaultThresholds: urgente a 7 días, preventiva a 30.
func DefaultThresholds() Thresholds {
	return Thresholds{UrgentDays: 7, PreventiveDays: 30}
}

// Level clasifica los días restantes. Sin consumo (nil) no hay alerta.
func (t Thresholds) Level(daysRemaining *int64) AlertLevel {
	if daysRemaining == nil {
		return AlertNone
	}
	switch {
	case *daysRemaining <= t.UrgentDays:
		return AlertUrgent
	case *daysRemaining <= t.PreventiveDays:
		return AlertPreventive
	}
	return AlertNone
}

// Forecast proyección de agotamiento de una materia prima.
// DaysRemaining y EstimatedDepletionDate son nil cuando no hubo salidas en la ventana.
type Forecast struct {
	MaterialID             int64           `json:"material_id"`
	LookbackDays           int             `json:"lookback_days"`
	CurrentQuantity        decimal.Decimal `json:"current_quantity"`
	TotalExits             decimal.Decimal `json:"total_exits"`
	AvgDailyConsumption    decimal.Decimal `json:"avg_daily_consumption"`
	DaysRemaining          *int64          `json:"days_remaining"`
	EstimatedDepletionDate *time.Time      `json:"estimated_depletion_date"`
	AlertLevel             AlertLevel      `json:"alert_level"`
}

// ComputeForecast: consumo diario = salidas de la ventana / lookbackDays;
// días restantes = floor(cantidad actual / consumo diario).
func ComputeForecast(materialID int64, current, exits decimal.Decimal, lookbackDays int, asOf time.Time, t Thresholds) Forecast {
	f := Forecast{
		MaterialID:          materialID,
		LookbackDays:        lookbackDays,
		CurrentQuantity:     current,
		TotalExits:          exits,
		AvgDailyConsumption: decimal.Zero,
		AlertLevel:          AlertNone,
	}
	if lookbackDays <= 0 {
		return f
	}
	avg := exits.Div(decimal.NewFromInt(int64(lookbackDays)))
	f.AvgDailyConsumption = avg
	if !avg.IsPositive() {
		return f
	}
	days := current.Div(avg).Floor().IntPart()
	if days < 0 {
		days = 0
	}
	f.DaysRemaining = &days
	y, m, d := asOf.Date()
	depletion := time.Date(y, m, d, 0, 0, 0, 0, asOf.Location()).AddDate(0, 0, int(days))
	f.EstimatedDepletionDate = &depletion
	f.AlertLevel = t.Level(&days)
	return f
}
