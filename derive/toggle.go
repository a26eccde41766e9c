// Package derive - derive/toggle.go
package derive

import (
	"time"

	"school-trips/models"
)

// ToggleField names the three boolean flags on a participation.
type ToggleField string

const (
	FieldAuthSigned ToggleField = "authSigned"
	FieldPaid       ToggleField = "paid"
	FieldAttended   ToggleField = "attended"
)

// Toggle flips one participation flag and applies the payment side
// effects: turning paid on records the excursion's current per-student
// price and the payment time; turning it off clears both. The auth and
// attendance flags only flip.
func Toggle(p models.Participation, field ToggleField, exc models.Excursion, now time.Time) models.Participation {
	switch field {
	case FieldAuthSigned:
		p.AuthSigned = !p.AuthSigned
	case FieldAttended:
		p.Attended = !p.Attended
	case FieldPaid:
		p.Paid = !p.Paid
		if p.Paid {
			p.AmountPaid = exc.CostGlobal
			p.PaymentDate = now.UTC().Format(time.RFC3339)
		} else {
			p.AmountPaid = 0
			p.PaymentDate = ""
		}
	}
	return p
}
