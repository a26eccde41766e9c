// Package derive - derive/budget.go
package derive

import (
	"math"

	"school-trips/models"
)

// GlobalCost computes the per-student price from the budget inputs:
// shared costs (bus + other) split across the estimated head count,
// plus the per-student entry fee, rounded up to a whole euro.
// ok is false when estimatedStudents is not positive; the caller must
// then leave the current costGlobal untouched.
func GlobalCost(costBus, costOther, costEntry float64, estimatedStudents int) (cost float64, ok bool) {
	if estimatedStudents <= 0 {
		return 0, false
	}
	raw := (costBus+costOther)/float64(estimatedStudents) + costEntry
	return math.Ceil(raw), true
}

// budgetInputsChanged reports whether any of the four inputs feeding
// the global cost differ between the two revisions.
func budgetInputsChanged(old, next models.Excursion) bool {
	return old.CostBus != next.CostBus ||
		old.CostOther != next.CostOther ||
		old.CostEntry != next.CostEntry ||
		old.EstimatedStudents != next.EstimatedStudents
}

// ApplyBudget recomputes CostGlobal on a new excursion unless a manual
// override is already in place.
func ApplyBudget(exc *models.Excursion) {
	if exc.CostGlobalManual {
		return
	}
	if cost, ok := GlobalCost(exc.CostBus, exc.CostOther, exc.CostEntry, exc.EstimatedStudents); ok {
		exc.CostGlobal = cost
	}
}

// ReconcileBudget resolves the auto-versus-manual tension when an
// excursion is edited:
//   - any budget input change cancels a manual override and triggers
//     recomputation (subject to the zero-student guard)
//   - an explicit costGlobal edit with unchanged inputs becomes a
//     sticky override, but only for TESORERIA or DIRECCION; anyone
//     else has the old value restored
func ReconcileBudget(old models.Excursion, next *models.Excursion, actor models.Role) {
	if budgetInputsChanged(old, *next) {
		next.CostGlobalManual = false
		if cost, ok := GlobalCost(next.CostBus, next.CostOther, next.CostEntry, next.EstimatedStudents); ok {
			next.CostGlobal = cost
		}
		return
	}

	if next.CostGlobal != old.CostGlobal {
		if actor == models.RoleTesoreria || actor == models.RoleDireccion {
			next.CostGlobalManual = true
		} else {
			next.CostGlobal = old.CostGlobal
			next.CostGlobalManual = old.CostGlobalManual
		}
	}
}
