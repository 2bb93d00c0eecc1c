// Package services implements the business logic over the scheduling engine:
// medication CRUD and restocking, day-schedule queries, dose actions
// (take/skip/undo), and stock projections. This file centralizes the
// service-level error values so handlers can translate them into HTTP
// responses consistently.
package services

import "errors"

var (
	// ErrMedicationNotFound indicates the requested medication does not exist.
	ErrMedicationNotFound = errors.New("medication not found")

	// ErrInvalidMedication is returned (wrapped, with detail) when a
	// medication payload fails validation.
	ErrInvalidMedication = errors.New("invalid medication")

	// ErrNoActionToUndo is returned when undo targets a dose that has no
	// recorded action.
	ErrNoActionToUndo = errors.New("no action to undo")

	// ErrInvalidRestock is returned when a restock amount is not positive
	// or the restock mode is unknown.
	ErrInvalidRestock = errors.New("invalid restock request")
)
