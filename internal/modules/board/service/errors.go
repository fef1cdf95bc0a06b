package service

import "errors"

var (
	// ErrInvalidUnit rejects a reading before any storage access.
	ErrInvalidUnit = errors.New("invalid unit_ID")

	// ErrUnitNotFound means the unit has no current-state row; units must be
	// provisioned before they can report.
	ErrUnitNotFound = errors.New("unit not found")

	// ErrAlreadyExists rejects provisioning a unit twice.
	ErrAlreadyExists = errors.New("unit already exists")

	// ErrNoData means an aggregation window matched no history entries; the
	// average of zero readings is undefined, not zero.
	ErrNoData = errors.New("no data found for the given month")

	// ErrPartialPersist means the current-state write succeeded but the
	// history append failed, leaving the two collections inconsistent. It is
	// surfaced for operator reconciliation, never silently retried.
	ErrPartialPersist = errors.New("partial persist: current state updated without history entry")
)
