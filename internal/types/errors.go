package types

import "errors"

// Sentinel errors mapped from storage lookups. These are the only failures
// the engine surfaces as hard errors to its callers; everything recoverable
// becomes a success=false result instead.
var (
	ErrEstimateNotFound  = errors.New("estimate not found")
	ErrItineraryNotFound = errors.New("itinerary not found")
)
