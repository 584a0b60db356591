// Package units converts model speeds into physical units. The standard
// Nagel-Schreckenberg discretisation maps one cell to 7.5 m and one step
// to 1 s, so a model speed of 5 cells/step is 37.5 m/s (135 km/h).
package units

// Unit constants
const (
	CellsPerStep = "cells"
	MPS          = "mps"
	MPH          = "mph"
	KMPH         = "kmph"
	KPH          = "kph"
)

// CellMeters is the physical length of one cell in metres.
const CellMeters = 7.5

// StepSeconds is the physical duration of one step in seconds.
const StepSeconds = 1.0

// ValidUnits contains all valid unit values
var ValidUnits = []string{CellsPerStep, MPS, MPH, KMPH, KPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "cells, mps, mph, kmph, kph"
}

// ConvertSpeed converts a model speed in cells per step to the target
// units. Unknown units pass the value through unchanged.
func ConvertSpeed(cellsPerStep float64, targetUnits string) float64 {
	mps := cellsPerStep * CellMeters / StepSeconds
	switch targetUnits {
	case CellsPerStep:
		return cellsPerStep
	case MPS:
		return mps
	case MPH:
		return mps * 2.23694 // m/s to mph
	case KMPH, KPH:
		return mps * 3.6 // m/s to km/h
	default:
		return cellsPerStep
	}
}
