package units

import (
	"math"
	"testing"
)

func TestConvertSpeed(t *testing.T) {
	tests := []struct {
		name      string
		modelSpd  float64
		units     string
		expected  float64
		tolerance float64
	}{
		{"model speed passthrough", 5.0, CellsPerStep, 5.0, 0},
		{"5 cells/step to m/s", 5.0, MPS, 37.5, 0},
		{"5 cells/step to km/h", 5.0, KMPH, 135.0, 0.0001},
		{"5 cells/step to kph alias", 5.0, KPH, 135.0, 0.0001},
		{"1 cell/step to mph", 1.0, MPH, 7.5 * 2.23694, 0.0001},
		{"city speed 2 cells/step to km/h", 2.0, KMPH, 54.0, 0.0001},
		{"zero speed", 0.0, MPH, 0.0, 0},
		{"unknown units pass through", 3.0, "unknown", 3.0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ConvertSpeed(tt.modelSpd, tt.units)
			if math.Abs(result-tt.expected) > tt.tolerance {
				t.Errorf("ConvertSpeed(%f, %s) = %f, want %f", tt.modelSpd, tt.units, result, tt.expected)
			}
		})
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name     string
		unit     string
		expected bool
	}{
		{"valid cells", CellsPerStep, true},
		{"valid mps", MPS, true},
		{"valid mph", MPH, true},
		{"valid kmph", KMPH, true},
		{"valid kph", KPH, true},
		{"invalid unit", "invalid", false},
		{"empty string", "", false},
		{"case sensitive", "MPH", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IsValid(tt.unit)
			if result != tt.expected {
				t.Errorf("IsValid(%s) = %v, want %v", tt.unit, result, tt.expected)
			}
		})
	}
}

func TestGetValidUnitsString(t *testing.T) {
	expected := "cells, mps, mph, kmph, kph"
	result := GetValidUnitsString()
	if result != expected {
		t.Errorf("GetValidUnitsString() = %s, want %s", result, expected)
	}
}
