package orders

import (
	"encoding/json"
	"testing"
)

func TestCoercePositiveQuantity(t *testing.T) {
	valid := []struct {
		name string
		raw  any
		want int32
	}{
		{"int", 3, 3},
		{"int32", int32(4), 4},
		{"int64", int64(5), 5},
		{"whole float", float64(6), 6},
		{"json number", json.Number("7"), 7},
		{"string", "8", 8},
		{"padded string", "  9  ", 9},
	}
	for _, tc := range valid {
		t.Run("valid/"+tc.name, func(t *testing.T) {
			got, fault := coercePositiveQuantity(tc.raw)
			if fault != nil {
				t.Fatalf("unexpected fault: %v", fault)
			}
			if got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}

	invalid := []struct {
		name string
		raw  any
	}{
		{"nil", nil},
		{"zero", 0},
		{"negative", -1},
		{"fractional", 2.5},
		{"letters", "abc"},
		{"empty string", "   "},
		{"bool", true},
		{"too large", int64(1) << 40},
	}
	for _, tc := range invalid {
		t.Run("invalid/"+tc.name, func(t *testing.T) {
			_, fault := coercePositiveQuantity(tc.raw)
			if fault == nil {
				t.Fatalf("expected fault for %v", tc.raw)
			}
			if len(fault.Fields["quantity"]) == 0 {
				t.Fatalf("expected field error on quantity, got %+v", fault)
			}
		})
	}
}
