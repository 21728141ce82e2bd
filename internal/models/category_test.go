package models

import "testing"

func TestColumnKey(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Fund", "Fund"},
		{"Tuition  Fund\t2024", "Tuition_Fund_2024"},
		{"Fee_A", "Fee_A"},
	}
	for _, tt := range tests {
		if got := (Category{Name: tt.name}).ColumnKey(); got != tt.want {
			t.Errorf("ColumnKey(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
