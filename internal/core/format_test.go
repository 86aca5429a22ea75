package core

import "testing"

func TestMoneyBRL(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "R$ 0,00"},
		{5, "R$ 0,05"},
		{100000, "R$ 1.000,00"},
		{123456, "R$ 1.234,56"},
		{123456789, "R$ 1.234.567,89"},
		{-70000, "-R$ 700,00"},
	}
	for _, tt := range tests {
		if got := (Money{Cents: tt.cents}).BRL(); got != tt.want {
			t.Errorf("Money{%d}.BRL() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestDateBR(t *testing.T) {
	if got := NewDate(2024, 12, 2).BR(); got != "02/12/2024" {
		t.Errorf("BR() = %q", got)
	}
	if got := (Date{}).BR(); got != "" {
		t.Errorf("zero BR() = %q", got)
	}
}
