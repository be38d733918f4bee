package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestHandleError(t *testing.T) {
	err := &HandleError{Op: "deallocate", Handle: 0x100000002, Err: ErrDoubleFree}

	expected := "deallocate handle 0x100000002: double free"
	if err.Error() != expected {
		t.Errorf("Error message = %q, want %q", err.Error(), expected)
	}

	if !errors.Is(err, ErrDoubleFree) {
		t.Error("Expected error to wrap ErrDoubleFree")
	}

	wrapped := fmt.Errorf("cancel order 7: %w", err)
	var he *HandleError
	if !errors.As(wrapped, &he) || he.Op != "deallocate" {
		t.Error("Expected errors.As to find HandleError through wrapping")
	}
}

func TestIsContractViolation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"invalid handle", ErrInvalidHandle, true},
		{"stale handle", &HandleError{Op: "resolve", Err: ErrStaleHandle}, true},
		{"double free", fmt.Errorf("x: %w", ErrDoubleFree), true},
		{"not in level", ErrOrderNotInLevel, true},
		{"foreign handle", &HandleError{Op: "remove", Err: ErrForeignHandle}, true},
		{"volume overflow", &HandleError{Op: "add", Err: ErrVolumeOverflow}, false},
		{"exhausted", ErrPoolExhausted, false},
		{"duplicate", ErrDuplicateOrder, false},
		{"not found", ErrOrderNotFound, false},
		{"zero volume", ErrZeroVolume, false},
		{"plain", errors.New("plain error"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsContractViolation(tt.err); got != tt.want {
				t.Errorf("IsContractViolation() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConfigError(t *testing.T) {
	baseErr := errors.New("missing value")
	err := &ConfigError{Field: "pool.max_capacity", Err: baseErr}

	expected := "config error [pool.max_capacity]: missing value"
	if err.Error() != expected {
		t.Errorf("Error message = %q, want %q", err.Error(), expected)
	}
	if !errors.Is(err, baseErr) {
		t.Error("Expected ConfigError to unwrap to base error")
	}
}
