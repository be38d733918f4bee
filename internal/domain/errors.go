package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrPoolExhausted is returned when the pool cannot grow past its capacity ceiling.
	ErrPoolExhausted = errors.New("pool exhausted")

	// ErrInvalidHandle is returned for the nil handle, a handle that was never issued,
	// or a handle whose slot is currently free.
	ErrInvalidHandle = errors.New("invalid handle")

	// ErrStaleHandle is returned when a handle's slot has been reissued under a newer generation.
	ErrStaleHandle = errors.New("stale handle")

	// ErrForeignHandle is returned when a handle is presented to a pool that did not issue it.
	ErrForeignHandle = errors.New("handle from another pool")

	// ErrDoubleFree is returned when a handle is deallocated twice.
	ErrDoubleFree = errors.New("double free")

	// ErrOrderNotInLevel is returned when a live handle is removed from a level that does not hold it.
	ErrOrderNotInLevel = errors.New("order not in level")

	// ErrOverfill is returned when a reduction exceeds the resting volume.
	ErrOverfill = errors.New("reduce exceeds resting volume")

	// ErrVolumeOverflow is returned when an order would push a level's total volume past the volume range.
	ErrVolumeOverflow = errors.New("level volume overflow")

	// ErrDuplicateOrder is returned when an order ID is already resting in the book.
	ErrDuplicateOrder = errors.New("duplicate order id")

	// ErrOrderNotFound is returned when an order ID is not resting in the book.
	ErrOrderNotFound = errors.New("order not found")

	// ErrZeroVolume is returned when an order would rest with nothing to fill.
	ErrZeroVolume = errors.New("zero volume")

	// ErrConfigNotFound is returned when configuration file is missing
	ErrConfigNotFound = errors.New("configuration not found")
)

// HandleError records the operation and handle that failed.
type HandleError struct {
	Op     string // "allocate", "deallocate", "resolve", "remove", ...
	Handle uint64
	Err    error
}

func (e *HandleError) Error() string {
	return fmt.Sprintf("%s handle %#x: %v", e.Op, e.Handle, e.Err)
}

func (e *HandleError) Unwrap() error {
	return e.Err
}

// IsContractViolation reports whether err means a caller broke the pool or level contract.
// Such errors indicate corrupted bookkeeping upstream and are never recoverable.
func IsContractViolation(err error) bool {
	return errors.Is(err, ErrInvalidHandle) ||
		errors.Is(err, ErrStaleHandle) ||
		errors.Is(err, ErrForeignHandle) ||
		errors.Is(err, ErrDoubleFree) ||
		errors.Is(err, ErrOrderNotInLevel)
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "config error [" + e.Field + "]: " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
