package safe

import (
	"fmt"
	"math/bits"
)

type unsigned interface {
	~uint | ~uint32 | ~uint64
}

// Add adds two unsigned values. ok is false when the sum does not fit in T.
func Add[T unsigned](a, b T) (sum T, ok bool) {
	s, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 || T(s) < a {
		return 0, false
	}
	return T(s), true
}

// SafeAdd adds two unsigned values. Panics on overflow.
func SafeAdd[T unsigned](a, b T) T {
	sum, ok := Add(a, b)
	if !ok {
		panic(fmt.Sprintf("OVERFLOW: %d + %d", uint64(a), uint64(b)))
	}
	return sum
}

// SafeSub subtracts b from a. Panics on underflow.
func SafeSub[T unsigned](a, b T) T {
	if b > a {
		panic(fmt.Sprintf("UNDERFLOW: %d - %d", uint64(a), uint64(b)))
	}
	return a - b
}
