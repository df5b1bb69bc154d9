package memutils

import (
	cerrors "github.com/cockroachdb/errors"
)

type Number interface {
	~int | ~uint
}

// CheckPow2 returns an error wrapping PowerOfTwoError unless number is a positive power of two.
func CheckPow2[T Number](number T, name string) error {
	if number <= 0 || number&(number-1) != 0 {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

// CheckPositive returns an error wrapping ErrInvalidSize unless number is greater than zero.
func CheckPositive[T Number](number T, name string) error {
	if number <= 0 {
		return cerrors.Wrapf(ErrInvalidSize, "%s is %d", name, number)
	}
	return nil
}

// CeilDiv divides a non-negative value by divisor, rounding up. divisor must be positive.
func CeilDiv(value, divisor int) int {
	quotient := value / divisor
	if value%divisor != 0 {
		quotient++
	}
	return quotient
}
