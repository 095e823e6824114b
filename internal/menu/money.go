package menu

import (
	"fmt"
	"math"
)

// Money is an amount in cents. Integer cents keep cart totals exact.
type Money int64

// FromFloat converts a decimal price such as 6.99 to cents, rounding half away from zero.
func FromFloat(v float64) Money {
	return Money(math.Round(v * 100))
}

func (m Money) Float() float64 {
	return float64(m) / 100
}

func (m Money) String() string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s$%d.%02d", sign, m/100, m%100)
}
