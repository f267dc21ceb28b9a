package utils

import (
	"fmt"
	"math"

	"github.com/jackc/pgx/v5/pgtype"
)

func NumericToFloat64(value pgtype.Numeric) float64 {
	if !value.Valid {
		return 0
	}
	f, err := value.Float64Value()
	if err == nil {
		return f.Float64
	}
	text, err := value.MarshalJSON()
	if err != nil {
		return 0
	}
	var out float64
	if _, err := fmt.Sscan(string(text), &out); err != nil {
		return 0
	}
	return out
}

// Round2 rounds money to two decimals the way totals are displayed on bills.
func Round2(value float64) float64 {
	return math.Round(value*100) / 100
}
