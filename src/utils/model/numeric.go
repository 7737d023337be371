package model

import (
	"math/big"

	"github.com/jackc/pgtype"
)

// NumericFromBigInt converts an on-chain amount into a numeric column value.
// Nil is stored as zero, which is the documented default for failed sub-calls.
func NumericFromBigInt(v *big.Int) (n pgtype.Numeric) {
	if v == nil {
		v = big.NewInt(0)
	}
	// Set only fails for unsupported source types, string is supported
	_ = n.Set(v.String())
	return
}
