package ledger

// Denominations accepted by the machine, in cents, highest first.
var Denominations = []int64{100, 50, 20, 10, 5}

// CoinCount is one line of a change breakdown.
type CoinCount struct {
	Denomination int64 `json:"denomination"`
	Count        int64 `json:"count"`
}

// Change is the coin breakdown of an amount. Remainder holds whatever the
// denominations cannot express (non-multiples of the smallest coin).
type Change struct {
	Coins     []CoinCount `json:"coins"`
	Remainder int64       `json:"remainder,omitempty"`
}

// IsValidDenomination reports whether n is an accepted coin.
func IsValidDenomination(n int64) bool {
	for _, d := range Denominations {
		if d == n {
			return true
		}
	}
	return false
}

// ComputeChange greedily decomposes amount into coins, largest first.
// Denominations with a zero count are omitted. Negative amounts yield an
// empty breakdown.
func ComputeChange(amount int64) Change {
	change := Change{Coins: []CoinCount{}}
	if amount <= 0 {
		return change
	}

	rest := amount
	for _, d := range Denominations {
		n := rest / d
		if n > 0 {
			change.Coins = append(change.Coins, CoinCount{Denomination: d, Count: n})
			rest -= n * d
		}
	}
	change.Remainder = rest
	return change
}
