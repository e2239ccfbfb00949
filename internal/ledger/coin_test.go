package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidDenomination(t *testing.T) {
	for _, d := range []int64{5, 10, 20, 50, 100} {
		assert.True(t, IsValidDenomination(d), "denomination %d", d)
	}
	for _, d := range []int64{-5, 0, 1, 7, 15, 25, 200} {
		assert.False(t, IsValidDenomination(d), "denomination %d", d)
	}
}

func TestComputeChange(t *testing.T) {
	tests := []struct {
		name      string
		amount    int64
		want      []CoinCount
		remainder int64
	}{
		{"zero", 0, []CoinCount{}, 0},
		{"negative", -10, []CoinCount{}, 0},
		{"single coin", 50, []CoinCount{{50, 1}}, 0},
		{"fifty five", 55, []CoinCount{{50, 1}, {5, 1}}, 0},
		{"mixed", 385, []CoinCount{{100, 3}, {50, 1}, {20, 1}, {10, 1}, {5, 1}}, 0},
		{"unrepresentable tail", 58, []CoinCount{{50, 1}, {5, 1}}, 3},
		{"below smallest coin", 4, []CoinCount{}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeChange(tt.amount)
			assert.Equal(t, tt.want, got.Coins)
			assert.Equal(t, tt.remainder, got.Remainder)
		})
	}
}

func TestComputeChangeSumsToMultiplesOfFive(t *testing.T) {
	for n := int64(0); n <= 2000; n += 5 {
		change := ComputeChange(n)
		assert.Equal(t, n, coinValue(change.Coins), "amount %d", n)
		assert.Zero(t, change.Remainder, "amount %d", n)
		for _, c := range change.Coins {
			assert.Positive(t, c.Count)
		}
	}
}

func coinValue(coins []CoinCount) int64 {
	var total int64
	for _, c := range coins {
		total += c.Denomination * c.Count
	}
	return total
}
