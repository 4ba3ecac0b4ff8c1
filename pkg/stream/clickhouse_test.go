package stream

import (
	"testing"

	"github.com/trendcast/pkg/candle"
)

func TestReverseCandlesRestoresChronology(t *testing.T) {
	// A latest-N query returns newest first; downstream consumers need
	// oldest first.
	descending := []candle.Candle{
		{Symbol: "BTCUSDT", Timestamp: 1700000180, Close: 103},
		{Symbol: "BTCUSDT", Timestamp: 1700000120, Close: 102},
		{Symbol: "BTCUSDT", Timestamp: 1700000060, Close: 101},
		{Symbol: "BTCUSDT", Timestamp: 1700000000, Close: 100},
	}
	reverseCandles(descending)
	for i := 1; i < len(descending); i++ {
		if descending[i].Timestamp <= descending[i-1].Timestamp {
			t.Fatalf("timestamps not ascending at %d: %d then %d",
				i, descending[i-1].Timestamp, descending[i].Timestamp)
		}
	}
	if descending[0].Close != 100 || descending[3].Close != 103 {
		t.Errorf("unexpected order after reversal: first=%v last=%v",
			descending[0].Close, descending[3].Close)
	}
}

func TestReverseCandlesDegenerate(t *testing.T) {
	reverseCandles(nil)
	one := []candle.Candle{{Symbol: "BTCUSDT", Timestamp: 1700000000}}
	reverseCandles(one)
	if one[0].Timestamp != 1700000000 {
		t.Errorf("single-element slice changed: %v", one[0].Timestamp)
	}
}
