package candle

import "testing"

func TestRowsPutsCloseFirst(t *testing.T) {
	candles := []Candle{
		{Symbol: "BTCUSDT", Timestamp: 1700000000, Open: 99, High: 101, Low: 98, Close: 100.5, Volume: 12.5},
		{Symbol: "BTCUSDT", Timestamp: 1700000060, Open: 100.5, High: 102, Low: 100, Close: 101.25, Volume: 8},
	}
	rows := Rows(candles)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	want := []float64{100.5, 99, 101, 98, 12.5}
	for i, v := range want {
		if rows[0][i] != v {
			t.Errorf("row 0 col %d: got %v, want %v", i, rows[0][i], v)
		}
	}
}
