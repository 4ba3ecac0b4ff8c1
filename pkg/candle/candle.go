package candle

// Candle represents a single candlestick
type Candle struct {
	Symbol    string  `json:"symbol"`
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// Rows converts a candle history into feature rows for the dataset builder.
// Column 0 is the close price; the remaining columns are raw features.
func Rows(candles []Candle) [][]float64 {
	rows := make([][]float64, len(candles))
	for i, c := range candles {
		rows[i] = []float64{c.Close, c.Open, c.High, c.Low, c.Volume}
	}
	return rows
}
