package validator

import (
	"testing"
	"time"
)

func TestValidateSymbol(t *testing.T) {
	valid := []string{"BTCUSDT", "ETHUSD", "SOLUSDT"}
	for _, s := range valid {
		if err := ValidateSymbol(s); err != nil {
			t.Errorf("%s should be valid: %v", s, err)
		}
	}
	invalid := []string{"", "btcusdt", "BTC", "BTC-USDT", "VERYLONGSYMBOLUSDT"}
	for _, s := range invalid {
		if err := ValidateSymbol(s); err == nil {
			t.Errorf("%s should be rejected", s)
		}
	}
}

func TestValidateTimestamp(t *testing.T) {
	if err := ValidateTimestamp(time.Now().Unix()); err != nil {
		t.Errorf("current time should be valid: %v", err)
	}
	if err := ValidateTimestamp(-1); err == nil {
		t.Error("negative timestamp should be rejected")
	}
	if err := ValidateTimestamp(time.Now().Unix() + 7*86400); err == nil {
		t.Error("far-future timestamp should be rejected")
	}
}

func TestValidatePrice(t *testing.T) {
	if err := ValidatePrice(100.5); err != nil {
		t.Errorf("positive price should be valid: %v", err)
	}
	for _, p := range []float64{0, -1} {
		if err := ValidatePrice(p); err == nil {
			t.Errorf("price %v should be rejected", p)
		}
	}
}

func TestValidateFraction(t *testing.T) {
	for _, v := range []float64{0, 0.5, 1} {
		if err := ValidateFraction("dropout", v); err != nil {
			t.Errorf("fraction %v should be valid: %v", v, err)
		}
	}
	for _, v := range []float64{-0.1, 1.1} {
		if err := ValidateFraction("dropout", v); err == nil {
			t.Errorf("fraction %v should be rejected", v)
		}
	}
}
