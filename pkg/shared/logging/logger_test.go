package logging

import "testing"

func TestNewZapDefaultsToProductionOnUnknownFormat(t *testing.T) {
	z, err := NewZap("info", "weird-format")
	if err != nil {
		t.Fatalf("NewZap: %v", err)
	}
	if z == nil {
		t.Fatal("NewZap returned nil logger")
	}
}

func TestNewZapHonorsConsoleFormat(t *testing.T) {
	z, err := NewZap("debug", "console")
	if err != nil {
		t.Fatalf("NewZap: %v", err)
	}
	if z == nil {
		t.Fatal("NewZap returned nil logger")
	}
}

func TestToLogrBridgesWithoutPanic(t *testing.T) {
	z, err := NewZap("info", "json")
	if err != nil {
		t.Fatalf("NewZap: %v", err)
	}
	logger := ToLogr(z)
	logger.Info("bridge smoke test")
}
