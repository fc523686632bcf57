package log

import "testing"

func TestInitSelectsLoggerMode(t *testing.T) {
	if err := Init(true); err != nil {
		t.Fatalf("Init(debug): %v", err)
	}
	if GetSugaredLogger() == nil {
		t.Fatal("GetSugaredLogger returned nil after Init")
	}
	if err := Init(false); err != nil {
		t.Fatalf("Init(production): %v", err)
	}
}

func TestPackageLevelFunctions(t *testing.T) {
	if err := Init(true); err != nil {
		t.Fatalf("Init: %v", err)
	}
	Debugf("fitting trace, iteration %d", 1)
	Info("audit starting")
	Infof("loaded %d scenarios", 3)
	Errorf("scenario %s failed", "flare-stack")
	Sync()
}
