package hexapod

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCalibrationMissingFile(t *testing.T) {
	cal, err := LoadCalibration(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if len(cal) != 0 {
		t.Errorf("calibration = %v, want empty", cal)
	}
	if rec := cal.ForJoint(0, "coxa"); rec != (JointCalibration{}) {
		t.Errorf("ForJoint on empty calibration = %+v", rec)
	}
}

func TestLoadCalibrationInvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadCalibration(path); err == nil {
		t.Fatal("invalid JSON accepted")
	}
}

func TestCalibrationApply(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calibration.json")
	data := `{
		"2.femur": {"offset": -3.5},
		"2.tibia": {"offset": 1.25, "servo_min": 4100, "servo_max": 7900}
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	cal, err := LoadCalibration(path)
	if err != nil {
		t.Fatal(err)
	}

	h, err := New(&mockController{}, testParams(), cal)
	if err != nil {
		t.Fatal(err)
	}

	leg, _ := h.Leg(2)
	if !floatEquals(leg.Femur.CalibrationOffset, -3.5) {
		t.Errorf("femur offset = %v, want -3.5", leg.Femur.CalibrationOffset)
	}
	if !floatEquals(leg.Tibia.CalibrationOffset, 1.25) {
		t.Errorf("tibia offset = %v, want 1.25", leg.Tibia.CalibrationOffset)
	}
	if leg.Tibia.ServoMin != 4100 || leg.Tibia.ServoMax != 7900 {
		t.Errorf("tibia servo range = %d..%d, want 4100..7900", leg.Tibia.ServoMin, leg.Tibia.ServoMax)
	}
	// Unmeasured joints keep the configured defaults.
	if leg.Femur.ServoMin != 3968 || leg.Femur.ServoMax != 8000 {
		t.Errorf("femur servo range changed: %d..%d", leg.Femur.ServoMin, leg.Femur.ServoMax)
	}
	other, _ := h.Leg(1)
	if !floatEquals(other.Femur.CalibrationOffset, 0) {
		t.Errorf("leg 1 femur offset = %v, want 0", other.Femur.CalibrationOffset)
	}
}
