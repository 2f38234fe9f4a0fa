package tracking

import (
	"math"
	"testing"
)

func TestConfigPresetsValidate(t *testing.T) {
	for _, name := range []string{"", "default", "smooth", "responsive"} {
		cfg, err := ConfigByName(name)
		if err != nil {
			t.Fatalf("ConfigByName(%q): %v", name, err)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %q: %v", name, err)
		}
	}
	if _, err := ConfigByName("jittery"); err == nil {
		t.Error("unknown preset should fail")
	}
}

func TestConfigValidateSmoothing(t *testing.T) {
	tests := []struct {
		smoothing float64
		ok        bool
	}{
		{0.01, true},
		{0.5, true},
		{0.99, true},
		{0, false},
		{-0.2, false},
		{1, false},
		{1.5, false},
		{math.NaN(), false},
	}

	for _, tt := range tests {
		err := Config{PoseSmoothing: tt.smoothing}.Validate()
		if (err == nil) != tt.ok {
			t.Errorf("PoseSmoothing=%v: err=%v, want ok=%v", tt.smoothing, err, tt.ok)
		}
	}
}
