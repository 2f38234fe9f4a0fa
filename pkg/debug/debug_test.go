package debug

import (
	"bytes"
	"testing"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := Output
	Output = &buf
	t.Cleanup(func() {
		Output = prev
		Enable(false)
		SetDetection(false)
	})
	return &buf
}

func TestLogGatedByEnable(t *testing.T) {
	buf := capture(t)

	Log("hidden %d\n", 1)
	if buf.Len() != 0 {
		t.Fatalf("printed while disabled: %q", buf.String())
	}

	Enable(true)
	if !Enabled() {
		t.Fatal("Enabled() = false after Enable(true)")
	}
	Log("shown %d\n", 2)
	if got := buf.String(); got != "shown 2\n" {
		t.Errorf("output = %q", got)
	}
}

func TestDetectLogIndependentOfEnable(t *testing.T) {
	buf := capture(t)

	Enable(true)
	DetectLog("marker %d\n", 7)
	if buf.Len() != 0 {
		t.Fatalf("detection dump printed while off: %q", buf.String())
	}

	SetDetection(true)
	if !Detection() {
		t.Fatal("Detection() = false after SetDetection(true)")
	}
	DetectLog("marker %d\n", 7)
	if got := buf.String(); got != "marker 7\n" {
		t.Errorf("output = %q", got)
	}
}
