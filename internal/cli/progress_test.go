package cli

import (
	"bytes"
	"testing"
)

func TestProgress_disabledIsNoop(t *testing.T) {
	p := NewProgress(false, &bytes.Buffer{}, 10, "uploading")
	if p != nil {
		t.Fatal("expected nil progress when disabled")
	}
	p.Describe("x")
	p.Increment()
	p.Finish()

	stop := StartSpinner(false, "waiting")
	stop()
}

func TestProgress_enabled(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(true, &buf, 2, "uploading")
	if p == nil {
		t.Fatal("expected progress bar")
	}
	p.Increment()
	p.Describe("second")
	p.Increment()
	p.Finish()
	if buf.Len() == 0 {
		t.Error("expected the bar to write output")
	}
}
