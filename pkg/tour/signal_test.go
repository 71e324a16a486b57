package tour_test

import (
	"testing"

	"github.com/vanderheijden86/storytour/pkg/tour"
)

func TestParseSignalRoundTrip(t *testing.T) {
	all := []tour.Signal{
		tour.SignalEscape, tour.SignalEnter, tour.SignalAdvance, tour.SignalBack,
		tour.SignalBackdropClick, tour.SignalAdvanceClick, tour.SignalSkipClick, tour.SignalResize,
	}
	for _, sig := range all {
		got, ok := tour.ParseSignal(sig.String())
		if !ok || got != sig {
			t.Errorf("ParseSignal(%q) = %v, %v; want %v", sig.String(), got, ok, sig)
		}
	}
	if _, ok := tour.ParseSignal("unknown"); ok {
		t.Error("Expected unknown signal name to be rejected")
	}
	if got := tour.Signal(99).String(); got != "unknown" {
		t.Errorf("Expected unknown for out-of-range signal, got %q", got)
	}
}
