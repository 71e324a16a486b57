package tour

// Signal is a discrete input delivered by the host.
type Signal int

const (
	SignalEscape Signal = iota
	SignalEnter
	SignalAdvance
	SignalBack
	SignalBackdropClick
	SignalAdvanceClick
	SignalSkipClick
	SignalResize
)

var signalNames = map[Signal]string{
	SignalEscape:        "escape",
	SignalEnter:         "enter",
	SignalAdvance:       "advance",
	SignalBack:          "back",
	SignalBackdropClick: "backdrop-click",
	SignalAdvanceClick:  "advance-click",
	SignalSkipClick:     "skip-click",
	SignalResize:        "resize",
}

// ParseSignal returns the signal named name, as produced by String.
func ParseSignal(name string) (Signal, bool) {
	for sig, n := range signalNames {
		if n == name {
			return sig, true
		}
	}
	return 0, false
}

func (s Signal) String() string {
	if name, ok := signalNames[s]; ok {
		return name
	}
	return "unknown"
}

// Handle routes a host signal. Signals are ignored while the tour is not
// active; the return value reports whether the signal was consumed.
func (s *Sequencer) Handle(sig Signal) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.active {
		return false
	}

	switch sig {
	case SignalEscape, SignalBackdropClick, SignalSkipClick:
		s.complete(EventSkipped)
	case SignalEnter, SignalAdvance, SignalAdvanceClick:
		s.next()
	case SignalBack:
		s.previous()
	case SignalResize:
		s.resize()
	default:
		return false
	}
	return true
}
