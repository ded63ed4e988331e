package dht

// Level is a digital logic level on the data line.
type Level bool

const (
	Low  Level = false
	High Level = true
)

func (l Level) String() string {
	if l == High {
		return "high"
	}
	return "low"
}

// Line is the single bidirectional GPIO the sensor shares with the MCU.
// Output/Input switch the pin direction; Read samples the current level in
// input mode. Implementations must keep Read cheap: the decoder polls it
// once per microsecond during a transaction.
type Line interface {
	// Output switches the pin to driven output mode.
	Output() error
	// Input switches the pin to input mode with the pull-up engaged, so the
	// line floats high until the sensor pulls it low.
	Input() error
	// Write drives the pin to the given level. Only valid in output mode.
	Write(Level) error
	// Read samples the pin. Only valid in input mode.
	Read() Level
}
