package dht

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// periphLine adapts a periph.io pin to the Line interface. Direction changes
// map to Out/In calls; input mode engages the pull-up so the bus idles high.
type periphLine struct {
	pin gpio.PinIO
}

// OpenLine looks up a GPIO by its periph name (e.g. "GPIO4") and parks it
// driven high so the bus is idle and the sensor is ready for the first read.
// host.Init must have been called first.
func OpenLine(pinName string) (Line, error) {
	pin := gpioreg.ByName(pinName)
	if pin == nil {
		return nil, fmt.Errorf("gpio pin %q not found", pinName)
	}
	if err := pin.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("gpio pin %q out high: %w", pinName, err)
	}
	return &periphLine{pin: pin}, nil
}

func (l *periphLine) Output() error {
	// periph has no separate direction call; driving a level switches the
	// pin to output. Park high, matching the idle bus state.
	return l.pin.Out(gpio.High)
}

func (l *periphLine) Input() error {
	return l.pin.In(gpio.PullUp, gpio.NoEdge)
}

func (l *periphLine) Write(level Level) error {
	return l.pin.Out(gpio.Level(level))
}

func (l *periphLine) Read() Level {
	return Level(l.pin.Read())
}
