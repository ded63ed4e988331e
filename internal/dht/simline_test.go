package dht

import "time"

// segment is one stretch of the scripted waveform the fake sensor drives
// after the start signal is released.
type segment struct {
	micros int
	level  Level
}

// simLine plays a scripted waveform against a simulated microsecond clock.
// The sensor's delay function is pointed at advance, so polling iterations
// and fixed settles move the same clock the waveform is defined on. The
// clock restarts when the pin switches to input, i.e. at the moment the bus
// is handed to the sensor.
type simLine struct {
	t       int
	script  []segment
	writes  []Level
	outputs int
}

func (l *simLine) Output() error { l.outputs++; return nil }

func (l *simLine) Input() error { l.t = 0; return nil }

func (l *simLine) Write(level Level) error {
	l.writes = append(l.writes, level)
	return nil
}

func (l *simLine) Read() Level {
	t := l.t
	for _, seg := range l.script {
		if t < seg.micros {
			return seg.level
		}
		t -= seg.micros
	}
	// Script exhausted: the sensor released the bus and the pull-up wins.
	return High
}

func (l *simLine) advance(micros int) { l.t += micros }

// fakeClock stands in for time.Now so rate-limit windows can be crossed
// without sleeping.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// newSimSensor wires a Sensor to a scripted line and a fake clock, backdated
// so the first Read is not rate limited.
func newSimSensor(model Model, script []segment) (*Sensor, *simLine, *fakeClock) {
	line := &simLine{script: script}
	clk := &fakeClock{t: time.Unix(1700000000, 0)}
	s := New(line, model)
	s.delay = line.advance
	s.now = clk.Now
	s.lastRead = clk.Now().Add(-MinSamplingPeriod)
	return s, line, clk
}

// ackAndFrame builds the waveform a healthy sensor drives for one frame:
// a 20us response delay, the 80us/80us acknowledgment, then per bit a 50us
// low and a high of 26us (zero) or 70us (one).
func ackAndFrame(frame [frameSize]byte) []segment {
	segs := []segment{{20, High}, {80, Low}, {80, High}}
	for i := 0; i < frameBits; i++ {
		segs = append(segs, segment{50, Low})
		if frame[i/8]>>(7-i%8)&1 == 1 {
			segs = append(segs, segment{70, High})
		} else {
			segs = append(segs, segment{26, High})
		}
	}
	segs = append(segs, segment{50, Low})
	return segs
}

// checksummed fills in byte 4 so the frame passes validation.
func checksummed(b0, b1, b2, b3 byte) [frameSize]byte {
	return [frameSize]byte{b0, b1, b2, b3, b0 + b1 + b2 + b3}
}
