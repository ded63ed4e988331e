// Package dht drives DHT11/DHT22-family temperature and humidity sensors
// over their single-wire pulse-width protocol.
//
// The protocol has no clock line: after the MCU asserts a start signal, the
// sensor answers with a fixed acknowledgment preamble and then 40 data
// pulses whose high-phase width encodes each bit. The decoder reconstructs
// the 5-byte frame by polling the line at microsecond granularity, so a read
// is blocking, non-reentrant and timing sensitive; hosts with preemptive
// schedulers should call Read from a context that will not be descheduled
// for more than a few microseconds during the bit loop.
package dht

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"
)

const (
	frameSize = 5
	frameBits = 40

	// MinSamplingPeriod is the shortest interval between two bus
	// transactions. The data sheet mandates 2s between reads; 3s keeps a
	// margin. Reads arriving earlier return the previous result without
	// touching the bus.
	MinSamplingPeriod = 3 * time.Second
)

// Protocol phase budgets and holds, in microseconds. These are mandated by
// the sensor timing diagram, not tunable.
const (
	settleMicros    = 1000 // pull-up settle before the start signal
	releaseMicros   = 30   // start signal release before handing the bus over
	ackGrabMicros   = 40   // sensor must grab the bus within this window
	ackPhaseMicros  = 100  // each 80us ack half-pulse, with margin
	bitLowMicros    = 75   // 50us inter-bit low, with margin
	bitSampleMicros = 40   // sample point: a 28us high reads 0, a 70us high reads 1
	bitHighMicros   = 50   // remaining high phase after the sample point
)

// Model selects the sensor variant. The two variants share the wire protocol
// but differ in the start-signal hold time and in how the frame encodes the
// physical values.
type Model uint8

const (
	DHT11 Model = iota
	DHT22
)

func (m Model) String() string {
	if m == DHT11 {
		return "dht11"
	}
	return "dht22"
}

// ParseModel maps a config string to a Model.
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dht11":
		return DHT11, nil
	case "dht22", "am2302":
		return DHT22, nil
	default:
		return 0, fmt.Errorf("unknown sensor model %q (allowed: dht11, dht22)", s)
	}
}

// Sensor owns one data line for its whole lifetime. It caches the last
// validated frame and the values decoded from it; a failed transaction never
// disturbs the cache. Not safe for concurrent use: the line is a shared
// physical resource and a transaction must run uninterrupted.
type Sensor struct {
	line  Line
	model Model

	// startHold is the low hold of the start signal: the DHT11 needs at
	// least 18ms to notice it, the DHT22 only 1ms (doubled for margin).
	startHold int
	decode    func(frame [frameSize]byte) (humidity, temperature float64)

	// delay and now are swapped out by tests for a simulated clock.
	delay func(micros int)
	now   func() time.Time

	lastRead    time.Time
	lastStatus  Status
	frame       [frameSize]byte
	temperature float64
	humidity    float64
}

// New binds a Sensor to its line. The line should already be parked high
// (OpenLine does this); backdating lastRead lets the first Read proceed
// immediately.
func New(line Line, model Model) *Sensor {
	s := &Sensor{
		line:  line,
		model: model,
		delay: defaultDelay,
		now:   time.Now,
	}
	switch model {
	case DHT11:
		s.startHold = 20000
		s.decode = decodeDHT11
	default:
		s.startHold = 2000
		s.decode = decodeDHT22
	}
	s.lastRead = s.now().Add(-MinSamplingPeriod)
	return s
}

// Model reports the sensor variant this session was built for.
func (s *Sensor) Model() Model { return s.model }

// Read runs one full transaction against the sensor and reports its outcome.
// Calls arriving within MinSamplingPeriod of the previous attempt return the
// previous outcome without any bus activity; the sensor cannot refresh
// faster and re-triggering it mid-cycle corrupts its internal state.
func (s *Sensor) Read() Status {
	now := s.now()
	if now.Sub(s.lastRead) < MinSamplingPeriod {
		return s.lastStatus
	}
	s.lastRead = now

	// The bit loop cannot tolerate a multi-millisecond GC pause.
	gcPercent := debug.SetGCPercent(-1)
	st := s.transact()
	debug.SetGCPercent(gcPercent)

	s.lastStatus = st
	return st
}

// LastStatus returns the outcome of the most recent transaction.
func (s *Sensor) LastStatus() Status { return s.lastStatus }

// Humidity returns the relative humidity percentage from the last validated
// frame. Idempotent between reads.
func (s *Sensor) Humidity() float64 { return s.humidity }

// Temperature returns the last validated temperature converted to the given
// scale. Celsius is the canonical cached value.
func (s *Sensor) Temperature(scale Scale) float64 {
	switch scale {
	case Fahrenheit:
		return CelsiusToFahrenheit(s.temperature)
	case Kelvin:
		return CelsiusToKelvin(s.temperature)
	default:
		return s.temperature
	}
}

// Frame returns the last validated 5-byte frame.
func (s *Sensor) Frame() [frameSize]byte { return s.frame }

// transact walks the protocol state machine from start signal to checksum.
// Every exit path is terminal for this transaction; retry policy belongs to
// the caller, after waiting out MinSamplingPeriod.
func (s *Sensor) transact() Status {
	// Start signal: settle high, hold low long enough for the sensor to
	// notice, release high briefly, then hand the bus to the sensor.
	if err := s.line.Output(); err != nil {
		return StatusBusBusy
	}
	if err := s.line.Write(High); err != nil {
		return StatusBusBusy
	}
	s.delay(settleMicros)
	if err := s.line.Write(Low); err != nil {
		return StatusBusBusy
	}
	s.delay(s.startHold)
	if err := s.line.Write(High); err != nil {
		return StatusBusBusy
	}
	s.delay(releaseMicros)
	if err := s.line.Input(); err != nil {
		return StatusBusBusy
	}

	// Acknowledgment preamble: the sensor grabs the bus by pulling it low,
	// then signals roughly 80us low and 80us high. A timeout on the last
	// phase is the sensor's tell that it was polled faster than it can
	// refresh, which is why it maps to a distinct status.
	if !s.waitOut(High, ackGrabMicros) {
		return StatusNotDetected
	}
	if !s.waitOut(Low, ackPhaseMicros) {
		return StatusSyncTimeout
	}
	if !s.waitOut(High, ackPhaseMicros) {
		return StatusTooFastReads
	}

	// Data phase: each bit is a ~50us low followed by a high whose width
	// encodes the bit. Sampling at a fixed 40us after the rising edge
	// separates the ~28us zero pulse from the ~70us one pulse without
	// measuring either.
	var bits [frameBits]byte
	for i := 0; i < frameBits; i++ {
		if !s.waitOut(Low, bitLowMicros) {
			return StatusDataTimeout
		}
		s.delay(bitSampleMicros)
		if s.line.Read() == High {
			bits[i] = 1
		}
		if !s.waitOut(High, bitHighMicros) {
			return StatusDataTimeout
		}
	}

	// Pack MSB-first and validate. A bad checksum discards the frame and
	// leaves the previously cached values untouched.
	var frame [frameSize]byte
	for i, b := range bits {
		if b == 1 {
			frame[i/8] |= 1 << (7 - i%8)
		}
	}
	if frame[4] != byte(frame[0]+frame[1]+frame[2]+frame[3]) {
		return StatusBadChecksum
	}

	s.frame = frame
	s.humidity, s.temperature = s.decode(frame)
	return StatusSuccess
}

// waitOut polls the line until it leaves the given level, returning false if
// the level persists beyond maxMicros. Note the polarity: this waits for the
// end of the current pulse, not for the arrival of a new one. Must not
// allocate; it runs inside the timing-critical window.
func (s *Sensor) waitOut(level Level, maxMicros int) bool {
	count := 0
	for s.line.Read() == level {
		if count > maxMicros {
			return false
		}
		count++
		s.delay(1)
	}
	return true
}

// defaultDelay sleeps for millisecond-scale holds and busy-spins below that.
// time.Sleep granularity on a multitasking kernel is far coarser than the
// tens-of-microsecond budgets in the bit loop, so short waits burn the CPU
// instead.
func defaultDelay(micros int) {
	d := time.Duration(micros) * time.Microsecond
	if micros >= 1000 {
		time.Sleep(d)
		return
	}
	start := time.Now()
	for time.Since(start) < d {
	}
}
