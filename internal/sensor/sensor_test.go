package sensor

import (
	"context"
	"sync"
	"testing"
	"time"

	"dhtstation/internal/config"
	"dhtstation/internal/dht"
	"dhtstation/internal/mqtt"
)

// fakeDevice scripts a sequence of read outcomes.
type fakeDevice struct {
	mu       sync.Mutex
	statuses []dht.Status
	reads    int

	temperature float64
	humidity    float64
	frame       [5]byte
}

func (d *fakeDevice) Read() dht.Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	st := d.statuses[0]
	if len(d.statuses) > 1 {
		d.statuses = d.statuses[1:]
	}
	d.reads++
	return st
}

func (d *fakeDevice) Temperature(dht.Scale) float64 { return d.temperature }
func (d *fakeDevice) Humidity() float64             { return d.humidity }
func (d *fakeDevice) Frame() [5]byte                { return d.frame }

// fakePublisher records publishes.
type fakePublisher struct {
	mu        sync.Mutex
	telemetry []mqtt.Telemetry
	stations  []string
	health    []mqtt.StationHealth
}

func (p *fakePublisher) PublishTelemetry(stationID string, t mqtt.Telemetry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stations = append(p.stations, stationID)
	p.telemetry = append(p.telemetry, t)
	return nil
}

func (p *fakePublisher) PublishStationHealth(h mqtt.StationHealth) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.health = append(p.health, h)
	return nil
}

func (p *fakePublisher) snapshot() ([]mqtt.Telemetry, []string, []mqtt.StationHealth) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]mqtt.Telemetry(nil), p.telemetry...),
		append([]string(nil), p.stations...),
		append([]mqtt.StationHealth(nil), p.health...)
}

func runLoop(t *testing.T, dev Device, pub Publisher, ticks int) {
	t.Helper()
	cfg := config.Config{
		DeviceStationID:    "home",
		SensorPollInterval: 5 * time.Millisecond,
	}
	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(ticks)*cfg.SensorPollInterval+cfg.SensorPollInterval/2)
	defer cancel()
	if err := Run(ctx, cfg, dev, pub); err != context.DeadlineExceeded {
		t.Fatalf("Run() = %v; want deadline exceeded", err)
	}
}

func TestRunPublishesTelemetry(t *testing.T) {
	dev := &fakeDevice{
		statuses:    []dht.Status{dht.StatusSuccess},
		temperature: 21.5,
		humidity:    60,
		frame:       [5]byte{0x02, 0x58, 0x00, 0xD7, 0x31},
	}
	pub := &fakePublisher{}

	runLoop(t, dev, pub, 3)

	telemetry, stations, _ := pub.snapshot()
	if len(telemetry) == 0 {
		t.Fatal("no telemetry published")
	}
	for _, id := range stations {
		if id != "home" {
			t.Errorf("station id = %q; want home", id)
		}
	}
	first := telemetry[0]
	if first.Temperature == nil || *first.Temperature != 21.5 {
		t.Errorf("temperature = %v; want 21.5", first.Temperature)
	}
	if first.Humidity == nil || *first.Humidity != 60 {
		t.Errorf("humidity = %v; want 60", first.Humidity)
	}
	if first.DewPoint == nil {
		t.Error("dew point missing from telemetry")
	} else if want := dht.DewPointFast(21.5, 60); *first.DewPoint != want {
		t.Errorf("dew point = %v; want %v", *first.DewPoint, want)
	}
	if first.Sequence == nil || *first.Sequence != 1 {
		t.Errorf("sequence = %v; want 1", first.Sequence)
	}
}

func TestRunSequenceIncrements(t *testing.T) {
	dev := &fakeDevice{
		statuses:    []dht.Status{dht.StatusSuccess},
		temperature: 20,
		humidity:    50,
	}
	pub := &fakePublisher{}

	runLoop(t, dev, pub, 4)

	telemetry, _, _ := pub.snapshot()
	if len(telemetry) < 2 {
		t.Fatalf("published %d telemetry messages; want at least 2", len(telemetry))
	}
	for i, tm := range telemetry {
		if tm.Sequence == nil || *tm.Sequence != i+1 {
			t.Errorf("telemetry[%d].Sequence = %v; want %d", i, tm.Sequence, i+1)
		}
	}
}

func TestRunReportsHealthTransitions(t *testing.T) {
	// First read fails, then the sensor recovers.
	dev := &fakeDevice{
		statuses:    []dht.Status{dht.StatusNotDetected, dht.StatusSuccess},
		temperature: 20,
		humidity:    50,
	}
	pub := &fakePublisher{}

	runLoop(t, dev, pub, 4)

	_, _, health := pub.snapshot()
	if len(health) < 2 {
		t.Fatalf("published %d health messages; want at least 2 (fail, recover)", len(health))
	}
	if health[0].Healthy {
		t.Error("first health report healthy; want unhealthy after failed read")
	}
	if health[0].SensorStatus != dht.StatusNotDetected.String() {
		t.Errorf("first health status = %q; want %q", health[0].SensorStatus, dht.StatusNotDetected.String())
	}
	if !health[1].Healthy {
		t.Error("second health report unhealthy; want healthy after recovery")
	}
}

func TestRunSkipsTelemetryOnFailure(t *testing.T) {
	dev := &fakeDevice{statuses: []dht.Status{dht.StatusDataTimeout}}
	pub := &fakePublisher{}

	runLoop(t, dev, pub, 3)

	telemetry, _, _ := pub.snapshot()
	if len(telemetry) != 0 {
		t.Errorf("published %d telemetry messages on failing sensor; want 0", len(telemetry))
	}
}
