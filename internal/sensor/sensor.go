// Package sensor runs the acquisition loop: poll the DHT on a ticker,
// derive dew point, and hand readings to the MQTT publisher.
package sensor

import (
	"context"
	"log/slog"
	"time"

	"dhtstation/internal/config"
	"dhtstation/internal/dht"
	"dhtstation/internal/mqtt"
	"dhtstation/internal/utils"
)

// Publisher is the slice of the MQTT client the loop needs.
type Publisher interface {
	PublishTelemetry(stationID string, telemetry mqtt.Telemetry) error
	PublishStationHealth(health mqtt.StationHealth) error
}

// Device is the sensor surface the loop consumes; *dht.Sensor satisfies it.
type Device interface {
	Read() dht.Status
	Temperature(scale dht.Scale) float64
	Humidity() float64
	Frame() [5]byte
}

// Run polls the sensor until ctx is canceled. Publish failures are logged
// and retried on the next tick; only ctx cancellation ends the loop. Note
// the sensor itself enforces its minimum sampling period, so a poll interval
// shorter than dht.MinSamplingPeriod just replays the previous result.
func Run(ctx context.Context, cfg config.Config, dev Device, pub Publisher) error {
	if cfg.SensorPollInterval < dht.MinSamplingPeriod {
		slog.Warn("poll interval below sensor refresh rate; readings will repeat",
			"interval", cfg.SensorPollInterval,
			"min_sampling_period", dht.MinSamplingPeriod,
		)
	}

	sequence := 0
	// Out-of-band initial value so the first read always publishes health.
	lastStatus := dht.Status(-1)

	ticker := time.NewTicker(cfg.SensorPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			status := dev.Read()

			if status != lastStatus {
				publishHealth(cfg, pub, status)
				lastStatus = status
			}

			if status != dht.StatusSuccess {
				slog.Warn("sensor read failed", "status", status.String())
				continue
			}

			sequence++
			temp := dev.Temperature(dht.Celsius)
			hum := dev.Humidity()

			frame := dev.Frame()
			slog.Debug("sensor frame validated",
				"data", utils.BytesToHex(frame[:]),
				"T", temp, "H", hum,
			)

			telemetry := mqtt.Telemetry{
				Timestamp:   time.Now(),
				Temperature: &temp,
				Humidity:    &hum,
				Sequence:    &sequence,
			}
			if hum > 0 {
				dew := dht.DewPointFast(temp, hum)
				telemetry.DewPoint = &dew
			}

			if err := pub.PublishTelemetry(cfg.DeviceStationID, telemetry); err != nil {
				slog.Warn("failed to publish telemetry",
					"station_id", cfg.DeviceStationID,
					"sequence", sequence,
					"error", err,
				)
			}
		}
	}
}

func publishHealth(cfg config.Config, pub Publisher, status dht.Status) {
	health := mqtt.StationHealth{
		StationID:    cfg.DeviceStationID,
		LastSeen:     time.Now(),
		Healthy:      status == dht.StatusSuccess,
		SensorStatus: status.String(),
	}
	if err := pub.PublishStationHealth(health); err != nil {
		slog.Warn("failed to publish station health",
			"station_id", cfg.DeviceStationID,
			"error", err,
		)
	}
}
