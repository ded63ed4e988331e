package app

import (
	"context"
	"fmt"
	"log/slog"

	"periph.io/x/host/v3"

	"dhtstation/internal/config"
	"dhtstation/internal/dht"
	"dhtstation/internal/mqtt"
	"dhtstation/internal/sensor"
)

func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("initializing station",
		"mqtt_broker", cfg.MQTTBroker,
		"mqtt_port", cfg.MQTTPort,
		"mqtt_client_id", cfg.MQTTClientID,
		"dht_pin", cfg.DHTPin,
		"dht_model", cfg.DHTModel,
		"poll_interval", cfg.SensorPollInterval,
	)

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("gpio host init: %w", err)
	}

	model, err := dht.ParseModel(cfg.DHTModel)
	if err != nil {
		return err
	}
	line, err := dht.OpenLine(cfg.DHTPin)
	if err != nil {
		return fmt.Errorf("open sensor line: %w", err)
	}
	dev := dht.New(line, model)

	mqttClient, err := mqtt.NewClient(cfg, slog.Default())
	if err != nil {
		return err
	}
	defer mqttClient.Disconnect()

	go func() {
		// Connect to MQTT broker with retry and backoff; the poll loop
		// starts regardless and publishes once connected.
		if err := mqttClient.Connect(ctx); err != nil {
			slog.Error("mqtt connect failed", "error", err)
		}
	}()

	if err := sensor.Run(ctx, cfg, dev, mqttClient); err != nil {
		slog.Info("station shutting down")
		return err
	}
	return nil
}
