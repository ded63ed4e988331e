package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppEnv       string
	LogLevel     slog.Level
	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string

	DHTPin             string
	DHTModel           string
	SensorPollInterval time.Duration
	DeviceStationID    string
}

func LoadFromEnv() (Config, error) {
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	mqttBroker := strings.TrimSpace(os.Getenv("MQTT_BROKER"))
	if mqttBroker == "" {
		mqttBroker = "localhost"
	}

	mqttPortStr := strings.TrimSpace(os.Getenv("MQTT_PORT"))
	if mqttPortStr == "" {
		mqttPortStr = "1883"
	}
	mqttPort, err := strconv.Atoi(mqttPortStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid MQTT_PORT %q: %w", mqttPortStr, err)
	}

	mqttClientID := strings.TrimSpace(os.Getenv("MQTT_CLIENT_ID"))
	if mqttClientID == "" {
		mqttClientID = "dhtstation"
	}

	dhtPin := strings.TrimSpace(os.Getenv("DHT_PIN"))
	if dhtPin == "" {
		dhtPin = "GPIO4"
	}

	dhtModel := strings.ToLower(strings.TrimSpace(os.Getenv("DHT_MODEL")))
	if dhtModel == "" {
		dhtModel = "dht22"
	}
	switch dhtModel {
	case "dht11", "dht22", "am2302":
	default:
		return Config{}, fmt.Errorf("invalid DHT_MODEL %q (allowed: dht11, dht22, am2302)", dhtModel)
	}

	sensorPollIntervalStr := strings.TrimSpace(os.Getenv("SENSOR_POLL_INTERVAL"))
	if sensorPollIntervalStr == "" {
		sensorPollIntervalStr = "5s"
	}
	sensorPollInterval, err := time.ParseDuration(sensorPollIntervalStr)
	if err != nil {
		return Config{}, fmt.Errorf("invalid SENSOR_POLL_INTERVAL %q: %w", sensorPollIntervalStr, err)
	}
	if sensorPollInterval <= 0 {
		return Config{}, fmt.Errorf("SENSOR_POLL_INTERVAL must be positive, got %v", sensorPollInterval)
	}

	deviceStationID := strings.TrimSpace(os.Getenv("DEVICE_STATION_ID"))
	if deviceStationID == "" {
		deviceStationID = "home"
	}

	return Config{
		AppEnv:             appEnv,
		LogLevel:           level,
		MQTTBroker:         mqttBroker,
		MQTTPort:           mqttPort,
		MQTTClientID:       mqttClientID,
		DHTPin:             dhtPin,
		DHTModel:           dhtModel,
		SensorPollInterval: sensorPollInterval,
		DeviceStationID:    deviceStationID,
	}, nil
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}
