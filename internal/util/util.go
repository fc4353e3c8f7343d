package util

import (
	"github.com/berfenger/smile2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Smile: config.SmileConfig{
			Host:            "-.-.-.-",
			Password:        "glmwncsp",
			TimeoutMillis:   10000,
			RelayLockPolicy: "block",
		},
		MQTT: config.MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			BaseTopic: "smile2mqtt",
		},
		MonitorConfig: config.MonitorConfig{
			PollIntervalMillis: 5000,
		},
		Port: 8080,
	}
}
