package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"cabinetd/actuator"
	"cabinetd/admin"
	"cabinetd/eventpipe"
	"cabinetd/fan"
	"cabinetd/indicator"
	"cabinetd/mqtt"
	"cabinetd/power"
	"cabinetd/projector"
	"cabinetd/sensor"
	"cabinetd/sim"
	"cabinetd/thermo"
	"cabinetd/trigger"
)

// Config is the main configuration structure for cabinetd.
type Config struct {
	// MQTT connection settings
	MQTT mqtt.Config `yaml:"mqtt"`

	// Linear actuator and its H-bridge driver
	Actuator actuator.Config `yaml:"actuator"`

	// Serial bridge reporting position and current
	Sensor sensor.Config `yaml:"sensor"`

	// Simulated actuator used with -simulate
	Sim sim.Config `yaml:"sim"`

	// Effectors
	Fan fan.Config   `yaml:"fan"`
	USB power.Config `yaml:"usb"`

	// DS18B20 temperature sensor
	Thermo thermo.Config `yaml:"thermo"`

	// Projector supply current watcher
	Projector projector.Config `yaml:"projector"`

	// Physical controls
	Button trigger.ButtonConfig `yaml:"button"`
	Remote trigger.RemoteConfig `yaml:"remote"`
	Knob   trigger.KnobConfig   `yaml:"knob"`

	// Indicator configuration
	Indicator indicator.Config `yaml:"indicator"`

	// Local command pipe
	EventPipe eventpipe.Config `yaml:"event_pipe"`

	// Web admin page
	Admin admin.Config `yaml:"admin"`

	// General settings
	ClientID         string        `yaml:"client_id"`
	SettingsFile     string        `yaml:"settings_file"`     // persisted tunables, in memory only if empty
	StateInterval    time.Duration `yaml:"state_interval"`    // temperature publishing period (default 2s)
	ConfigurationURL string        `yaml:"configuration_url"` // shown by Home Assistant for the device
}

// loadConfig reads the YAML configuration file.
func loadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}

	if cfg.ClientID == "" {
		cfg.ClientID = "projector_cabinet"
	}
	if cfg.StateInterval <= 0 {
		cfg.StateInterval = 2 * time.Second
	}
	if cfg.Actuator.Length <= 0 {
		cfg.Actuator.Length = 200
	}
	if cfg.Sim.Length <= 0 {
		cfg.Sim.Length = cfg.Actuator.Length
	}
	return &cfg, nil
}
