package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"cabinetd/actuator"
	"cabinetd/cabinet"
	"cabinetd/thermo"
)

// Home Assistant topics
const (
	availabilityTopic = "projector_cabinet/availability"

	switchDiscoveryTopic = "homeassistant/switch/projector_cabinet/main_switch/config"
	switchStateTopic     = "projector_cabinet/switch/state"
	switchCommandTopic   = "projector_cabinet/switch/set"

	tempDiscoveryTopic = "homeassistant/sensor/projector_cabinet/temp/config"
	tempStateTopic     = "projector_cabinet/temp/state"

	targetDiscoveryTopic = "homeassistant/number/projector_cabinet/target/config"
	targetStateTopic     = "projector_cabinet/target/state"
	targetCommandTopic   = "projector_cabinet/target/set"

	fanDiscoveryTopic = "homeassistant/number/projector_cabinet/fan/config"
	fanStateTopic     = "projector_cabinet/fan/state"
	fanCommandTopic   = "projector_cabinet/fan/set"

	projectorDiscoveryTopic = "homeassistant/binary_sensor/projector_cabinet/projector/config"
	projectorStateTopic     = "projector_cabinet/projector/state"

	obstacleTopic = "projector_cabinet/obstacle"
)

// publisher is the MQTT client as seen by the telemetry.
type publisher interface {
	Subscribe(topic string) error
	Publish(topic string, payload string)
	PublishRetained(topic string, payload string)
}

// controller is the cabinet as seen by the telemetry.
type controller interface {
	Open(ctx context.Context) error
	Close(ctx context.Context) error
	IsOn() bool
	GetTemp(ctx context.Context) float64
	Target() float64
	SetTarget(mm float64) error
	FanDutyCycle() int
	SetFanDutyCycle(pct int) error
}

type device struct {
	Name             string   `json:"name"`
	ConfigurationURL string   `json:"configuration_url,omitempty"`
	Manufacturer     string   `json:"manufacturer"`
	Identifiers      []string `json:"identifiers"`
}

type discovery struct {
	Name              string   `json:"name"`
	UniqueID          string   `json:"unique_id"`
	CommandTopic      string   `json:"command_topic,omitempty"`
	StateTopic        string   `json:"state_topic"`
	AvailabilityTopic string   `json:"availability_topic"`
	DeviceClass       string   `json:"device_class,omitempty"`
	StateClass        string   `json:"state_class,omitempty"`
	Unit              string   `json:"unit_of_measurement,omitempty"`
	Min               *float64 `json:"min,omitempty"`
	Max               *float64 `json:"max,omitempty"`
	Step              float64  `json:"step,omitempty"`
	Device            device   `json:"device"`
}

type obstacleEvent struct {
	Direction string  `json:"direction"`
	Position  float64 `json:"position"`
	Target    float64 `json:"target"`
	Blocked   bool    `json:"blocked"`
}

// Telemetry announces the cabinet to Home Assistant, publishes its state
// and runs the commands it receives.
type Telemetry struct {
	pub      publisher
	cab      controller
	length   float64
	interval time.Duration
	device   device
	ctx      context.Context

	mu        sync.Mutex
	stopState context.CancelFunc
	projector *bool
}

// NewTelemetry creates the telemetry. The publisher is set before connecting.
// Moves started by commands run until done even when ctx is cancelled.
func NewTelemetry(ctx context.Context, cab controller, length float64, interval time.Duration, configURL string) *Telemetry {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Telemetry{
		cab:      cab,
		length:   length,
		interval: interval,
		ctx:      ctx,
		device: device{
			Name:             "Projector cabinet",
			ConfigurationURL: configURL,
			Manufacturer:     "cabinetd",
			Identifiers:      []string{"cabinet_device"},
		},
	}
}

// OnConnect announces the entities, subscribes to the command topics and
// starts the temperature loop.
func (t *Telemetry) OnConnect() {
	t.announce()

	for _, topic := range []string{switchCommandTopic, targetCommandTopic, fanCommandTopic} {
		if err := t.pub.Subscribe(topic); err != nil {
			log.Printf("Telemetry: %v", err)
		}
	}

	t.pub.PublishRetained(availabilityTopic, "online")
	t.PublishState()
	t.PublishSettings()

	t.mu.Lock()
	if t.stopState != nil {
		t.stopState()
	}
	ctx, cancel := context.WithCancel(t.ctx)
	t.stopState = cancel
	if t.projector != nil {
		t.publishProjector(*t.projector)
	}
	t.mu.Unlock()

	go t.stateLoop(ctx)
}

// OnDisconnect stops the temperature loop until the next connect.
func (t *Telemetry) OnDisconnect() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopState != nil {
		t.stopState()
		t.stopState = nil
	}
}

// OnMessage dispatches a command. Moves run in their own goroutine so the
// MQTT client keeps delivering messages.
func (t *Telemetry) OnMessage(topic string, payload []byte) {
	msg := string(payload)
	log.Printf("Telemetry: topic %q got message %q", topic, msg)

	switch topic {
	case switchCommandTopic:
		go t.handleSwitch(msg)
	case targetCommandTopic:
		t.handleTarget(msg)
	case fanCommandTopic:
		t.handleFan(msg)
	default:
		log.Printf("Telemetry: unknown topic %q", topic)
	}
}

func (t *Telemetry) handleSwitch(msg string) {
	ctx := context.WithoutCancel(t.ctx)

	var err error
	switch msg {
	case "ON":
		err = t.cab.Open(ctx)
	case "OFF":
		err = t.cab.Close(ctx)
	default:
		log.Printf("Telemetry: unknown switch command %q", msg)
	}

	switch {
	case errors.Is(err, cabinet.ErrBusy):
		log.Printf("Telemetry: switch %s ignored, cabinet is moving", msg)
	case err != nil:
		log.Printf("Telemetry: switch %s: %v", msg, err)
	}

	t.PublishState()
}

func (t *Telemetry) handleTarget(msg string) {
	mm, err := strconv.ParseFloat(msg, 64)
	if err == nil {
		err = t.cab.SetTarget(mm)
	}
	if err != nil {
		log.Printf("Telemetry: set target %q: %v", msg, err)
	}
	t.PublishSettings()
}

func (t *Telemetry) handleFan(msg string) {
	pct, err := strconv.Atoi(strings.TrimSpace(msg))
	if err == nil {
		err = t.cab.SetFanDutyCycle(pct)
	}
	if err != nil {
		log.Printf("Telemetry: set fan %q: %v", msg, err)
	}
	t.PublishSettings()
}

// PublishState publishes the switch state.
func (t *Telemetry) PublishState() {
	state := "OFF"
	if t.cab.IsOn() {
		state = "ON"
	}
	t.pub.PublishRetained(switchStateTopic, state)
}

// PublishSettings publishes the stored target and fan duty cycle.
func (t *Telemetry) PublishSettings() {
	t.pub.PublishRetained(targetStateTopic, strconv.FormatFloat(t.cab.Target(), 'f', -1, 64))
	t.pub.PublishRetained(fanStateTopic, strconv.Itoa(t.cab.FanDutyCycle()))
}

// PublishProjector publishes whether the projector draws power.
func (t *Telemetry) PublishProjector(on bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.projector = &on
	t.publishProjector(on)
}

func (t *Telemetry) publishProjector(on bool) {
	state := "OFF"
	if on {
		state = "ON"
	}
	t.pub.PublishRetained(projectorStateTopic, state)
}

// PublishObstacle reports an obstacle response of the actuator.
func (t *Telemetry) PublishObstacle(o actuator.Obstacle) {
	evt := obstacleEvent{
		Direction: o.Direction.String(),
		Position:  o.Position,
		Blocked:   o.Blocked,
	}
	if !o.Blocked {
		evt.Target = o.Target
	}
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("Telemetry: encode obstacle: %v", err)
		return
	}
	t.pub.Publish(obstacleTopic, string(data))
}

// stateLoop publishes the temperature until ctx is cancelled.
func (t *Telemetry) stateLoop(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		if temp := t.cab.GetTemp(ctx); temp != thermo.Invalid {
			t.pub.Publish(tempStateTopic, strconv.FormatFloat(temp, 'f', 2, 64))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (t *Telemetry) announce() {
	zero, length, hundred := 0.0, t.length, 100.0

	entities := []struct {
		topic string
		d     discovery
	}{
		{switchDiscoveryTopic, discovery{
			Name:         "Cabinet's switch",
			UniqueID:     "projector_cabinet_switch",
			CommandTopic: switchCommandTopic,
			StateTopic:   switchStateTopic,
		}},
		{tempDiscoveryTopic, discovery{
			Name:        "Cabinet's temperature",
			UniqueID:    "projector_cabinet_temp",
			StateTopic:  tempStateTopic,
			DeviceClass: "temperature",
			StateClass:  "measurement",
			Unit:        "°C",
		}},
		{targetDiscoveryTopic, discovery{
			Name:         "Cabinet's open position",
			UniqueID:     "projector_cabinet_target",
			CommandTopic: targetCommandTopic,
			StateTopic:   targetStateTopic,
			Unit:         "mm",
			Min:          &zero,
			Max:          &length,
			Step:         1,
		}},
		{fanDiscoveryTopic, discovery{
			Name:         "Cabinet's fan speed",
			UniqueID:     "projector_cabinet_fan",
			CommandTopic: fanCommandTopic,
			StateTopic:   fanStateTopic,
			Unit:         "%",
			Min:          &zero,
			Max:          &hundred,
			Step:         1,
		}},
		{projectorDiscoveryTopic, discovery{
			Name:        "Projector",
			UniqueID:    "projector_cabinet_projector",
			StateTopic:  projectorStateTopic,
			DeviceClass: "power",
		}},
	}

	for _, e := range entities {
		e.d.AvailabilityTopic = availabilityTopic
		e.d.Device = t.device

		data, err := json.Marshal(e.d)
		if err != nil {
			log.Printf("Telemetry: encode discovery: %v", err)
			continue
		}
		log.Printf("Telemetry: announcing cabinet capability on topic: %s", e.topic)
		t.pub.PublishRetained(e.topic, string(data))
	}
}
