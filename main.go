package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"cabinetd/actuator"
	"cabinetd/admin"
	"cabinetd/cabinet"
	"cabinetd/eventpipe"
	"cabinetd/fan"
	"cabinetd/indicator"
	"cabinetd/mqtt"
	"cabinetd/power"
	"cabinetd/projector"
	"cabinetd/sensor"
	"cabinetd/settings"
	"cabinetd/sim"
	"cabinetd/thermo"
	"cabinetd/trigger"
)

var myBuild string

// App holds the application state and dependencies.
type App struct {
	cfg       *Config
	bridge    *sensor.Bridge
	actuator  *actuator.Actuator
	settings  *settings.Store
	cabinet   *cabinet.Cabinet
	indicator indicator.Indicator
	mqtt      *mqtt.Client
	telemetry *Telemetry
	admin     *admin.Server
	projector *projector.Watcher
	pipe      *eventpipe.EventPipe
	button    *trigger.Button
	knob      *trigger.Knob
	remote    *trigger.Remote
	ctx       context.Context
	cancel    context.CancelFunc
}

func main() {
	fmt.Printf("cabinetd build %s\n", myBuild)

	cfgfile := flag.String("cfg", "cabinetd.yaml", "Config file")
	simulate := flag.Bool("simulate", false, "Drive a simulated actuator instead of the hardware")
	flag.Parse()

	cfg, err := loadConfig(*cfgfile)
	if err != nil {
		log.Fatal(err)
	}

	// Create application context
	ctx, cancel := context.WithCancel(context.Background())

	app := &App{
		cfg:    cfg,
		ctx:    ctx,
		cancel: cancel,
	}
	if err := app.init(*simulate); err != nil {
		log.Fatal(err)
	}
	app.start()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	fmt.Println("Shutting down...")
	cancel()
	app.shutdown()
	fmt.Println("Shutdown complete")
}

func (app *App) init(simulate bool) error {
	cfg := app.cfg

	// Initialize indicator (LEDs, neopixels, screen)
	var err error
	app.indicator, err = indicator.New(cfg.Indicator)
	if err != nil {
		return fmt.Errorf("init indicator: %w", err)
	}
	app.indicator.ConnectionLost() // Start with connection lost state

	hw, err := app.initHardware(simulate)
	if err != nil {
		return err
	}

	app.settings, err = settings.Open(cfg.SettingsFile, cfg.Actuator.Length)
	if err != nil {
		return fmt.Errorf("init settings: %w", err)
	}

	app.actuator, err = actuator.New(cfg.Actuator, hw, app.settings, actuator.Handlers{
		OnObstacle: app.onObstacle,
		OnMove:     app.onMove,
	})
	if err != nil {
		return fmt.Errorf("init actuator: %w", err)
	}

	fanOut, err := fan.New(cfg.Fan, app.settings.FanDutyCycle())
	if err != nil {
		return fmt.Errorf("init fan: %w", err)
	}
	usb, err := power.New(cfg.USB)
	if err != nil {
		return fmt.Errorf("init usb power: %w", err)
	}

	app.cabinet, err = cabinet.New(cabinet.Parts{
		Actuator:  app.actuator,
		Settings:  app.settings,
		Fan:       fanOut,
		USB:       usb,
		Thermo:    thermo.New(cfg.Thermo),
		Indicator: app.indicator,
	}, cabinet.Handlers{
		OnChange: app.onCabinetChange,
	})
	if err != nil {
		return fmt.Errorf("init cabinet: %w", err)
	}

	// Initialize MQTT
	app.telemetry = NewTelemetry(app.ctx, app.cabinet, cfg.Actuator.Length, cfg.StateInterval, cfg.ConfigurationURL)
	app.mqtt, err = mqtt.New(cfg.MQTT, cfg.ClientID,
		&mqtt.Message{Topic: availabilityTopic, Payload: "offline", Retained: true},
		mqtt.Handlers{
			OnConnect:    app.onMQTTConnect,
			OnDisconnect: app.onMQTTDisconnect,
			OnMessage:    app.telemetry.OnMessage,
		})
	if err != nil {
		return fmt.Errorf("init MQTT: %w", err)
	}
	app.telemetry.pub = app.mqtt

	app.admin = admin.New(cfg.Admin, app.cabinet)

	if app.bridge != nil {
		app.projector = projector.New(cfg.Projector, app.bridge, app.telemetry.PublishProjector)
	}

	app.pipe, err = eventpipe.New(cfg.EventPipe, app.onCommand)
	if err != nil {
		return fmt.Errorf("init event pipe: %w", err)
	}

	app.button, err = trigger.NewButton(cfg.Button, app.toggle)
	if err != nil {
		return fmt.Errorf("init button: %w", err)
	}
	app.knob, err = trigger.NewKnob(cfg.Knob, app.nudge, app.toggle)
	if err != nil {
		return fmt.Errorf("init knob: %w", err)
	}
	app.remote, err = trigger.NewRemote(cfg.Remote, app.toggle)
	if err != nil {
		return fmt.Errorf("init remote: %w", err)
	}

	return nil
}

// initHardware sets up the position and current sensors and the driver outputs.
func (app *App) initHardware(simulate bool) (actuator.Hardware, error) {
	if simulate {
		log.Printf("Simulating a %.0fmm actuator", app.cfg.Sim.Length)
		plant := sim.New(app.cfg.Sim)
		return actuator.Hardware{
			Position: plant,
			Current:  plant,
			Driver:   &actuator.Driver{IN1: plant.IN1(), IN2: plant.IN2()},
		}, nil
	}

	var err error
	app.bridge, err = sensor.Open(app.cfg.Sensor)
	if err != nil {
		return actuator.Hardware{}, fmt.Errorf("init sensor bridge: %w", err)
	}

	driver, err := actuator.NewDriver(app.cfg.Actuator.Driver)
	if err != nil {
		app.bridge.Close()
		return actuator.Hardware{}, fmt.Errorf("init driver: %w", err)
	}

	return actuator.Hardware{
		Position: app.bridge,
		Current:  app.bridge,
		Driver:   driver,
	}, nil
}

func (app *App) start() {
	if app.bridge != nil {
		go func() {
			if err := app.bridge.Run(app.ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Sensor bridge: %v", err)
			}
		}()
	}

	app.actuator.Start(app.ctx)

	go func() {
		if err := app.mqtt.Connect(); err != nil {
			log.Printf("MQTT connect: %v", err)
		}
	}()
	go func() {
		if err := app.admin.Run(app.ctx); err != nil {
			log.Printf("Admin: %v", err)
		}
	}()

	if app.projector != nil {
		go app.projector.Run(app.ctx)
	}
	if app.pipe != nil {
		go app.pipe.Start()
	}
	if app.remote != nil {
		go func() {
			if err := app.remote.Run(app.ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("Remote: %v", err)
			}
		}()
	}
}

func (app *App) shutdown() {
	app.mqtt.Disconnect()
	if app.pipe != nil {
		app.pipe.Close()
	}
	app.button.Release()
	app.knob.Release()
	app.remote.Close()

	if err := app.actuator.Release(); err != nil {
		log.Printf("Actuator release: %v", err)
	}
	app.indicator.Shutdown()
	if err := app.cabinet.Release(); err != nil {
		log.Printf("Cabinet release: %v", err)
	}
	if app.bridge != nil {
		app.bridge.Close()
	}
}

func (app *App) onMQTTConnect() {
	app.telemetry.OnConnect()
	if app.cabinet.Moving() {
		return
	}
	if app.cabinet.IsOn() {
		app.indicator.Open()
	} else {
		app.indicator.Closed()
	}
}

func (app *App) onMQTTDisconnect() {
	app.telemetry.OnDisconnect()
	app.indicator.ConnectionLost()
}

func (app *App) onCabinetChange(on bool) {
	app.telemetry.PublishState()
	app.admin.Notify()
}

func (app *App) onObstacle(o actuator.Obstacle) {
	app.telemetry.PublishObstacle(o)
}

func (app *App) onMove(target float64, err error) {
	if err != nil {
		log.Printf("Move to %.1fmm failed: %v", target, err)
	}
}

// toggle handles the button and the remote.
func (app *App) toggle() {
	err := app.cabinet.Toggle(app.ctx)
	if errors.Is(err, cabinet.ErrBusy) {
		log.Println("Trigger ignored, cabinet is moving")
	} else if err != nil {
		log.Printf("Trigger: %v", err)
	}
}

// nudge moves the stored open position by one knob detent.
func (app *App) nudge(deltaMM float64) {
	target := app.cabinet.Target() + deltaMM
	target = max(0, min(target, app.cfg.Actuator.Length))
	if err := app.cabinet.SetTarget(target); err != nil {
		log.Printf("Knob: %v", err)
		return
	}
	app.telemetry.PublishSettings()
	app.admin.Notify()
}

// onCommand handles a command from the event pipe.
func (app *App) onCommand(cmd eventpipe.Command) {
	var err error
	switch cmd.Name {
	case eventpipe.CmdOpen:
		err = app.cabinet.Open(app.ctx)
	case eventpipe.CmdClose:
		err = app.cabinet.Close(app.ctx)
	case eventpipe.CmdToggle:
		err = app.cabinet.Toggle(app.ctx)
	case eventpipe.CmdTarget:
		if err = app.cabinet.SetTarget(cmd.Value); err == nil {
			app.telemetry.PublishSettings()
			app.admin.Notify()
		}
	case eventpipe.CmdFan:
		if err = app.cabinet.SetFanDutyCycle(int(cmd.Value)); err == nil {
			app.telemetry.PublishSettings()
			app.admin.Notify()
		}
	default:
		err = fmt.Errorf("unknown command %q", cmd.Name)
	}
	if err != nil {
		log.Printf("Event pipe %s: %v", cmd.Name, err)
	}
}
