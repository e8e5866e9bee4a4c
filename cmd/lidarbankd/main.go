// cmd/lidarbankd/main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tamzrod/lidar-bank/internal/api"
	"github.com/tamzrod/lidar-bank/internal/bridge"
	"github.com/tamzrod/lidar-bank/internal/config"
	"github.com/tamzrod/lidar-bank/internal/hw"
	"github.com/tamzrod/lidar-bank/internal/lidar"
	"github.com/tamzrod/lidar-bank/internal/metrics"
	"github.com/tamzrod/lidar-bank/internal/publish"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: lidarbankd <config.yaml>")
	}

	cfgPath := os.Args[1]

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	if err := config.Validate(cfg); err != nil {
		log.Fatalf("config validation failed: %v", err)
	}
	config.Normalize(cfg)

	bank := cfg.LidarBank

	// --------------------
	// Bus bridge
	// --------------------

	bus, err := bridge.New(bridge.Config{
		Device:  bank.Bus.Device,
		Baud:    bank.Bus.Baud,
		SlaveID: bank.Bus.SlaveID,
		Timeout: time.Duration(bank.Bus.TimeoutMs) * time.Millisecond,
	})
	if err != nil {
		log.Fatalf("bus bridge failed: %v", err)
	}
	defer bus.Close()

	// --------------------
	// Power pins
	// --------------------

	pins, err := buildPowerPins(bank, bus)
	if err != nil {
		log.Fatalf("power setup failed: %v", err)
	}
	if bank.Power.Driver == "gpio" {
		defer hw.CloseGPIO()
	}

	// --------------------
	// Controller + sensors
	// --------------------

	ctrl, err := lidar.NewController(lidar.Config{
		FaultThreshold:   bank.FaultThreshold,
		PowerOffSettle:   time.Duration(bank.PowerOffSettleMs) * time.Millisecond,
		PowerOnSettle:    time.Duration(bank.PowerOnSettleMs) * time.Millisecond,
		MaxJump:          bank.Validation.MaxJumpCm,
		MinDistance:      bank.Validation.MinCm,
		MaxDistance:      bank.Validation.MaxCm,
		ForceOffsetReset: *bank.ForceOffsetReset,
	}, bus, nil)
	if err != nil {
		log.Fatalf("controller build failed: %v", err)
	}

	m := metrics.New()
	ctrl.AttachReadingObserver(m)
	ctrl.AttachTransitionObserver(m)

	for i, sc := range bank.Sensors {
		preset, _ := config.PresetByName(sc.Preset)
		s := lidar.NewSensor(sc.Address, preset, pins[i])
		if err := ctrl.Add(s, sc.Slot); err != nil {
			log.Fatalf("sensor register failed (slot=%d): %v", sc.Slot, err)
		}
		log.Printf("sensor registered slot=%d address=0x%02x preset=%s",
			sc.Slot, sc.Address, sc.Preset)
	}

	// --------------------
	// MQTT publisher (optional)
	// --------------------

	if cfg.MQTT.Enabled {
		pub, err := publish.Connect(publish.Config{
			Host:     cfg.MQTT.Host,
			Port:     cfg.MQTT.Port,
			User:     cfg.MQTT.User,
			Password: cfg.MQTT.Password,
			ClientID: cfg.MQTT.ClientID,
			Topic:    cfg.MQTT.Topic,
		})
		if err != nil {
			log.Fatalf("mqtt connect failed: %v", err)
		}
		defer pub.Close()
		ctrl.AttachReadingObserver(pub)
	}

	// --------------------
	// HTTP introspection + metrics
	// --------------------

	srv := api.New(ctrl, m.Handler())
	go func() {
		log.Printf("http listening on %s", cfg.HTTP.Listen)
		if err := http.ListenAndServe(cfg.HTTP.Listen, srv.Router()); err != nil {
			log.Printf("http server stopped: %v", err)
		}
	}()

	// --------------------
	// Tick loop until signal
	// --------------------

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("bank running: %d sensors, tick=%dms", ctrl.Count(), bank.TickIntervalMs)
	ctrl.Run(ctx, time.Duration(bank.TickIntervalMs)*time.Millisecond)
	log.Printf("shutting down")
}

// buildPowerPins resolves the configured power driver into one pin per
// configured sensor, in declaration order.
func buildPowerPins(bank config.LidarBankConfig, bus *bridge.Client) ([]lidar.PowerPin, error) {
	pins := make([]lidar.PowerPin, len(bank.Sensors))

	switch bank.Power.Driver {
	case "gpio":
		if err := hw.OpenGPIO(); err != nil {
			return nil, err
		}
		for i, sc := range bank.Sensors {
			pins[i] = hw.NewGPIOPin(sc.PowerPin)
		}
	case "bridge":
		for i, sc := range bank.Sensors {
			if sc.PowerPin < 0 {
				return nil, fmt.Errorf("slot %d: bridge coil channel required", sc.Slot)
			}
			pins[i] = bus.PowerCoil(uint16(sc.PowerPin))
		}
	case "none":
		for i := range bank.Sensors {
			pins[i] = hw.NoopPin{}
		}
	default:
		return nil, fmt.Errorf("unknown power driver %q", bank.Power.Driver)
	}

	return pins, nil
}
