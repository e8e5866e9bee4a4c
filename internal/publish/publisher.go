// internal/publish/publisher.go
package publish

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/tamzrod/lidar-bank/internal/lidar"
)

// Config describes the broker connection and the readings topic.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	ClientID string
	Topic    string
}

// Publisher delivers completed readings to an MQTT broker. It is a
// lidar.ReadingObserver: publishes are fire-and-forget (QoS 0) so the
// tick loop never waits on the network.
type Publisher struct {
	client mqtt.Client
	topic  string
}

// Connect dials the broker with exponential backoff and returns a
// ready Publisher.
func Connect(cfg Config) (*Publisher, error) {
	if cfg.Host == "" || cfg.Topic == "" {
		return nil, fmt.Errorf("publish: host and topic required")
	}
	if cfg.Port <= 0 {
		cfg.Port = 1883
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "lidarbankd"
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cfg.Host, cfg.Port))
	opts.SetUsername(cfg.User)
	opts.SetPassword(cfg.Password)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = 30 * time.Second

	var client mqtt.Client
	err := backoff.Retry(func() error {
		client = mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.Printf("publish: broker connect failed: %v", token.Error())
			return token.Error()
		}
		return nil
	}, bo)
	if err != nil {
		return nil, fmt.Errorf("publish: could not reach broker %s:%d: %w",
			cfg.Host, cfg.Port, err)
	}

	log.Printf("publish: connected to broker %s:%d topic=%s", cfg.Host, cfg.Port, cfg.Topic)
	return &Publisher{client: client, topic: cfg.Topic}, nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}

// ---- lidar.ReadingObserver ----

// ObserveReading publishes one reading. Failures are logged off the
// tick goroutine; delivery is best-effort by design.
func (p *Publisher) ObserveReading(r lidar.Reading) {
	payload, err := EncodeReading(r)
	if err != nil {
		log.Printf("publish: encode failed (slot=%d): %v", r.Slot, err)
		return
	}

	token := p.client.Publish(p.topic, 0, false, payload)
	go func() {
		if token.Wait() && token.Error() != nil {
			log.Printf("publish: delivery failed (slot=%d): %v", r.Slot, token.Error())
		}
	}()
}

// EncodeReading renders one reading as the JSON wire payload.
func EncodeReading(r lidar.Reading) ([]byte, error) {
	return json.Marshal(r)
}
