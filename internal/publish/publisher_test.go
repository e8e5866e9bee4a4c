// internal/publish/publisher_test.go
package publish

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/tamzrod/lidar-bank/internal/lidar"
)

func TestEncodeReading(t *testing.T) {
	at := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
	payload, err := EncodeReading(lidar.Reading{
		Slot:     2,
		Address:  0x66,
		Distance: 500,
		Last:     480,
		Strength: 0x42,
		Suspect:  false,
		At:       at,
	})
	if err != nil {
		t.Fatalf("EncodeReading: %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(payload, &got); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if got["slot"] != float64(2) || got["distance_cm"] != float64(500) {
		t.Fatalf("payload=%s", payload)
	}
	if got["last_distance_cm"] != float64(480) || got["suspect"] != false {
		t.Fatalf("payload=%s", payload)
	}
}

func TestConnect_RequiresHostAndTopic(t *testing.T) {
	if _, err := Connect(Config{}); err == nil {
		t.Fatalf("expected error for empty config")
	}
	if _, err := Connect(Config{Host: "broker"}); err == nil {
		t.Fatalf("expected error for missing topic")
	}
}
