// internal/api/server_test.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/tamzrod/lidar-bank/internal/lidar"
)

type fakeBank struct {
	snaps    []lidar.SensorSnapshot
	setSlot  int
	setState lidar.State
	resets   []int
}

func (f *fakeBank) Snapshot() []lidar.SensorSnapshot { return f.snaps }
func (f *fakeBank) Count() int                       { return len(f.snaps) }

func (f *fakeBank) State(slot int) (lidar.State, error) {
	for _, s := range f.snaps {
		if s.Slot == slot {
			return lidar.StateAcquisitionReady, nil
		}
	}
	return 0, fmt.Errorf("no sensor at slot %d", slot)
}

func (f *fakeBank) SetState(slot int, st lidar.State) error {
	if _, err := f.State(slot); err != nil {
		return err
	}
	f.setSlot, f.setState = slot, st
	return nil
}

func (f *fakeBank) Reset(slot int) error {
	if _, err := f.State(slot); err != nil {
		return err
	}
	f.resets = append(f.resets, slot)
	return nil
}

func testBank() *fakeBank {
	return &fakeBank{snaps: []lidar.SensorSnapshot{
		{Slot: 0, Address: 0x66, State: "acquisition_ready", Distance: 500},
		{Slot: 3, Address: 0x68, State: "awaiting_reset"},
	}}
}

func doRequest(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func TestRoot(t *testing.T) {
	srv := New(testBank(), nil)
	rec := doRequest(t, srv, http.MethodGet, "/", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d", rec.Code)
	}
	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["service"] != "lidar-bank" || body["sensors"] != float64(2) {
		t.Fatalf("body=%v", body)
	}
}

func TestListSensors(t *testing.T) {
	srv := New(testBank(), nil)
	rec := doRequest(t, srv, http.MethodGet, "/sensors", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d", rec.Code)
	}
	var body struct {
		Sensors []lidar.SensorSnapshot `json:"sensors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Sensors) != 2 || body.Sensors[1].Slot != 3 {
		t.Fatalf("sensors=%v", body.Sensors)
	}
}

func TestGetSensor(t *testing.T) {
	srv := New(testBank(), nil)

	rec := doRequest(t, srv, http.MethodGet, "/sensors/0", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d", rec.Code)
	}
	var snap lidar.SensorSnapshot
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Distance != 500 {
		t.Fatalf("snap=%+v", snap)
	}

	rec = doRequest(t, srv, http.MethodGet, "/sensors/5", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing slot code=%d", rec.Code)
	}
}

func TestSetState(t *testing.T) {
	bank := testBank()
	srv := New(bank, nil)

	rec := doRequest(t, srv, http.MethodPost, "/sensors/0/state", `{"state":"needs_configure"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d body=%s", rec.Code, rec.Body.String())
	}
	if bank.setSlot != 0 || bank.setState != lidar.StateNeedsConfigure {
		t.Fatalf("slot=%d state=%v", bank.setSlot, bank.setState)
	}
}

func TestSetState_UnknownName(t *testing.T) {
	srv := New(testBank(), nil)
	rec := doRequest(t, srv, http.MethodPost, "/sensors/0/state", `{"state":"warp_drive"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code=%d", rec.Code)
	}
}

func TestReset(t *testing.T) {
	bank := testBank()
	srv := New(bank, nil)

	rec := doRequest(t, srv, http.MethodPost, "/sensors/3/reset", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code=%d", rec.Code)
	}
	if len(bank.resets) != 1 || bank.resets[0] != 3 {
		t.Fatalf("resets=%v", bank.resets)
	}

	rec = doRequest(t, srv, http.MethodPost, "/sensors/7/reset", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing slot code=%d", rec.Code)
	}
}
