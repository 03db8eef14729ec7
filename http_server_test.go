package hatkit

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func httpTestKit(t *testing.T) *HatKit {
	t.Helper()

	hk := mockKit()
	hk.HttpToken = "sesame"
	if err := hk.InitDrivers(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { hk.Close() })
	if err := hk.InitIos(); err != nil {
		t.Fatal(err)
	}

	return hk
}

func TestHttpStatus(t *testing.T) {
	hk := httpTestKit(t)
	handler := hk.httpHandler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/status", nil))

	if rec.Code != 200 {
		t.Fatalf("got status %d want 200", rec.Code)
	}

	var status boardStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status.Board != "automationhat" {
		t.Errorf("got board %q", status.Board)
	}
	if len(status.Io) != 15 {
		t.Errorf("got %d io entries want 15", len(status.Io))
	}
	if status.Leds == nil {
		t.Error("led state missing from status")
	}
}

func TestHttpIoState(t *testing.T) {
	hk := httpTestKit(t)
	handler := hk.httpHandler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/io/input_one", nil))

	if rec.Code != 200 {
		t.Fatalf("got status %d want 200", rec.Code)
	}
	var status ioStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatal(err)
	}
	if status.Name != "Input One" || status.Kind != "input" {
		t.Errorf("got %s/%s want Input One/input", status.Name, status.Kind)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/io/nope", nil))
	if rec.Code != 404 {
		t.Errorf("got status %d want 404 for unknown io", rec.Code)
	}
}

func TestHttpIoCommand(t *testing.T) {
	hk := httpTestKit(t)
	handler := hk.httpHandler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/io/relay_three/set/on/token/sesame", nil))
	if rec.Code != 200 {
		t.Fatalf("got status %d want 200, body: %s", rec.Code, rec.Body.String())
	}
	if !hk.Relays[2].State {
		t.Error("command did not reach the relay")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/io/relay_three/set/off/token/wrong", nil))
	if rec.Code != 401 {
		t.Errorf("got status %d want 401 for bad token", rec.Code)
	}
	if !hk.Relays[2].State {
		t.Error("rejected command reached the relay")
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/io/nope/set/on/token/sesame", nil))
	if rec.Code != 404 {
		t.Errorf("got status %d want 404 for unknown io", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/io/relay_three/set/banana/token/sesame", nil))
	if rec.Code != 400 {
		t.Errorf("got status %d want 400 for unknown command", rec.Code)
	}
}

func TestHttpCommandDisabledWithoutToken(t *testing.T) {
	hk := httpTestKit(t)
	hk.HttpToken = ""
	handler := hk.httpHandler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/io/relay_three/set/on/token/anything", nil))
	if rec.Code != 404 {
		t.Errorf("got status %d want 404, command routes absent without a token", rec.Code)
	}
}
