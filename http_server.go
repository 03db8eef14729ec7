package hatkit

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"

	"github.com/hubertat/hatkit/drivers"
)

const httpTimeoutsMs = 3000

type ioStatus struct {
	Name  string      `json:"name"`
	Slug  string      `json:"slug"`
	Kind  string      `json:"kind"`
	State interface{} `json:"state"`
}

type ledStatus struct {
	Mask   uint32                        `json:"mask"`
	Values [drivers.LedChannelCount]byte `json:"values"`
}

type boardStatus struct {
	Name  string     `json:"name"`
	Board string     `json:"board"`
	Io    []ioStatus `json:"io"`
	Leds  *ledStatus `json:"leds,omitempty"`
}

func (hk *HatKit) httpHandler() *httprouter.Router {
	handler := httprouter.New()
	handler.GET("/status", hk.handleStatus)
	handler.GET("/io/:slug", hk.handleIoState)
	if len(hk.HttpToken) > 0 {
		handler.GET("/io/:slug/set/:command/token/:token", hk.handleIoCommand)
	}

	return handler
}

// StartHttp serves board state over HTTP and, when HttpToken is set,
// accepts switch commands. Returns after the listener goroutine starts.
func (hk *HatKit) StartHttp() error {
	if len(hk.HttpAddr) == 0 {
		return errors.New("http address not set")
	}

	handler := hk.httpHandler()

	httpTimeout := httpTimeoutsMs * time.Millisecond

	hk.httpServer = &http.Server{
		Addr:              hk.HttpAddr,
		Handler:           handler,
		ReadTimeout:       httpTimeout,
		ReadHeaderTimeout: httpTimeout,
		WriteTimeout:      httpTimeout,
		IdleTimeout:       2 * httpTimeout,
	}

	hk.httpErr = make(chan error, 1)

	go func() {
		hk.httpErr <- hk.httpServer.ListenAndServe()
	}()

	return nil
}

func (hk *HatKit) ioStatuses() (statuses []ioStatus) {
	for _, in := range hk.Inputs {
		statuses = append(statuses, ioStatus{Name: in.Name, Slug: topicSlug(in.Name), Kind: "input", State: in.State})
	}
	for _, out := range hk.Outputs {
		statuses = append(statuses, ioStatus{Name: out.Name, Slug: topicSlug(out.Name), Kind: "output", State: out.State})
	}
	for _, relay := range hk.Relays {
		statuses = append(statuses, ioStatus{Name: relay.Name, Slug: topicSlug(relay.Name), Kind: "relay", State: relay.State})
	}
	for _, analog := range hk.Analogs {
		statuses = append(statuses, ioStatus{Name: analog.Name, Slug: topicSlug(analog.Name), Kind: "analog", State: analog.Value})
	}
	for _, light := range hk.StatusLights {
		statuses = append(statuses, ioStatus{Name: light.Name, Slug: topicSlug(light.Name), Kind: "light", State: light.Brightness})
	}

	return
}

func (hk *HatKit) findSwitchable(slug string) (Switchable, bool) {
	for _, out := range hk.Outputs {
		if topicSlug(out.Name) == slug {
			return out, true
		}
	}
	for _, relay := range hk.Relays {
		if topicSlug(relay.Name) == slug {
			return relay, true
		}
	}
	for _, light := range hk.StatusLights {
		if topicSlug(light.Name) == slug {
			return light, true
		}
	}

	return nil, false
}

func (hk *HatKit) handleStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	status := boardStatus{
		Name:  hk.clientName(),
		Board: hk.Board,
		Io:    hk.ioStatuses(),
	}
	if hk.mux != nil {
		values, mask := hk.mux.Snapshot()
		status.Leds = &ledStatus{Mask: mask, Values: values}
	}

	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(status)
	if err != nil {
		http.Error(w, "status encoding failed", http.StatusInternalServerError)
	}
}

func (hk *HatKit) handleIoState(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	slug := p.ByName("slug")
	for _, status := range hk.ioStatuses() {
		if status.Slug == slug {
			w.Header().Set("Content-Type", "application/json")
			err := json.NewEncoder(w).Encode(status)
			if err != nil {
				http.Error(w, "status encoding failed", http.StatusInternalServerError)
			}
			return
		}
	}

	http.Error(w, "io not found", http.StatusNotFound)
}

func (hk *HatKit) handleIoCommand(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	if !strings.EqualFold(p.ByName("token"), hk.HttpToken) {
		http.Error(w, "token mismatch", http.StatusUnauthorized)
		return
	}

	target, found := hk.findSwitchable(p.ByName("slug"))
	if !found {
		http.Error(w, "io not found", http.StatusNotFound)
		return
	}

	err := runSwitchCommand(target, strings.ToLower(p.ByName("command")))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusOK)
}
