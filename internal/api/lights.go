package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/homegraph/internal/audit"
	"github.com/nerrad567/homegraph/internal/bridge"
	"github.com/nerrad567/homegraph/internal/home"
	"github.com/nerrad567/homegraph/internal/host"
	"github.com/nerrad567/homegraph/internal/host/memhost"
)

// homeView is the JSON form of a home.Home.
type homeView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// roomView is the JSON form of a home.Room.
type roomView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// lightView is the JSON form of a home.Light. Value fields are omitted when
// the light lacks the characteristic or its cached value is unknown.
type lightView struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	RoomID       string   `json:"room_id,omitempty"`
	Capabilities []string `json:"capabilities"`
	On           *bool    `json:"on,omitempty"`
	Brightness   *int     `json:"brightness,omitempty"`
	Hue          *int     `json:"hue,omitempty"`
}

// lightStateRequest is the body of PUT /lights/{id}/state. Hue is in
// degrees; brightness is a percentage clamped to [0,100].
type lightStateRequest struct {
	On         *bool `json:"on"`
	Brightness *int  `json:"brightness"`
	Hue        *int  `json:"hue"`
}

func newHomeView(h home.Home) homeView { return homeView{ID: h.ID, Name: h.Name} }
func newRoomView(r home.Room) roomView { return roomView{ID: r.ID, Name: r.Name} }

func newLightView(l home.Light) lightView {
	v := lightView{ID: l.ID, Name: l.Name, RoomID: l.RoomID, Capabilities: []string{}}
	if l.Power != nil {
		v.Capabilities = append(v.Capabilities, "power")
		if on, ok := l.Power.Value(); ok {
			v.On = &on
		}
	}
	if l.Brightness != nil {
		v.Capabilities = append(v.Capabilities, "brightness")
		if b, ok := l.Brightness.Value(); ok {
			v.Brightness = &b
		}
	}
	if l.Color != nil {
		v.Capabilities = append(v.Capabilities, "color")
		if c, ok := l.Color.Value(); ok {
			deg := c.HueDegrees()
			v.Hue = &deg
		}
	}
	return v
}

func mapViews[T, V any](in []T, fn func(T) V) []V {
	out := make([]V, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}

// findHome resolves a home by ID.
func (s *Server) findHome(id string) (home.Home, bool) {
	for _, h := range s.dir.Homes() {
		if h.ID == id {
			return h, true
		}
	}
	return home.Home{}, false
}

// findRoom resolves a room by ID across all homes.
func (s *Server) findRoom(id string) (home.Room, bool) {
	for _, h := range s.dir.Homes() {
		for _, r := range s.dir.Rooms(h) {
			if r.ID == id {
				return r, true
			}
		}
	}
	return home.Room{}, false
}

func (s *Server) handleListHomes(w http.ResponseWriter, _ *http.Request) {
	homes := mapViews(s.dir.Homes(), newHomeView)
	writeJSON(w, http.StatusOK, map[string]any{"homes": homes, "count": len(homes)})
}

func (s *Server) handleHomeRooms(w http.ResponseWriter, r *http.Request) {
	h, ok := s.findHome(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w, "home not found")
		return
	}
	rooms := mapViews(s.dir.Rooms(h), newRoomView)
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms, "count": len(rooms)})
}

func (s *Server) handleHomeLights(w http.ResponseWriter, r *http.Request) {
	h, ok := s.findHome(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w, "home not found")
		return
	}
	lights := mapViews(s.dir.Lights(h), newLightView)
	writeJSON(w, http.StatusOK, map[string]any{"lights": lights, "count": len(lights)})
}

func (s *Server) handleRoomHome(w http.ResponseWriter, r *http.Request) {
	room, ok := s.findRoom(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w, "room not found")
		return
	}
	h, ok := s.dir.HomeForRoom(room)
	if !ok {
		writeNotFound(w, "no home contains this room")
		return
	}
	writeJSON(w, http.StatusOK, newHomeView(h))
}

func (s *Server) handleRoomLights(w http.ResponseWriter, r *http.Request) {
	room, ok := s.findRoom(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w, "room not found")
		return
	}
	lights := mapViews(s.dir.LightsInRoom(room), newLightView)
	writeJSON(w, http.StatusOK, map[string]any{"lights": lights, "count": len(lights)})
}

func (s *Server) handleGetLight(w http.ResponseWriter, r *http.Request) {
	l, ok := s.dir.Light(chi.URLParam(r, "id"))
	if !ok {
		writeNotFound(w, "light not found")
		return
	}
	writeJSON(w, http.StatusOK, newLightView(l))
}

// handleSetLightState applies power, then brightness, then hue, waiting
// for each write's device outcome before the next.
func (s *Server) handleSetLightState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	l, ok := s.dir.Light(id)
	if !ok {
		writeNotFound(w, "light not found")
		return
	}

	var req lightStateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, Error{Code: ErrCodeTooLarge, Message: fmt.Sprintf("body exceeds %d bytes", tooLarge.Limit)})
			return
		}
		writeBadRequest(w, "invalid JSON body")
		return
	}
	writes, err := planWrites(l, req)
	if err != nil {
		writeError(w, Error{Code: ErrCodeUnsupported, Message: err.Error()})
		return
	}

	for _, wr := range writes {
		ctx, cancel := context.WithTimeout(r.Context(), s.writeTimeout)
		err = home.Await(ctx, wr.write)
		cancel()
		if err != nil {
			code := classifyWriteError(err)
			s.logger.Warn("light write failed",
				"light_id", id,
				"field", wr.field,
				"error", err,
				"request_id", requestIDFrom(r.Context()),
			)
			s.auditWrite(r, id, wr, code, err)
			writeError(w, Error{Code: code, Message: fmt.Sprintf("setting %s: %v", wr.field, err), Field: wr.field})
			return
		}
		s.auditWrite(r, id, wr, audit.OutcomeOK, nil)
	}

	// Re-read through the directory so the response reflects the cache.
	l, _ = s.dir.Light(id)
	writeJSON(w, http.StatusOK, newLightView(l))
}

type fieldWrite struct {
	field string
	value any
	write func(done host.Completion)
}

// planWrites validates req against the light's capabilities.
func planWrites(l home.Light, req lightStateRequest) ([]fieldWrite, error) {
	var writes []fieldWrite

	if req.On != nil {
		if l.Power == nil {
			return nil, fmt.Errorf("light %s has no power control", l.ID)
		}
		on := *req.On
		writes = append(writes, fieldWrite{"on", on, func(done host.Completion) { l.Power.Set(on, done) }})
	}
	if req.Brightness != nil {
		if l.Brightness == nil {
			return nil, fmt.Errorf("light %s is not dimmable", l.ID)
		}
		b := *req.Brightness
		writes = append(writes, fieldWrite{"brightness", b, func(done host.Completion) { l.Brightness.Set(b, done) }})
	}
	if req.Hue != nil {
		if l.Color == nil {
			return nil, fmt.Errorf("light %s has no color control", l.ID)
		}
		deg := *req.Hue
		if deg < 0 || deg >= 360 {
			return nil, fmt.Errorf("hue must be in [0,360), got %d", deg)
		}
		writes = append(writes, fieldWrite{"hue", deg, func(done host.Completion) { l.Color.Set(home.HSBFromDegrees(deg), done) }})
	}

	if len(writes) == 0 {
		return nil, errors.New("request sets no fields")
	}
	return writes, nil
}

// classifyWriteError maps a device write failure to an error code.
func classifyWriteError(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, bridge.ErrAckTimeout):
		return ErrCodeDeviceTimeout
	case errors.Is(err, memhost.ErrReadOnly):
		return ErrCodeConflict
	case errors.Is(err, memhost.ErrInvalidValue):
		return ErrCodeBadRequest
	case errors.Is(err, context.Canceled):
		// Client went away; nobody reads the response.
		return ErrCodeUnavailable
	default:
		return ErrCodeDeviceFailed
	}
}
