package topology

import (
	"fmt"

	"github.com/nerrad567/homegraph/internal/host"
	"github.com/nerrad567/homegraph/internal/host/memhost"
)

// Build validates doc and creates an in-memory host graph from it. Writes
// on the graph's characteristics go through w; a nil w selects
// memhost.Loopback.
func Build(doc *Document, w memhost.Writer) (*memhost.Graph, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	g := memhost.New(w)
	for _, h := range doc.Homes {
		home := g.AddHome(h.ID, h.Name)

		rooms := make(map[string]*memhost.Room, len(h.Rooms))
		for _, r := range h.Rooms {
			rooms[r.ID] = home.AddRoom(r.ID, r.Name)
		}

		for _, a := range h.Accessories {
			acc := home.AddAccessory(a.ID, a.Name, host.ParseCategory(a.Category), rooms[a.Room])
			if err := addServices(acc, a.Services); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

func addServices(acc *memhost.Accessory, services []Service) error {
	for _, s := range services {
		svc := acc.AddService(host.ParseServiceType(s.Type), s.Name)
		for _, c := range s.Characteristics {
			format, err := memhost.ParseFormat(c.Format)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
			}
			ch, err := svc.AddCharacteristic(host.ParseCharacteristicType(c.Type), format, c.Value)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
			}
			if c.ReadOnly {
				ch.SetReadOnly()
			}
		}
	}
	return nil
}
