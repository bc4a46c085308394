package topology

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nerrad567/homegraph/internal/host/memhost"
)

// Document is the root of a topology file.
type Document struct {
	Homes []Home `yaml:"homes"`
}

// Home is one home and everything in it.
type Home struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Rooms       []Room      `yaml:"rooms"`
	Accessories []Accessory `yaml:"accessories"`
}

// Room is a room within a home.
type Room struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// Accessory is a device. Room is the ID of a room in the same home, or
// empty when the accessory is unassigned.
type Accessory struct {
	ID       string    `yaml:"id"`
	Name     string    `yaml:"name"`
	Category string    `yaml:"category"`
	Room     string    `yaml:"room,omitempty"`
	Services []Service `yaml:"services"`
}

// Service groups characteristics on an accessory.
type Service struct {
	Type            string           `yaml:"type"`
	Name            string           `yaml:"name,omitempty"`
	Characteristics []Characteristic `yaml:"characteristics"`
}

// Characteristic declares one device attribute and its initial value.
type Characteristic struct {
	Type     string `yaml:"type"`
	Format   string `yaml:"format"`
	Value    any    `yaml:"value,omitempty"`
	ReadOnly bool   `yaml:"read_only,omitempty"`
}

// Stats counts the objects in a document.
type Stats struct {
	Homes       int
	Rooms       int
	Accessories int
}

// LoadFile reads and validates a topology file.
func LoadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading topology file: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes and validates a YAML topology. Unknown keys are rejected.
func Parse(data []byte) (*Document, error) {
	var doc Document

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks IDs, room references, formats and initial values,
// reporting every problem in a single error wrapping ErrInvalidDocument.
// A document without homes returns ErrEmpty.
func (d *Document) Validate() error {
	if len(d.Homes) == 0 {
		return ErrEmpty
	}

	var errs []string
	homeIDs := make(map[string]bool)
	roomIDs := make(map[string]bool)
	accessoryIDs := make(map[string]bool)

	for hi, h := range d.Homes {
		where := fmt.Sprintf("homes[%d]", hi)
		errs = checkID(errs, where, h.ID, homeIDs)

		local := make(map[string]bool, len(h.Rooms))
		for ri, r := range h.Rooms {
			errs = checkID(errs, fmt.Sprintf("%s.rooms[%d]", where, ri), r.ID, roomIDs)
			local[r.ID] = true
		}

		for ai, a := range h.Accessories {
			aWhere := fmt.Sprintf("%s.accessories[%d]", where, ai)
			errs = checkID(errs, aWhere, a.ID, accessoryIDs)
			if a.Room != "" && !local[a.Room] {
				errs = append(errs, fmt.Sprintf("%s: room %q is not defined in home %q", aWhere, a.Room, h.ID))
			}
			errs = append(errs, validateServices(aWhere, a.Services)...)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(errs, "; "))
	}
	return nil
}

func checkID(errs []string, where, id string, seen map[string]bool) []string {
	switch {
	case strings.TrimSpace(id) == "":
		return append(errs, where+": id is required")
	case seen[id]:
		return append(errs, fmt.Sprintf("%s: duplicate id %q", where, id))
	}
	seen[id] = true
	return errs
}

func validateServices(where string, services []Service) []string {
	var errs []string
	for si, s := range services {
		sWhere := fmt.Sprintf("%s.services[%d]", where, si)
		if strings.TrimSpace(s.Type) == "" {
			errs = append(errs, sWhere+": type is required")
		}
		for ci, c := range s.Characteristics {
			cWhere := fmt.Sprintf("%s.characteristics[%d]", sWhere, ci)
			if strings.TrimSpace(c.Type) == "" {
				errs = append(errs, cWhere+": type is required")
			}
			format, err := memhost.ParseFormat(c.Format)
			if err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", cWhere, err))
				continue
			}
			if _, err := format.Normalize(c.Value); err != nil {
				errs = append(errs, fmt.Sprintf("%s: %v", cWhere, err))
			}
		}
	}
	return errs
}

// Stats counts homes, rooms and accessories.
func (d *Document) Stats() Stats {
	s := Stats{Homes: len(d.Homes)}
	for _, h := range d.Homes {
		s.Rooms += len(h.Rooms)
		s.Accessories += len(h.Accessories)
	}
	return s
}
