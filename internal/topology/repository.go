package topology

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/homegraph/internal/host/memhost"
	"github.com/nerrad567/homegraph/internal/infrastructure/database"
)

// Repository persists a topology document.
type Repository interface {
	// Replace overwrites the stored topology with doc.
	Replace(ctx context.Context, doc *Document) error

	// Load returns the stored topology in document order, or ErrEmpty.
	Load(ctx context.Context) (*Document, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a SQLite-backed topology repository. The
// schema comes from the topology migration.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Replace validates doc and rewrites every topology table in one
// transaction. On error the previous topology is left untouched.
func (r *SQLiteRepository) Replace(ctx context.Context, doc *Document) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	return database.InTx(ctx, r.db, func(tx *sql.Tx) error {
		// Children first so the delete order never depends on cascades.
		for _, table := range []string{"characteristics", "services", "accessories", "rooms", "homes"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clearing %s: %w", table, err)
			}
		}
		for hi, h := range doc.Homes {
			if err := insertHome(ctx, tx, hi, h); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertHome(ctx context.Context, tx *sql.Tx, pos int, h Home) error {
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO homes (id, name, position) VALUES (?, ?, ?)`,
		h.ID, h.Name, pos); err != nil {
		return fmt.Errorf("inserting home %s: %w", h.ID, err)
	}

	for ri, room := range h.Rooms {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rooms (id, home_id, name, position) VALUES (?, ?, ?, ?)`,
			room.ID, h.ID, room.Name, ri); err != nil {
			return fmt.Errorf("inserting room %s: %w", room.ID, err)
		}
	}

	for ai, a := range h.Accessories {
		category := a.Category
		if category == "" {
			category = "other"
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO accessories (id, home_id, room_id, name, category, position)
			VALUES (?, ?, ?, ?, ?, ?)`,
			a.ID, h.ID, nullStr(a.Room), a.Name, category, ai); err != nil {
			return fmt.Errorf("inserting accessory %s: %w", a.ID, err)
		}
		if err := insertServices(ctx, tx, a); err != nil {
			return err
		}
	}
	return nil
}

func insertServices(ctx context.Context, tx *sql.Tx, a Accessory) error {
	for si, s := range a.Services {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO services (accessory_id, position, type, name) VALUES (?, ?, ?, ?)`,
			a.ID, si, s.Type, s.Name); err != nil {
			return fmt.Errorf("inserting service %d of %s: %w", si, a.ID, err)
		}

		for ci, c := range s.Characteristics {
			value, err := encodeValue(c.Value)
			if err != nil {
				return fmt.Errorf("encoding %s value on %s: %w", c.Type, a.ID, err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO characteristics
				(accessory_id, service_position, position, type, format, value, read_only)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				a.ID, si, ci, c.Type, c.Format, value, boolToInt(c.ReadOnly)); err != nil {
				return fmt.Errorf("inserting characteristic %s on %s: %w", c.Type, a.ID, err)
			}
		}
	}
	return nil
}

// Load reads the stored topology. Values come back in their format's
// native Go type.
func (r *SQLiteRepository) Load(ctx context.Context) (*Document, error) {
	homes, err := r.loadHomes(ctx)
	if err != nil {
		return nil, err
	}
	if len(homes) == 0 {
		return nil, ErrEmpty
	}

	rooms, err := r.loadRooms(ctx)
	if err != nil {
		return nil, err
	}
	accessories, err := r.loadAccessories(ctx)
	if err != nil {
		return nil, err
	}

	doc := &Document{Homes: homes}
	for i := range doc.Homes {
		h := &doc.Homes[i]
		h.Rooms = rooms[h.ID]
		h.Accessories = accessories[h.ID]
	}
	return doc, nil
}

func (r *SQLiteRepository) loadHomes(ctx context.Context) ([]Home, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM homes ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("querying homes: %w", err)
	}
	defer rows.Close()

	var homes []Home
	for rows.Next() {
		var h Home
		if err := rows.Scan(&h.ID, &h.Name); err != nil {
			return nil, fmt.Errorf("scanning home row: %w", err)
		}
		homes = append(homes, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating home rows: %w", err)
	}
	return homes, nil
}

// loadRooms returns rooms grouped by home ID.
func (r *SQLiteRepository) loadRooms(ctx context.Context) (map[string][]Room, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT home_id, id, name FROM rooms ORDER BY home_id, position`)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer rows.Close()

	byHome := make(map[string][]Room)
	for rows.Next() {
		var homeID string
		var room Room
		if err := rows.Scan(&homeID, &room.ID, &room.Name); err != nil {
			return nil, fmt.Errorf("scanning room row: %w", err)
		}
		byHome[homeID] = append(byHome[homeID], room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating room rows: %w", err)
	}
	return byHome, nil
}

// loadAccessories returns accessories, with their services attached,
// grouped by home ID.
func (r *SQLiteRepository) loadAccessories(ctx context.Context) (map[string][]Accessory, error) {
	services, err := r.loadServices(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT home_id, id, room_id, name, category FROM accessories ORDER BY home_id, position`)
	if err != nil {
		return nil, fmt.Errorf("querying accessories: %w", err)
	}
	defer rows.Close()

	byHome := make(map[string][]Accessory)
	for rows.Next() {
		var homeID string
		var roomID sql.NullString
		var a Accessory
		if err := rows.Scan(&homeID, &a.ID, &roomID, &a.Name, &a.Category); err != nil {
			return nil, fmt.Errorf("scanning accessory row: %w", err)
		}
		a.Room = roomID.String
		a.Services = services[a.ID]
		byHome[homeID] = append(byHome[homeID], a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating accessory rows: %w", err)
	}
	return byHome, nil
}

// loadServices returns services, with characteristics attached, grouped by
// accessory ID.
func (r *SQLiteRepository) loadServices(ctx context.Context) (map[string][]Service, error) {
	chars, err := r.loadCharacteristics(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT accessory_id, position, type, name FROM services ORDER BY accessory_id, position`)
	if err != nil {
		return nil, fmt.Errorf("querying services: %w", err)
	}
	defer rows.Close()

	byAccessory := make(map[string][]Service)
	for rows.Next() {
		var accessoryID string
		var pos int
		var s Service
		if err := rows.Scan(&accessoryID, &pos, &s.Type, &s.Name); err != nil {
			return nil, fmt.Errorf("scanning service row: %w", err)
		}
		s.Characteristics = chars[serviceKey{accessoryID, pos}]
		byAccessory[accessoryID] = append(byAccessory[accessoryID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating service rows: %w", err)
	}
	return byAccessory, nil
}

type serviceKey struct {
	accessoryID string
	position    int
}

func (r *SQLiteRepository) loadCharacteristics(ctx context.Context) (map[serviceKey][]Characteristic, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT accessory_id, service_position, type, format, value, read_only
		FROM characteristics ORDER BY accessory_id, service_position, position`)
	if err != nil {
		return nil, fmt.Errorf("querying characteristics: %w", err)
	}
	defer rows.Close()

	byService := make(map[serviceKey][]Characteristic)
	for rows.Next() {
		var key serviceKey
		var raw sql.NullString
		var readOnly int
		var c Characteristic
		if err := rows.Scan(&key.accessoryID, &key.position, &c.Type, &c.Format, &raw, &readOnly); err != nil {
			return nil, fmt.Errorf("scanning characteristic row: %w", err)
		}
		c.ReadOnly = readOnly != 0
		if c.Value, err = decodeValue(raw, c.Format); err != nil {
			return nil, fmt.Errorf("decoding %s on %s: %w", c.Type, key.accessoryID, err)
		}
		byService[key] = append(byService[key], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating characteristic rows: %w", err)
	}
	return byService, nil
}

// encodeValue stores a value as JSON text, or NULL when unset.
func encodeValue(v any) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

// decodeValue reverses encodeValue and normalises to the format's type.
func decodeValue(raw sql.NullString, format string) (any, error) {
	if !raw.Valid {
		return nil, nil
	}
	f, err := memhost.ParseFormat(format)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(raw.String)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return f.Normalize(v)
}

func nullStr(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
