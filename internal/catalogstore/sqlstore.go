package catalogstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"sync"
	"time"

	"autolytiq/vindecoder/internal/catalogcore"
	"autolytiq/vindecoder/internal/obslog"

	_ "github.com/lib/pq"
)

// SQLStore is the pooled-worker fast path Store: it queries the exact
// tables spec.md §6 names over a live database/sql connection pool, using
// lib/pq the same way the teacher's inventory-service/database.go opens
// Postgres. It exists alongside MemStore as the portable replacement for
// the source's callback-driven native SQLite adapter (spec.md §9): decoder
// code sees only the Store capability, never which backend answered it.
//
// WMI, schema, pattern, element and lookup rows are cached for the life of
// the handle after their first read. The caches sit behind a sync.RWMutex:
// every cached read path takes the read lock, so reads are not lock-free.
type SQLStore struct {
	conn   *sql.DB
	logger *obslog.Logger

	mu             sync.RWMutex
	wmiCache       map[string][]catalogcore.Wmi
	schemaCache    map[int64][]WmiSchemaLink
	patternCache   map[int64][]catalogcore.Pattern
	elementCache   map[int64]catalogcore.Element
	lookupCache    map[string]map[int64]string
	lookupIDCache  map[string]map[string]int64
	makeModelCache map[int64]map[int64]string
}

// NewSQLStore opens databaseURL (a postgres:// DSN) and configures the
// connection pool the same way the teacher's NewDatabase does: bounded
// open/idle connections and a connection lifetime, verified with Ping
// before returning.
func NewSQLStore(databaseURL string, logger *obslog.Logger) (*SQLStore, error) {
	conn, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("catalogstore: open database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("catalogstore: ping database: %w", err)
	}

	if logger == nil {
		logger = obslog.Nop()
	}
	logger.Info("catalog database connected")

	return &SQLStore{
		conn:           conn,
		logger:         logger,
		wmiCache:       make(map[string][]catalogcore.Wmi),
		schemaCache:    make(map[int64][]WmiSchemaLink),
		patternCache:   make(map[int64][]catalogcore.Pattern),
		elementCache:   make(map[int64]catalogcore.Element),
		lookupCache:    make(map[string]map[int64]string),
		lookupIDCache:  make(map[string]map[string]int64),
		makeModelCache: make(map[int64]map[int64]string),
	}, nil
}

// InitSchema creates the catalog tables if they don't exist, matching
// spec.md §6's canonical table shapes.
func (s *SQLStore) InitSchema(ctx context.Context) error {
	stmt := `
	CREATE TABLE IF NOT EXISTS manufacturer (id BIGINT PRIMARY KEY, name TEXT NOT NULL);
	CREATE TABLE IF NOT EXISTS make (id BIGINT PRIMARY KEY, name TEXT NOT NULL);
	CREATE TABLE IF NOT EXISTS model (id BIGINT PRIMARY KEY, name TEXT NOT NULL);
	CREATE TABLE IF NOT EXISTS make_model (make_id BIGINT NOT NULL, model_id BIGINT NOT NULL, PRIMARY KEY (make_id, model_id));
	CREATE TABLE IF NOT EXISTS country (id BIGINT PRIMARY KEY, name TEXT NOT NULL);
	CREATE TABLE IF NOT EXISTS vehicle_type (id BIGINT PRIMARY KEY, name TEXT NOT NULL);
	CREATE TABLE IF NOT EXISTS body_style (id BIGINT PRIMARY KEY, name TEXT NOT NULL);
	CREATE TABLE IF NOT EXISTS fuel_type (id BIGINT PRIMARY KEY, name TEXT NOT NULL);
	CREATE TABLE IF NOT EXISTS drive_type (id BIGINT PRIMARY KEY, name TEXT NOT NULL);
	CREATE TABLE IF NOT EXISTS electrification_level (id BIGINT PRIMARY KEY, name TEXT NOT NULL);
	CREATE TABLE IF NOT EXISTS transmission (id BIGINT PRIMARY KEY, name TEXT NOT NULL);
	CREATE TABLE IF NOT EXISTS wmi (
		id BIGINT PRIMARY KEY, wmi TEXT NOT NULL, manufacturer_id BIGINT NOT NULL,
		make_id BIGINT, vehicle_type_id BIGINT NOT NULL, country_id BIGINT NOT NULL,
		low_volume BOOLEAN NOT NULL DEFAULT FALSE
	);
	CREATE INDEX IF NOT EXISTS idx_wmi_code ON wmi(wmi);
	CREATE TABLE IF NOT EXISTS wmi_make (wmi_id BIGINT NOT NULL, make_id BIGINT NOT NULL, PRIMARY KEY (wmi_id, make_id));
	CREATE TABLE IF NOT EXISTS vin_schema (id BIGINT PRIMARY KEY, name TEXT NOT NULL, source_wmi TEXT, notes TEXT);
	CREATE TABLE IF NOT EXISTS wmi_vin_schema (
		id BIGINT PRIMARY KEY, wmi_id BIGINT NOT NULL, vin_schema_id BIGINT NOT NULL,
		year_from INT NOT NULL, year_to INT
	);
	CREATE INDEX IF NOT EXISTS idx_wvs_wmi ON wmi_vin_schema(wmi_id);
	CREATE TABLE IF NOT EXISTS element (id BIGINT PRIMARY KEY, name TEXT NOT NULL, lookup_table TEXT, weight INT NOT NULL);
	CREATE TABLE IF NOT EXISTS pattern (
		id BIGINT PRIMARY KEY, vin_schema_id BIGINT NOT NULL, keys TEXT NOT NULL,
		element_id BIGINT NOT NULL, attribute_id TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_pattern_schema ON pattern(vin_schema_id);
	`
	if _, err := s.conn.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("catalogstore: init schema: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.conn.Close()
}

func (s *SQLStore) WMIsByCode(ctx context.Context, code string) ([]catalogcore.Wmi, error) {
	s.mu.RLock()
	if rows, ok := s.wmiCache[code]; ok {
		s.mu.RUnlock()
		return rows, nil
	}
	s.mu.RUnlock()

	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, wmi, manufacturer_id, make_id, vehicle_type_id, country_id, low_volume
		FROM wmi WHERE wmi = $1`, code)
	if err != nil {
		return nil, fmt.Errorf("catalogstore: query wmi: %w", err)
	}
	defer rows.Close()

	var out []catalogcore.Wmi
	for rows.Next() {
		var w catalogcore.Wmi
		var makeID sql.NullInt64
		if err := rows.Scan(&w.ID, &w.Code, &w.ManufacturerID, &makeID, &w.VehicleTypeID, &w.CountryID, &w.LowVolume); err != nil {
			return nil, fmt.Errorf("catalogstore: scan wmi: %w", err)
		}
		if makeID.Valid {
			w.MakeID = &makeID.Int64
		}
		w.Source = catalogcore.SourceOfficial
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.wmiCache[code] = out
	s.mu.Unlock()
	return out, nil
}

func (s *SQLStore) WmiMakeLink(ctx context.Context, wmiID, makeID int64) (bool, error) {
	var exists bool
	err := s.conn.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM wmi_make WHERE wmi_id = $1 AND make_id = $2)`,
		wmiID, makeID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("catalogstore: query wmi_make: %w", err)
	}
	return exists, nil
}

func (s *SQLStore) SchemasForWMI(ctx context.Context, wmiID int64) ([]WmiSchemaLink, error) {
	s.mu.RLock()
	if links, ok := s.schemaCache[wmiID]; ok {
		s.mu.RUnlock()
		return links, nil
	}
	s.mu.RUnlock()

	rows, err := s.conn.QueryContext(ctx, `
		SELECT wvs.id, wvs.wmi_id, wvs.vin_schema_id, wvs.year_from, wvs.year_to,
		       vs.name, vs.source_wmi, vs.notes
		FROM wmi_vin_schema wvs JOIN vin_schema vs ON vs.id = wvs.vin_schema_id
		WHERE wvs.wmi_id = $1`, wmiID)
	if err != nil {
		return nil, fmt.Errorf("catalogstore: query wmi_vin_schema: %w", err)
	}
	defer rows.Close()

	var out []WmiSchemaLink
	for rows.Next() {
		var link WmiSchemaLink
		var yearTo sql.NullInt64
		var notes sql.NullString
		if err := rows.Scan(&link.Link.ID, &link.Link.WmiID, &link.Link.VinSchemaID,
			&link.Link.YearFrom, &yearTo, &link.Schema.Name, &link.Schema.SourceWMI, &notes); err != nil {
			return nil, fmt.Errorf("catalogstore: scan wmi_vin_schema: %w", err)
		}
		if yearTo.Valid {
			y := int(yearTo.Int64)
			link.Link.YearTo = &y
		}
		link.Schema.ID = link.Link.VinSchemaID
		link.Schema.Notes = notes.String
		link.Schema.Source = catalogcore.SourceOfficial
		out = append(out, link)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.schemaCache[wmiID] = out
	s.mu.Unlock()
	return out, nil
}

func (s *SQLStore) PatternsForSchema(ctx context.Context, schemaID int64) ([]catalogcore.Pattern, error) {
	s.mu.RLock()
	if ps, ok := s.patternCache[schemaID]; ok {
		s.mu.RUnlock()
		return ps, nil
	}
	s.mu.RUnlock()

	rows, err := s.conn.QueryContext(ctx, `
		SELECT p.id, p.vin_schema_id, p.keys, p.element_id, p.attribute_id, e.lookup_table
		FROM pattern p JOIN element e ON e.id = p.element_id
		WHERE p.vin_schema_id = $1`, schemaID)
	if err != nil {
		return nil, fmt.Errorf("catalogstore: query pattern: %w", err)
	}
	defer rows.Close()

	var out []catalogcore.Pattern
	for rows.Next() {
		var p catalogcore.Pattern
		var lookupTable sql.NullString
		var attributeID string
		if err := rows.Scan(&p.ID, &p.VinSchemaID, &p.Keys, &p.ElementID, &attributeID, &lookupTable); err != nil {
			return nil, fmt.Errorf("catalogstore: scan pattern: %w", err)
		}
		p.Source = catalogcore.SourceOfficial
		// The untyped AttributeId redesign note (spec.md §9): resolve it
		// into a tagged AttributeRef here, once, at the store boundary, so
		// nothing downstream has to guess.
		if lookupTable.Valid && lookupTable.String != "" {
			id, err := strconv.ParseInt(attributeID, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("catalogstore: pattern %d: attribute_id %q is not numeric but element has lookup_table %q", p.ID, attributeID, lookupTable.String)
			}
			p.Attribute = catalogcore.AttributeRef{Kind: catalogcore.AttributeLookupRef, TableID: id}
		} else {
			p.Attribute = catalogcore.AttributeRef{Kind: catalogcore.AttributeLiteral, Literal: attributeID}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.patternCache[schemaID] = out
	s.mu.Unlock()
	return out, nil
}

func (s *SQLStore) Element(ctx context.Context, id int64) (catalogcore.Element, bool, error) {
	s.mu.RLock()
	if el, ok := s.elementCache[id]; ok {
		s.mu.RUnlock()
		return el, true, nil
	}
	s.mu.RUnlock()

	var el catalogcore.Element
	var lookupTable sql.NullString
	err := s.conn.QueryRowContext(ctx, `SELECT id, name, lookup_table, weight FROM element WHERE id = $1`, id).
		Scan(&el.ID, &el.Name, &lookupTable, &el.Weight)
	if err == sql.ErrNoRows {
		return catalogcore.Element{}, false, nil
	}
	if err != nil {
		return catalogcore.Element{}, false, fmt.Errorf("catalogstore: query element: %w", err)
	}
	el.LookupTable = lookupTable.String

	s.mu.Lock()
	s.elementCache[id] = el
	s.mu.Unlock()
	return el, true, nil
}

var sqlLookupTableNames = map[string]string{
	"Make": "make", "Model": "model", "BodyStyle": "body_style",
	"FuelType": "fuel_type", "ElectrificationLevel": "electrification_level",
	"Country": "country", "Manufacturer": "manufacturer",
	"VehicleType": "vehicle_type", "DriveType": "drive_type",
	"Transmission": "transmission", "Series": "series",
}

func (s *SQLStore) LookupName(ctx context.Context, table string, id int64) (string, bool, error) {
	physical, ok := sqlLookupTableNames[table]
	if !ok {
		return "", false, fmt.Errorf("catalogstore: unknown lookup table %q", table)
	}

	s.mu.RLock()
	if rows, ok := s.lookupCache[table]; ok {
		if name, ok := rows[id]; ok {
			s.mu.RUnlock()
			return name, true, nil
		}
	}
	s.mu.RUnlock()

	var name string
	err := s.conn.QueryRowContext(ctx, fmt.Sprintf(`SELECT name FROM %s WHERE id = $1`, physical), id).Scan(&name)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("catalogstore: query %s: %w", table, err)
	}

	s.mu.Lock()
	if s.lookupCache[table] == nil {
		s.lookupCache[table] = make(map[int64]string)
	}
	s.lookupCache[table][id] = name
	s.mu.Unlock()
	return name, true, nil
}

func (s *SQLStore) ModelForMake(ctx context.Context, makeID, modelID int64) (string, bool, error) {
	s.mu.RLock()
	if byModel, ok := s.makeModelCache[makeID]; ok {
		if name, ok := byModel[modelID]; ok {
			s.mu.RUnlock()
			return name, true, nil
		}
	}
	s.mu.RUnlock()

	var name string
	err := s.conn.QueryRowContext(ctx, `
		SELECT m.name FROM make_model mm JOIN model m ON m.id = mm.model_id
		WHERE mm.make_id = $1 AND mm.model_id = $2`, makeID, modelID).Scan(&name)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("catalogstore: query make_model: %w", err)
	}

	s.mu.Lock()
	if s.makeModelCache[makeID] == nil {
		s.makeModelCache[makeID] = make(map[int64]string)
	}
	s.makeModelCache[makeID][modelID] = name
	s.mu.Unlock()
	return name, true, nil
}

func (s *SQLStore) NamedRowID(ctx context.Context, table, name string) (int64, bool, error) {
	physical, ok := sqlLookupTableNames[table]
	if !ok {
		return 0, false, fmt.Errorf("catalogstore: unknown lookup table %q", table)
	}

	s.mu.RLock()
	if ids, ok := s.lookupIDCache[table]; ok {
		if id, ok := ids[name]; ok {
			s.mu.RUnlock()
			return id, true, nil
		}
	}
	s.mu.RUnlock()

	var id int64
	err := s.conn.QueryRowContext(ctx, fmt.Sprintf(`SELECT id FROM %s WHERE name = $1`, physical), name).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("catalogstore: query %s by name: %w", table, err)
	}

	s.mu.Lock()
	if s.lookupIDCache[table] == nil {
		s.lookupIDCache[table] = make(map[string]int64)
	}
	s.lookupIDCache[table][name] = id
	s.mu.Unlock()
	return id, true, nil
}
