package entity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/gray-logic-inventory/internal/infrastructure/database"
)

// SQLiteStore implements Store over the entities, entity_attributes and
// entity_contents tables.
type SQLiteStore struct {
	db *database.DB
}

// NewSQLiteStore creates a store on an open, migrated database.
func NewSQLiteStore(db *database.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const entityColumns = "e.id, e.name, e.driver, e.created_at"

// timestampFormat is fixed width so stored timestamps sort as text.
const timestampFormat = "2006-01-02T15:04:05.000000000Z07:00"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntity(row rowScanner) (*Entity, error) {
	var e Entity
	var createdAt string
	if err := row.Scan(&e.ID, &e.Name, &e.Driver, &createdAt); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at %q: %w", createdAt, err)
	}
	e.CreatedAt = t
	return &e, nil
}

// GetByName returns the entity called name.
func (s *SQLiteStore) GetByName(ctx context.Context, name string) (*Entity, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+entityColumns+" FROM entities e WHERE e.name = ?", name)

	e, err := scanEntity(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("querying entity %q: %w", name, err)
	}
	return e, nil
}

// GetOrCreate returns the entity called name, inserting it when absent.
func (s *SQLiteStore) GetOrCreate(ctx context.Context, name, driver string) (*Entity, bool, error) {
	if name == "" {
		return nil, false, fmt.Errorf("%w: empty entity name", ErrInvalidRequest)
	}

	var (
		out     *Entity
		created bool
	)
	err := s.db.WithTx(ctx, func(tx *sql.Tx) error {
		e, err := scanEntity(tx.QueryRowContext(ctx,
			"SELECT "+entityColumns+" FROM entities e WHERE e.name = ?", name))
		switch {
		case err == nil:
			out = e
			return nil
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("querying entity %q: %w", name, err)
		}

		e = &Entity{
			ID:        uuid.NewString(),
			Name:      name,
			Driver:    driver,
			CreatedAt: time.Now().UTC(),
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO entities (id, name, driver, created_at) VALUES (?, ?, ?, ?)",
			e.ID, e.Name, e.Driver, e.CreatedAt.Format(timestampFormat),
		); err != nil {
			return fmt.Errorf("inserting entity %q: %w", name, err)
		}
		out, created = e, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, created, nil
}

// List returns entities matching q, ordered by name.
//
// Filters:
//   - name: entity name equals any of the values
//   - attr: "key" or "key=value"; every value must match an attribute
//   - contains: entity contains every named member
//   - parent: entity is contained by every named container
func (s *SQLiteStore) List(ctx context.Context, q Query) ([]Entity, error) {
	var (
		conditions []string
		args       []any
	)

	if len(q.Drivers) > 0 {
		conditions = append(conditions, "e.driver IN ("+placeholders(len(q.Drivers))+")")
		for _, d := range q.Drivers {
			args = append(args, d)
		}
	}

	keys := make([]string, 0, len(q.Filters))
	for k := range q.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		values := q.Filters[key]
		if len(values) == 0 {
			continue
		}
		switch key {
		case FilterName:
			conditions = append(conditions, "e.name IN ("+placeholders(len(values))+")")
			for _, v := range values {
				args = append(args, v)
			}
		case FilterAttr:
			for _, v := range values {
				cond, condArgs := attrCondition(v)
				conditions = append(conditions, cond)
				args = append(args, condArgs...)
			}
		case FilterContains:
			for _, v := range values {
				conditions = append(conditions, `EXISTS (
					SELECT 1 FROM entity_contents c JOIN entities m ON m.id = c.child_id
					WHERE c.parent_id = e.id AND m.name = ?)`)
				args = append(args, v)
			}
		case FilterParent:
			for _, v := range values {
				conditions = append(conditions, `EXISTS (
					SELECT 1 FROM entity_contents c JOIN entities p ON p.id = c.parent_id
					WHERE c.child_id = e.id AND p.name = ?)`)
				args = append(args, v)
			}
		default:
			return nil, newError(ErrInvalidFilter, "Unsupported filter %q", key)
		}
	}

	query := "SELECT " + entityColumns + " FROM entities e"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY e.name"

	return s.queryEntities(ctx, query, args...)
}

// attrCondition builds the EXISTS clause for one attr filter value.
func attrCondition(v string) (string, []any) {
	key, value, hasValue := strings.Cut(v, "=")
	if !hasValue {
		return "EXISTS (SELECT 1 FROM entity_attributes a WHERE a.entity_id = e.id AND a.key = ?)", []any{key}
	}

	boolInt := -1
	switch value {
	case "true":
		boolInt = 1
	case "false":
		boolInt = 0
	}
	return `EXISTS (SELECT 1 FROM entity_attributes a WHERE a.entity_id = e.id AND a.key = ? AND (
			(a.datatype = 'string' AND a.string_value = ?) OR
			(a.datatype = 'int' AND CAST(a.int_value AS TEXT) = ?) OR
			(a.datatype = 'bool' AND a.int_value = ?)))`,
		[]any{key, value, value, boolInt}
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func (s *SQLiteStore) queryEntities(ctx context.Context, query string, args ...any) ([]Entity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entities: %w", err)
	}
	defer rows.Close()

	entities := []Entity{}
	for rows.Next() {
		e, err := scanEntity(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning entity: %w", err)
		}
		entities = append(entities, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entities: %w", err)
	}
	return entities, nil
}

// Delete removes the entity called name together with its attributes and
// containment edges in one transaction.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	return s.db.WithTx(ctx, func(tx *sql.Tx) error {
		var id string
		err := tx.QueryRowContext(ctx, "SELECT id FROM entities WHERE name = ?", name).Scan(&id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %s", ErrNotFound, name)
			}
			return fmt.Errorf("querying entity %q: %w", name, err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM entity_attributes WHERE entity_id = ?", id); err != nil {
			return fmt.Errorf("deleting attributes of %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM entity_contents WHERE parent_id = ? OR child_id = ?", id, id); err != nil {
			return fmt.Errorf("deleting edges of %q: %w", name, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM entities WHERE id = ?", id); err != nil {
			return fmt.Errorf("deleting entity %q: %w", name, err)
		}
		return nil
	})
}

// Attributes returns the entity's attributes ordered by key, subkey and
// number.
func (s *SQLiteStore) Attributes(ctx context.Context, e *Entity) ([]Attribute, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, subkey, number, datatype, string_value, int_value
		FROM entity_attributes
		WHERE entity_id = ?
		ORDER BY key, subkey, number, id`, e.ID)
	if err != nil {
		return nil, fmt.Errorf("querying attributes of %q: %w", e.Name, err)
	}
	defer rows.Close()

	attrs := []Attribute{}
	for rows.Next() {
		var (
			a           Attribute
			datatype    string
			subkey      sql.NullString
			number      sql.NullInt64
			stringValue sql.NullString
			intValue    sql.NullInt64
		)
		if err := rows.Scan(&a.Key, &subkey, &number, &datatype, &stringValue, &intValue); err != nil {
			return nil, fmt.Errorf("scanning attribute: %w", err)
		}
		if subkey.Valid {
			a.Subkey = &subkey.String
		}
		if number.Valid {
			a.Number = &number.Int64
		}
		a.Datatype = Datatype(datatype)
		switch a.Datatype {
		case DatatypeString:
			a.Value = stringValue.String
		case DatatypeInt:
			a.Value = intValue.Int64
		case DatatypeBool:
			a.Value = intValue.Int64 != 0
		default:
			a.Value = nil
		}
		attrs = append(attrs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating attributes: %w", err)
	}
	return attrs, nil
}

// AddAttribute stores attr on e.
func (s *SQLiteStore) AddAttribute(ctx context.Context, e *Entity, attr Attribute) error {
	if attr.Key == "" {
		return fmt.Errorf("%w: attribute key is required", ErrInvalidRequest)
	}

	var stringValue, intValue any
	switch v := attr.Value.(type) {
	case string:
		stringValue = v
	case int64:
		intValue = v
	case bool:
		if v {
			intValue = int64(1)
		} else {
			intValue = int64(0)
		}
	}
	if attr.Datatype == "" {
		attr.Datatype = DatatypeNone
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entity_attributes (entity_id, key, subkey, number, datatype, string_value, int_value)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, attr.Key, attr.Subkey, attr.Number, string(attr.Datatype), stringValue, intValue,
	)
	if err != nil {
		return fmt.Errorf("adding attribute %q to %q: %w", attr.Key, e.Name, err)
	}
	return nil
}

// Contents returns the entities e contains, in insertion order.
func (s *SQLiteStore) Contents(ctx context.Context, e *Entity) ([]Entity, error) {
	return s.queryEntities(ctx, `
		SELECT `+entityColumns+`
		FROM entity_contents c JOIN entities e ON e.id = c.child_id
		WHERE c.parent_id = ?
		ORDER BY c.created_at, c.rowid`, e.ID)
}

// Parents returns the entities that contain e, in insertion order.
func (s *SQLiteStore) Parents(ctx context.Context, e *Entity) ([]Entity, error) {
	return s.queryEntities(ctx, `
		SELECT `+entityColumns+`
		FROM entity_contents c JOIN entities e ON e.id = c.parent_id
		WHERE c.child_id = ?
		ORDER BY c.created_at, c.rowid`, e.ID)
}

// Contains reports whether member is a direct content of container.
func (s *SQLiteStore) Contains(ctx context.Context, container, member *Entity) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM entity_contents WHERE parent_id = ? AND child_id = ?",
		container.ID, member.ID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking containment: %w", err)
	}
	return n > 0, nil
}

// Insert adds the container -> member edge.
func (s *SQLiteStore) Insert(ctx context.Context, container, member *Entity) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entity_contents (parent_id, child_id, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT (parent_id, child_id) DO NOTHING`,
		container.ID, member.ID, time.Now().UTC().Format(timestampFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting %q into %q: %w", member.Name, container.Name, err)
	}
	return nil
}

// CountByDriver returns the number of entities per driver.
func (s *SQLiteStore) CountByDriver(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT driver, COUNT(*) FROM entities GROUP BY driver")
	if err != nil {
		return nil, fmt.Errorf("counting entities: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			driver string
			n      int
		)
		if err := rows.Scan(&driver, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[driver] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating counts: %w", err)
	}
	return counts, nil
}
