// Package models holds storage helpers shared by the domain packages.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/karloscodes/cartridge/sqlite"
	"gorm.io/gorm"
)

// JSON stores free-form event metadata as a JSON text column.
type JSON []byte

// Scan implements sql.Scanner. SQLite hands text columns back as either
// string or []byte depending on the driver path.
func (j *JSON) Scan(value interface{}) error {
	var raw []byte
	switch v := value.(type) {
	case nil:
		*j = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("models: cannot scan %T into JSON", value)
	}

	result := json.RawMessage{}
	if err := json.Unmarshal(raw, &result); err != nil {
		return err
	}
	*j = JSON(result)
	return nil
}

// Value implements driver.Valuer.
func (j JSON) Value() (driver.Value, error) {
	if len(j) == 0 {
		return nil, nil
	}
	return string(j), nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	if len(j) == 0 {
		return []byte("null"), nil
	}
	return j, nil
}

func (j *JSON) UnmarshalJSON(data []byte) error {
	if j == nil {
		return fmt.Errorf("models: UnmarshalJSON on nil pointer")
	}
	*j = append((*j)[0:0], data...)
	return nil
}

// Map decodes the value into a generic object. Empty or non-object payloads
// yield an empty map.
func (j JSON) Map() map[string]any {
	out := map[string]any{}
	if len(j) == 0 {
		return out
	}
	if err := json.Unmarshal(j, &out); err != nil {
		return map[string]any{}
	}
	return out
}

// NewJSON encodes v, returning nil for a nil or empty map.
func NewJSON(v map[string]any) (JSON, error) {
	if len(v) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return JSON(b), nil
}

// PerformWrite runs f in a write transaction, retrying on SQLITE_BUSY.
func PerformWrite(logger *slog.Logger, dbConn *gorm.DB, f func(tx *gorm.DB) error) error {
	return sqlite.PerformWrite(logger, dbConn, f)
}
