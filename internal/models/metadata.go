package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Metadata is the invoice metadata bag persisted as JSONB. The fields the
// backend itself reads (alerts, file_url) are explicit; everything else a
// caller supplies is kept in Extra and round-trips untouched.
type Metadata struct {
	Alerts  []string       `json:"-"`
	FileURL string         `json:"-"`
	Extra   map[string]any `json:"-"`
}

// MarshalJSON merges the explicit fields over the residual map.
func (m Metadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(m.Extra)+2)
	for k, v := range m.Extra {
		out[k] = v
	}
	if m.Alerts != nil {
		out["alerts"] = m.Alerts
	}
	if m.FileURL != "" {
		out["file_url"] = m.FileURL
	}
	return json.Marshal(out)
}

// UnmarshalJSON pulls the known keys out and leaves the rest in Extra.
func (m *Metadata) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*m = Metadata{}

	if v, ok := raw["alerts"]; ok {
		if err := json.Unmarshal(v, &m.Alerts); err != nil {
			return fmt.Errorf("metadata: invalid alerts field: %w", err)
		}
		delete(raw, "alerts")
	}
	if v, ok := raw["file_url"]; ok {
		if err := json.Unmarshal(v, &m.FileURL); err != nil {
			return fmt.Errorf("metadata: invalid file_url field: %w", err)
		}
		delete(raw, "file_url")
	}

	if len(raw) > 0 {
		m.Extra = make(map[string]any, len(raw))
		for k, v := range raw {
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return err
			}
			m.Extra[k] = val
		}
	}
	return nil
}

// Value implements driver.Valuer so Metadata can be written to a JSONB column.
func (m Metadata) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for reading a JSONB column.
func (m *Metadata) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*m = Metadata{}
		return nil
	case []byte:
		return json.Unmarshal(v, m)
	case string:
		return json.Unmarshal([]byte(v), m)
	default:
		return fmt.Errorf("metadata: cannot scan %T", src)
	}
}
