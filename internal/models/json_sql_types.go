package models

import (
	"database/sql"
	"encoding/json"
)

// NullString - обертка для sql.NullString для правильной обработки JSON.
// NullString wraps sql.NullString so it marshals to a JSON string or null.
type NullString struct {
	sql.NullString
}

// NewNullString возвращает невалидное значение для пустой строки.
func NewNullString(s string) NullString {
	return NullString{sql.NullString{String: s, Valid: s != ""}}
}

// MarshalJSON реализует интерфейс json.Marshaler для NullString.
func (ns NullString) MarshalJSON() ([]byte, error) {
	if !ns.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(ns.String)
}

// UnmarshalJSON реализует интерфейс json.Unmarshaler для NullString.
func (ns *NullString) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s != nil {
		ns.String = *s
		ns.Valid = true
	} else {
		ns.Valid = false
	}
	return nil
}

// NullInt64 - обертка для sql.NullInt64 (user_id, design_id).
// NullInt64 wraps sql.NullInt64 for nullable foreign keys.
type NullInt64 struct {
	sql.NullInt64
}

func NewNullInt64(v int64) NullInt64 {
	return NullInt64{sql.NullInt64{Int64: v, Valid: true}}
}

// MarshalJSON реализует интерфейс json.Marshaler для NullInt64.
func (ni NullInt64) MarshalJSON() ([]byte, error) {
	if !ni.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(ni.Int64)
}

// UnmarshalJSON реализует интерфейс json.Unmarshaler для NullInt64.
func (ni *NullInt64) UnmarshalJSON(b []byte) error {
	var v *int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	if v != nil {
		ni.Int64 = *v
		ni.Valid = true
	} else {
		ni.Valid = false
	}
	return nil
}
