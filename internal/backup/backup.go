// Package backup exports and restores the persisted collections of an
// account as one JSON document.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/azairamail/EASYAiPOS/internal/domain"
	"github.com/azairamail/EASYAiPOS/internal/pos"
)

// Version is written into every exported document.
const Version = "1.0"

var validate = validator.New()

// Document is a backup file.
type Document struct {
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
	Data      *Data     `json:"data" validate:"required"`
}

// Data holds the exported collections. Menu and Settings must be present
// for a document to be restorable; the other collections are optional.
type Data struct {
	Menu        []domain.MenuItem      `json:"menu" validate:"required"`
	Inventory   []domain.InventoryItem `json:"inventory"`
	Tables      []domain.Table         `json:"tables"`
	Orders      []domain.Order         `json:"orders"`
	Settings    *domain.StoreSettings  `json:"settings" validate:"required"`
	TeamMembers []domain.TeamMember    `json:"teamMembers"`
}

// UnmarshalJSON fills settings keys missing from older files with defaults.
func (d *Data) UnmarshalJSON(b []byte) error {
	type plain Data
	var raw struct {
		plain
		Settings json.RawMessage `json:"settings"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*d = Data(raw.plain)
	d.Settings = nil
	if len(raw.Settings) > 0 && string(raw.Settings) != "null" {
		s, err := domain.DecodeSettings(raw.Settings)
		if err != nil {
			return err
		}
		d.Settings = &s
	}
	return nil
}

// FormatError reports a file that is not a restorable backup.
type FormatError struct {
	Reason string
}

func (e *FormatError) Error() string {
	return "invalid backup file format: " + e.Reason
}

// IsFormatError reports whether err is a FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// Export captures the persisted collections of st. Cart and the logged-in
// staff member are never exported.
func Export(st pos.State, now time.Time) Document {
	settings := st.Settings
	return Document{
		Version:   Version,
		Timestamp: now.UTC(),
		Data: &Data{
			Menu:        orEmpty(st.Menu),
			Inventory:   orEmpty(st.Inventory),
			Tables:      orEmpty(st.Tables),
			Orders:      orEmpty(st.Orders),
			Settings:    &settings,
			TeamMembers: orEmpty(st.TeamMembers),
		},
	}
}

// Encode renders doc the way it is written to disk.
func Encode(doc Document) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	return data, nil
}

// Parse reads and validates a backup file.
func Parse(b []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return Document{}, &FormatError{Reason: err.Error()}
	}
	if err := validate.Struct(doc); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return Document{}, &FormatError{Reason: fmt.Sprintf("missing %s", fieldPath(verrs[0]))}
		}
		return Document{}, &FormatError{Reason: err.Error()}
	}
	return doc, nil
}

// Action is the restore action for doc. Collections absent from the file
// keep their current values.
func (doc Document) Action() pos.RestoreData {
	if doc.Data == nil {
		return pos.RestoreData{}
	}
	return pos.RestoreData{
		Orders:      doc.Data.Orders,
		Menu:        doc.Data.Menu,
		Tables:      doc.Data.Tables,
		Inventory:   doc.Data.Inventory,
		Settings:    doc.Data.Settings,
		TeamMembers: doc.Data.TeamMembers,
	}
}

// FileName is the conventional name of a backup taken at now.
func FileName(now time.Time) string {
	return fmt.Sprintf("easypos_backup_%s.json", now.UTC().Format("2006-01-02"))
}

// fieldPath turns "Document.Data.Menu" into "data.menu".
func fieldPath(fe validator.FieldError) string {
	switch fe.StructNamespace() {
	case "Document.Data":
		return "data"
	case "Document.Data.Menu":
		return "data.menu"
	case "Document.Data.Settings":
		return "data.settings"
	}
	return fe.Field()
}

func orEmpty[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}
