package localstore

import (
	"context"
	"encoding/json"
)

// Well-known keys. The store is a small key-value namespace holding the
// dashboard's durable state.
const (
	KeyRegisteredUsers = "registered_users"
	KeyCurrentUser     = "current_user"
	KeyTheme           = "theme"
)

// SchemaVersion is written into every envelope. Values persisted under a
// different version fail the soft-load check and fall back to the caller's
// default rather than being misread.
const SchemaVersion = 1

// envelope wraps every persisted value with a schema version.
type envelope struct {
	SchemaVersion int             `json:"schema_version"`
	Payload       json.RawMessage `json:"payload"`
}

// Store is durable, synchronous key-value persistence.
//
// Load fails soft: missing keys, corrupt JSON, or a schema-version mismatch
// leave out untouched and return false, never an error. Save is
// write-through; callers treat a Save failure as a warning, not data loss,
// because the in-memory state is retained and re-saved on the next mutation.
type Store interface {
	Load(ctx context.Context, key string, out any) bool
	Save(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, key string) error
	Migrate(ctx context.Context) error
	Close() error
}

// encode wraps v in a versioned envelope.
func encode(v any) ([]byte, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{SchemaVersion: SchemaVersion, Payload: payload})
}

// decode unwraps the envelope into out. Returns false on any mismatch or
// malformed data.
func decode(raw []byte, out any) bool {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return false
	}
	if env.SchemaVersion != SchemaVersion || env.Payload == nil {
		return false
	}
	return json.Unmarshal(env.Payload, out) == nil
}
