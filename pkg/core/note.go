package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// Metadata holds the note attributes this layer does not model explicitly.
// They are kept so that a note read from the backend can be written back intact.
type Metadata map[string]any

// NoteID identifies a note. The backend may send it as a JSON string or number;
// both decode to the same textual form.
type NoteID string

// UnmarshalJSON accepts both string and numeric identifiers.
func (id *NoteID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = NoteID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("note id must be a string or a number: %w", err)
	}
	*id = NoteID(n.String())
	return nil
}

// Note is a read-side copy of a record owned by the backend.
type Note struct {
	ID        NoteID
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
	Metadata  Metadata

	// wire remembers how the backend encoded the known fields.
	wire noteWire
}

// NotesPage is an ordered sequence of notes returned by one listing call.
type NotesPage []Note

// LastCreatedAt returns the creation time of the last note in the page.
// The zero time is returned for an empty page.
func (p NotesPage) LastCreatedAt() time.Time {
	if len(p) == 0 {
		return time.Time{}
	}
	return p[len(p)-1].CreatedAt
}

type noteWire struct {
	numericID  bool
	hasContent bool
	createdAt  timeForm
	updatedAt  timeForm
}

// timeForm is the encoding a timestamp arrived in. The zero value is RFC 3339.
type timeForm struct {
	layout string
	epoch  time.Duration // time.Millisecond or time.Second for numeric timestamps
}

// timestampLayouts are tried in order for string timestamps. Layouts without
// a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	time.DateOnly,
}

// epochMillisThreshold separates numeric timestamps in seconds from milliseconds
// (1e11 seconds is year 5138; 1e11 milliseconds is 1973).
const epochMillisThreshold = 1e11

func parseTimestamp(data json.RawMessage) (time.Time, timeForm, bool) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		for _, layout := range timestampLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				if layout == time.RFC3339Nano {
					return t, timeForm{}, true
				}
				return t, timeForm{layout: layout}, true
			}
		}
		return time.Time{}, timeForm{}, false
	}

	var n float64
	if err := json.Unmarshal(data, &n); err != nil {
		return time.Time{}, timeForm{}, false
	}
	if n >= epochMillisThreshold || n <= -epochMillisThreshold {
		return time.UnixMilli(int64(n)).UTC(), timeForm{epoch: time.Millisecond}, true
	}
	return time.Unix(int64(n), 0).UTC(), timeForm{epoch: time.Second}, true
}

func (f timeForm) encode(t time.Time) any {
	switch {
	case f.epoch == time.Millisecond:
		return t.UnixMilli()
	case f.epoch == time.Second:
		return t.Unix()
	case f.layout != "":
		return t.Format(f.layout)
	}
	return t
}

// UnmarshalJSON decodes the known fields and keeps every other attribute in
// Metadata. A known field that is null or does not parse is kept in Metadata
// under its own key, so one odd record never fails a whole page.
func (n *Note) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to decode note: %w", err)
	}

	*n = Note{}
	for key, value := range raw {
		if n.decodeKnown(key, value) {
			continue
		}
		var v any
		if err := json.Unmarshal(value, &v); err != nil {
			return fmt.Errorf("failed to decode note field %q: %w", key, err)
		}
		if n.Metadata == nil {
			n.Metadata = make(Metadata)
		}
		n.Metadata[key] = v
	}

	return nil
}

// decodeKnown reports whether key is a known field that decoded cleanly.
func (n *Note) decodeKnown(key string, value json.RawMessage) bool {
	if string(value) == "null" {
		return false
	}

	switch key {
	case "id":
		var id NoteID
		if err := id.UnmarshalJSON(value); err != nil {
			return false
		}
		n.ID = id
		n.wire.numericID = value[0] != '"'
	case "title":
		return json.Unmarshal(value, &n.Title) == nil
	case "content":
		if json.Unmarshal(value, &n.Content) != nil {
			return false
		}
		n.wire.hasContent = true
	case "createdAt":
		t, form, ok := parseTimestamp(value)
		n.CreatedAt, n.wire.createdAt = t, form
		return ok
	case "updatedAt":
		t, form, ok := parseTimestamp(value)
		n.UpdatedAt, n.wire.updatedAt = t, form
		return ok
	default:
		return false
	}
	return true
}

// MarshalJSON writes Metadata first and the known fields over it, in the
// encoding they were received in. Empty identifiers, zero timestamps and
// content that is neither set nor received are omitted.
func (n Note) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(n.Metadata)+5)
	for k, v := range n.Metadata {
		out[k] = v
	}

	if n.ID != "" {
		var num json.Number
		if n.wire.numericID && json.Unmarshal([]byte(n.ID), &num) == nil {
			out["id"] = json.Number(n.ID)
		} else {
			out["id"] = string(n.ID)
		}
	}
	if _, kept := n.Metadata["title"]; n.Title != "" || !kept {
		out["title"] = n.Title
	}
	if n.Content != "" || n.wire.hasContent {
		out["content"] = n.Content
	}
	if !n.CreatedAt.IsZero() {
		out["createdAt"] = n.wire.createdAt.encode(n.CreatedAt)
	}
	if !n.UpdatedAt.IsZero() {
		out["updatedAt"] = n.wire.updatedAt.encode(n.UpdatedAt)
	}

	return json.Marshal(out)
}

// Credentials is the login request body.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResult is the login response body.
type LoginResult struct {
	Token string `json:"token"`
}
