package models

import "encoding/json"

// Document is the whole journal: every entry in creation order.
type Document struct {
	Entries []Entry `json:"entries"`
}

// NewDocument returns an empty document.
func NewDocument() *Document {
	return &Document{Entries: []Entry{}}
}

func (d Document) MarshalJSON() ([]byte, error) {
	type plain Document
	if d.Entries == nil {
		d.Entries = []Entry{}
	}
	return json.Marshal(plain(d))
}

// AssignMissingIDs gives a fresh id to every entry that has none and
// reports how many were assigned.
func (d *Document) AssignMissingIDs(newID func() string) int {
	n := 0
	for i := range d.Entries {
		if d.Entries[i].ID == "" {
			d.Entries[i].ID = newID()
			n++
		}
	}
	return n
}
