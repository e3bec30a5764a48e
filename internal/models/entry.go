// Package models defines the journal document and its entries.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry is a single journal entry. ID and DateTimeUTC are assigned once at
// creation and never change; only Title and Text are editable.
//
// A zero DateTimeUTC means the timestamp is unknown (legacy entries written
// without one) and is left out of the JSON form.
type Entry struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	DateTimeUTC  time.Time `json:"datetime_utc"`
	Text         string    `json:"text"`
	MediaContent []string  `json:"media_content"`
}

// NewEntry returns an entry with a fresh id and the current UTC time.
func NewEntry(title, text string, media ...string) Entry {
	if media == nil {
		media = []string{}
	}
	return Entry{
		ID:           uuid.NewString(),
		Title:        title,
		DateTimeUTC:  time.Now().UTC(),
		Text:         text,
		MediaContent: media,
	}
}

// layouts accepted for datetime_utc, tried in order. The last one covers
// naive timestamps, which are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised datetime %q", s)
}

type entryJSON struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	DateTimeUTC  string   `json:"datetime_utc,omitempty"`
	Text         string   `json:"text"`
	MediaContent []string `json:"media_content"`
}

func (e Entry) MarshalJSON() ([]byte, error) {
	media := e.MediaContent
	if media == nil {
		media = []string{}
	}
	var ts string
	if !e.DateTimeUTC.IsZero() {
		ts = e.DateTimeUTC.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(entryJSON{
		ID:           e.ID,
		Title:        e.Title,
		DateTimeUTC:  ts,
		Text:         e.Text,
		MediaContent: media,
	})
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var raw entryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var ts time.Time
	if s := strings.TrimSpace(raw.DateTimeUTC); s != "" {
		t, err := parseTime(s)
		if err != nil {
			return err
		}
		ts = t
	}

	media := raw.MediaContent
	if media == nil {
		media = []string{}
	}

	*e = Entry{
		ID:           raw.ID,
		Title:        raw.Title,
		DateTimeUTC:  ts,
		Text:         raw.Text,
		MediaContent: media,
	}
	return nil
}
