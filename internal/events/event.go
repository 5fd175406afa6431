// Package events carries the admin event channel: an in-process bus that
// fans events out to websocket clients and, optionally, to RabbitMQ.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	TypeNavigate          = "navigate"
	TypeTableNotFound     = "table_not_found"
	TypeSchemaInvalidated = "schema_invalidated"
	TypeRenegotiated      = "analytics_renegotiated"
)

// Admin shell tabs an event may point at.
const (
	TabSchema    = "schema"
	TabDashboard = "dashboard"
	TabAnalytics = "analytics"
	TabViews     = "views"
)

// Event is one message on the channel.  Tab is set for navigate events.
type Event struct {
	ID     string    `json:"id"`
	Type   string    `json:"type"`
	Tab    string    `json:"tab,omitempty"`
	View   string    `json:"view,omitempty"`
	Table  string    `json:"table,omitempty"`
	Reason string    `json:"reason,omitempty"`
	Actor  string    `json:"actor,omitempty"`
	At     time.Time `json:"at"`
}

// New stamps an event with an ID and the current time.
func New(typ string) Event {
	return Event{ID: uuid.NewString(), Type: typ, At: time.Now().UTC()}
}

// Navigate asks every shell to switch to tab.
func Navigate(tab, reason string) Event {
	e := New(TypeNavigate)
	e.Tab, e.Reason = tab, reason
	return e
}

// TableMissing reports that view could not be served because table is gone,
// and points the shell at the schema explorer.
func TableMissing(viewName, table string) Event {
	e := New(TypeTableNotFound)
	e.Tab, e.View, e.Table = TabSchema, viewName, table
	e.Reason = "table " + table + " not found"
	return e
}
