// Package protocol defines the framed message exchange between the
// in-browser agent and the loftd daemon.
//
// Messages are a tagged union: a JSON object with a "type" field and
// per-type advisory fields, framed on the wire with a 4-byte
// little-endian length prefix (the Chrome native messaging format,
// which the relay forwards unchanged).
package protocol

import (
	"encoding/json"
	"fmt"
)

// Message type tags.
const (
	// Agent → daemon.
	TypeReady        = "ready"
	TypeWindowHidden = "window_hidden"
	TypeWindowShown  = "window_shown"
	TypeBadgeUpdate  = "badge_update"
	TypeNotification = "notification"

	// Daemon → agent.
	TypeHideWindow = "hide_window"
	TypeShowWindow = "show_window"
	TypeDNDChanged = "dnd_changed"
	TypePing       = "ping"

	// Daemon/agent → page layer.
	TypeNavigateToConversation = "navigate_to_conversation"

	// Handled by the agent layer nearest the page; never forwarded
	// verbatim to the daemon.
	TypeDOMNotification = "dom_notification"
)

// Message is one protocol message. Only the fields relevant to Type are
// set; consumers must tolerate absent fields.
type Message struct {
	Type string `json:"type"`

	// ready
	Service string `json:"service,omitempty"`

	// badge_update
	Count uint32 `json:"count,omitempty"`

	// dnd_changed
	Enabled bool `json:"enabled,omitempty"`

	// notification / dom_notification
	Title  string `json:"title,omitempty"`
	Sender string `json:"sender,omitempty"`
	Body   string `json:"body,omitempty"`
	Icon   string `json:"icon,omitempty"`
	Href   string `json:"href,omitempty"`

	// navigate_to_conversation
	URL string `json:"url,omitempty"`
}

// Ready builds the identity announce an agent sends on (re)connect.
func Ready(service string) Message {
	return Message{Type: TypeReady, Service: service}
}

// BadgeUpdate builds an unread-count report.
func BadgeUpdate(count uint32) Message {
	return Message{Type: TypeBadgeUpdate, Count: count}
}

// DNDChanged builds a do-not-disturb broadcast.
func DNDChanged(enabled bool) Message {
	return Message{Type: TypeDNDChanged, Enabled: enabled}
}

// Marshal encodes a message as JSON.
func (m Message) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal decodes a message, requiring a non-empty type tag.
func Unmarshal(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("failed to parse message JSON: %w", err)
	}
	if m.Type == "" {
		return Message{}, fmt.Errorf("message has no type field")
	}
	return m, nil
}
