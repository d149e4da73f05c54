// Package protocol defines the messages exchanged between peers and their
// wire encoding.
package protocol

import "github.com/iudanet/vasasync/internal/models"

// Type is the wire tag of a message
type Type string

// Message types for peer communication
const (
	TypePing        Type = "PING"
	TypePong        Type = "PONG"
	TypeEntry       Type = "ENTRY"
	TypeEntryAck    Type = "ENTRY_ACK"
	TypeSyncRequest Type = "SYNC_REQUEST"
)

// Message is one of Ping, Pong, EntrySubmit, EntryAck or SyncRequest.
// Every message carries the sender id so the receiver can validate it
// without session state.
//
// A message is well-formed when Source is set and the fields required by
// its type are set: GroupID and Entry with an ID for EntrySubmit, EntryID
// for EntryAck, GroupID for SyncRequest. Decode(Encode(m)) == m holds only
// for well-formed messages; Encode still serializes the others and Decode
// rejects them with ErrMalformed.
type Message interface {
	MessageType() Type
	From() string
	sealed()
}

// Ping liveness probe
type Ping struct {
	Source    string
	Timestamp int64 // unix millis
}

// Pong ответ на Ping
type Pong struct {
	Source    string
	Timestamp int64 // unix millis
}

// EntrySubmit carries one entry. Members use it to submit their entries to
// the host; the host reuses it to push its authoritative set to a member.
type EntrySubmit struct {
	Entry   *models.Entry
	Source  string
	GroupID string
}

// EntryAck подтверждение того, что хост принял запись
type EntryAck struct {
	Source  string
	EntryID string
}

// SyncRequest asks the host for its complete authoritative set
type SyncRequest struct {
	Source  string
	GroupID string
}

func (Ping) MessageType() Type        { return TypePing }
func (Pong) MessageType() Type        { return TypePong }
func (EntrySubmit) MessageType() Type { return TypeEntry }
func (EntryAck) MessageType() Type    { return TypeEntryAck }
func (SyncRequest) MessageType() Type { return TypeSyncRequest }

func (m Ping) From() string        { return m.Source }
func (m Pong) From() string        { return m.Source }
func (m EntrySubmit) From() string { return m.Source }
func (m EntryAck) From() string    { return m.Source }
func (m SyncRequest) From() string { return m.Source }

func (Ping) sealed()        {}
func (Pong) sealed()        {}
func (EntrySubmit) sealed() {}
func (EntryAck) sealed()    {}
func (SyncRequest) sealed() {}
