package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/iudanet/vasasync/internal/models"
)

// ErrMalformed indicates that bytes could not be decoded into a Message
var ErrMalformed = errors.New("malformed message")

// envelope is the JSON shape shared by all message types
type envelope struct {
	Entry     *models.Entry `json:"entry,omitempty"`
	Type      Type          `json:"type"`
	Source    string        `json:"source"`
	GroupID   string        `json:"groupId,omitempty"`
	EntryID   string        `json:"entryId,omitempty"`
	Timestamp int64         `json:"timestamp,omitempty"`
}

// Encode serializes m into a transport payload.
// Encoding is deterministic and cannot fail for the message types of this package.
// It does not check well-formedness, see Message.
func Encode(m Message) []byte {
	env := envelope{Type: m.MessageType(), Source: m.From()}

	switch msg := m.(type) {
	case Ping:
		env.Timestamp = msg.Timestamp
	case Pong:
		env.Timestamp = msg.Timestamp
	case EntrySubmit:
		env.GroupID = msg.GroupID
		env.Entry = msg.Entry
	case EntryAck:
		env.EntryID = msg.EntryID
	case SyncRequest:
		env.GroupID = msg.GroupID
	}

	// envelope состоит только из строк, чисел, времени и map[string]string
	data, err := json.Marshal(env)
	if err != nil {
		panic(fmt.Sprintf("protocol: encode %s: %v", env.Type, err))
	}
	return data
}

// Decode parses a transport payload.
// Returns an error wrapping ErrMalformed on invalid JSON, unknown type
// or a missing required field.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if env.Source == "" {
		return nil, fmt.Errorf("%w: %s without source", ErrMalformed, env.Type)
	}

	switch env.Type {
	case TypePing:
		return Ping{Source: env.Source, Timestamp: env.Timestamp}, nil
	case TypePong:
		return Pong{Source: env.Source, Timestamp: env.Timestamp}, nil
	case TypeEntry:
		if env.GroupID == "" {
			return nil, fmt.Errorf("%w: ENTRY without groupId", ErrMalformed)
		}
		if env.Entry == nil || env.Entry.ID == "" {
			return nil, fmt.Errorf("%w: ENTRY without entry id", ErrMalformed)
		}
		return EntrySubmit{Source: env.Source, GroupID: env.GroupID, Entry: env.Entry}, nil
	case TypeEntryAck:
		if env.EntryID == "" {
			return nil, fmt.Errorf("%w: ENTRY_ACK without entryId", ErrMalformed)
		}
		return EntryAck{Source: env.Source, EntryID: env.EntryID}, nil
	case TypeSyncRequest:
		if env.GroupID == "" {
			return nil, fmt.Errorf("%w: SYNC_REQUEST without groupId", ErrMalformed)
		}
		return SyncRequest{Source: env.Source, GroupID: env.GroupID}, nil
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformed, env.Type)
	}
}
