package cli

import (
	"github.com/iudanet/vasasync/internal/sync"
)

// Report prints one engine event for the user
func (s *Session) Report(ev sync.Event) {
	switch ev.Type {
	case sync.EventDeviceConnected:
		s.io.Printf("* Device connected: %s\n", ev.PeerID)
	case sync.EventDeviceDisconnected:
		s.io.Printf("* Device disconnected: %s\n", ev.PeerID)
	case sync.EventEntryReceived:
		if ev.Entry == nil {
			return
		}
		m := ev.Entry.Marking()
		s.io.Printf("* New entry: vasa %s, emo %s by %s\n", m.VasaNumber, m.EmoNumber, ev.Entry.CreatedBy)
	case sync.EventSyncComplete:
		s.io.Println("* All entries synced.")
	case sync.EventSyncError:
		if ev.PeerID != "" {
			s.io.Printf("* Sync error with %s: %v\n", ev.PeerID, ev.Err)
			return
		}
		s.io.Printf("* Sync error: %v\n", ev.Err)
	}
}

// Watch reports events until the channel is closed
func (s *Session) Watch(events <-chan sync.Event) {
	for ev := range events {
		s.Report(ev)
	}
}
