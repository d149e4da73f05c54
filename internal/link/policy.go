package link

import "strings"

// PeerSelector chooses which discovered peer to connect to.
// peers are in discovery order; false means "none of them".
type PeerSelector func(peers []DiscoveredPeer) (string, bool)

// FirstMatch connects to the first peer whose name starts with prefix
func FirstMatch(prefix string) PeerSelector {
	return func(peers []DiscoveredPeer) (string, bool) {
		for _, p := range peers {
			if strings.HasPrefix(p.Name, prefix) {
				return p.ID, true
			}
		}
		return "", false
	}
}

// GroupMatch prefers a peer advertising groupID. A peer advertising a
// different group is never chosen; a peer advertising no group is chosen
// by name prefix only when no advertised match exists.
func GroupMatch(groupID, prefix string) PeerSelector {
	return func(peers []DiscoveredPeer) (string, bool) {
		fallback := ""
		for _, p := range peers {
			if !strings.HasPrefix(p.Name, prefix) {
				continue
			}
			if p.GroupID == groupID {
				return p.ID, true
			}
			if p.GroupID == "" && fallback == "" {
				fallback = p.ID
			}
		}
		return fallback, fallback != ""
	}
}
