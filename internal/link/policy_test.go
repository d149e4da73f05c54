package link

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstMatch(t *testing.T) {
	sel := FirstMatch(NamePrefix)

	tests := []struct {
		name   string
		want   string
		peers  []DiscoveredPeer
		wantOK bool
	}{
		{name: "no peers"},
		{name: "foreign devices only", peers: []DiscoveredPeer{{ID: "1", Name: "Headset"}}},
		{
			name:   "first matching wins",
			peers:  []DiscoveredPeer{{ID: "1", Name: "Headset"}, {ID: "2", Name: "VasaApp_ab12cd34"}, {ID: "3", Name: "VasaApp_ffffffff"}},
			want:   "2",
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := sel(tt.peers)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGroupMatch(t *testing.T) {
	sel := GroupMatch("g1", NamePrefix)

	tests := []struct {
		name   string
		want   string
		peers  []DiscoveredPeer
		wantOK bool
	}{
		{
			name:   "advertised group preferred over unadvertised",
			peers:  []DiscoveredPeer{{ID: "1", Name: "VasaApp_1"}, {ID: "2", Name: "VasaApp_2", GroupID: "g1"}},
			want:   "2",
			wantOK: true,
		},
		{
			name:  "other group never chosen",
			peers: []DiscoveredPeer{{ID: "1", Name: "VasaApp_1", GroupID: "g2"}},
		},
		{
			name:   "fallback to name prefix",
			peers:  []DiscoveredPeer{{ID: "1", Name: "VasaApp_1", GroupID: "g2"}, {ID: "2", Name: "VasaApp_2"}},
			want:   "2",
			wantOK: true,
		},
		{
			name:  "group matches but name does not",
			peers: []DiscoveredPeer{{ID: "1", Name: "Other", GroupID: "g1"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := sel(tt.peers)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want error
		name string
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: ErrTimeout},
		{name: "already classified", err: ErrNotFound, want: ErrNotFound},
		{name: "anything else", err: errors.New("radio off"), want: ErrTransportFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, classify(tt.err), tt.want)
		})
	}
	assert.NoError(t, classify(nil))
}

func TestDeviceName(t *testing.T) {
	name := DeviceName()
	assert.Len(t, name, len(NamePrefix)+8)
	assert.Contains(t, name, NamePrefix)
	assert.NotEqual(t, name, DeviceName())
}
