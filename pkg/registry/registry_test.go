package registry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shuliakovsky/trg-remote/pkg/rpc"
)

func TestReplaceAndAll(t *testing.T) {
	r := New()
	_, ok := r.First()
	require.False(t, ok)
	require.True(t, r.UpdatedAt().IsZero())

	r.Replace([]rpc.Torrent{
		{ID: 7, Name: "debian.iso", PeersConnected: 3},
		{ID: 2, Name: "arch.iso", Peers: []json.RawMessage{json.RawMessage(`{}`)}},
	})

	all := r.All()
	require.Len(t, all, 2)
	require.Equal(t, int64(2), all[0].ID)
	require.Equal(t, "debian.iso", all[1].Name)
	require.False(t, r.UpdatedAt().IsZero())

	first, ok := r.First()
	require.True(t, ok)
	require.Equal(t, int64(2), first)
}

func TestReplaceDropsVanished(t *testing.T) {
	r := New()
	r.Replace([]rpc.Torrent{{ID: 1}, {ID: 2}})
	r.Replace([]rpc.Torrent{{ID: 2, Name: "kept"}})

	require.False(t, r.Has(1))
	s, ok := r.Get(2)
	require.True(t, ok)
	require.Equal(t, "kept", s.Name)
}
