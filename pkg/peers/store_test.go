package peers

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_AppendFind(t *testing.T) {
	s := NewStore(0)
	ref, err := s.Append(Row{Address: "10.0.0.1", UpdateSerial: 1})
	require.NoError(t, err)

	got, ok := s.Find("10.0.0.1")
	require.True(t, ok)
	require.Equal(t, ref, got)

	_, ok = s.Find("10.0.0.2")
	require.False(t, ok)
	require.Equal(t, 1, s.Len())
}

func TestStore_AppendFull(t *testing.T) {
	s := NewStore(1)
	_, err := s.Append(Row{Address: "a"})
	require.NoError(t, err)
	_, err = s.Append(Row{Address: "b"})
	require.ErrorIs(t, err, ErrStoreFull)
}

func TestStore_AppendDuplicateAddressKeepsIndex(t *testing.T) {
	s := NewStore(0)
	first, err := s.Append(Row{Address: "a", UpdateSerial: 2})
	require.NoError(t, err)

	_, err = s.Append(Row{Address: "a", UpdateSerial: 1})
	require.ErrorIs(t, err, ErrDuplicateAddress)
	require.Equal(t, 1, s.Len())
	require.Equal(t, []string{"a"}, s.Addresses())

	got, ok := s.Find("a")
	require.True(t, ok)
	require.Equal(t, first, got)

	require.Equal(t, 0, s.RemoveStale(2))
	got, ok = s.Find("a")
	require.True(t, ok)
	require.Equal(t, first, got)
}

func TestStore_UpdateKeepsAddressAndEnrichment(t *testing.T) {
	s := NewStore(0)
	ref, _ := s.Append(Row{Address: "a", Hostname: "a.example", CountryName: "Norway"})

	require.True(t, s.Update(ref, Fields{Flags: "UE", Progress: 0.5, DownloadRate: 10, UploadRate: 20, UpdateSerial: 7}))

	row, ok := s.Resolve(ref)
	require.True(t, ok)
	require.Equal(t, Row{
		Address:      "a",
		Hostname:     "a.example",
		CountryName:  "Norway",
		Flags:        "UE",
		Progress:     0.5,
		DownloadRate: 10,
		UploadRate:   20,
		UpdateSerial: 7,
	}, *row)
}

func TestStore_RemoveStale(t *testing.T) {
	s := NewStore(0)
	a, _ := s.Append(Row{Address: "a", UpdateSerial: 2})
	b, _ := s.Append(Row{Address: "b", UpdateSerial: 1})
	c, _ := s.Append(Row{Address: "c", UpdateSerial: 2})

	require.Equal(t, 1, s.RemoveStale(2))
	require.Equal(t, []string{"a", "c"}, s.Addresses())

	_, ok := s.Resolve(b)
	require.False(t, ok)
	_, ok = s.Resolve(a)
	require.True(t, ok)
	_, ok = s.Resolve(c)
	require.True(t, ok)
}

func TestStore_RemoveStaleFirstLoadSerialIsNoop(t *testing.T) {
	s := NewStore(0)
	_, _ = s.Append(Row{Address: "a", UpdateSerial: 3})
	require.Equal(t, 0, s.RemoveStale(FirstLoadSerial))
	require.Equal(t, 1, s.Len())
}

func TestStore_RefDoesNotMatchReusedSlot(t *testing.T) {
	s := NewStore(0)
	old, _ := s.Append(Row{Address: "a", UpdateSerial: 1})
	s.Clear()

	fresh, _ := s.Append(Row{Address: "b", UpdateSerial: 1})
	require.Equal(t, old.slot, fresh.slot, "slot should be recycled")

	_, ok := s.Resolve(old)
	require.False(t, ok)
	require.False(t, s.SetHostname(old, "stale.example"))

	row, ok := s.Resolve(fresh)
	require.True(t, ok)
	require.Empty(t, row.Hostname)
}

func TestStore_ResolveRemovedTwice(t *testing.T) {
	s := NewStore(0)
	ref, _ := s.Append(Row{Address: "a", UpdateSerial: 1})
	s.RemoveStale(2)

	for i := 0; i < 2; i++ {
		require.False(t, s.SetHostname(ref, "a.example"))
		_, ok := s.Resolve(ref)
		require.False(t, ok)
	}
	require.Equal(t, 0, s.Len())
	_, ok := s.Find("a")
	require.False(t, ok)
}

func TestStore_ZeroRefNeverResolves(t *testing.T) {
	s := NewStore(0)
	_, _ = s.Append(Row{Address: "a"})
	_, ok := s.Resolve(Ref{})
	require.False(t, ok)
}

func TestStore_RowsKeepsInsertionOrder(t *testing.T) {
	s := NewStore(0)
	for _, a := range []string{"c", "a", "b"} {
		_, _ = s.Append(Row{Address: a, UpdateSerial: 1})
	}
	rows := s.Rows()
	require.Len(t, rows, 3)
	require.Equal(t, "c", rows[0].Address)
	require.Equal(t, "b", rows[2].Address)

	rows[0].Address = "mutated"
	require.Equal(t, []string{"c", "a", "b"}, s.Addresses(), "Rows must return a copy")
}
