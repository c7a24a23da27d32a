package geo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpen_MissingFileDisablesLookup(t *testing.T) {
	db := Open(filepath.Join(t.TempDir(), "absent.mmdb"), zap.NewNop())
	require.Nil(t, db)
	require.Equal(t, "", db.CountryName("8.8.8.8"))
	require.NoError(t, db.Close())
}

func TestOpen_GarbageFileDisablesLookup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.mmdb")
	require.NoError(t, os.WriteFile(path, []byte("not a maxmind database"), 0644))

	db := Open(path, zap.NewNop())
	require.Nil(t, db)
	require.Equal(t, "", db.CountryName("1.1.1.1"))
}

func TestOpen_EmptyPath(t *testing.T) {
	require.Nil(t, Open("", zap.NewNop()))
}

// testdata/country-test.mmdb is an IPv4-only country database with two
// networks: 81.2.69.0/24 (GB, English name present) and 2.125.160.0/20
// (SE, German name only).
func TestCountryName_Fixture(t *testing.T) {
	db := Open(filepath.Join("testdata", "country-test.mmdb"), zap.NewNop())
	require.NotNil(t, db)
	t.Cleanup(func() { require.NoError(t, db.Close()) })

	require.Equal(t, "United Kingdom", db.CountryName("81.2.69.142"))
	require.Equal(t, "United Kingdom", db.CountryName("81.2.69.0"))
	require.Equal(t, "SE", db.CountryName("2.125.160.216"))
	require.Equal(t, "SE", db.CountryName("2.125.175.255"))

	require.Equal(t, "", db.CountryName("81.2.70.1"))
	require.Equal(t, "", db.CountryName("2.125.176.0"))
	require.Equal(t, "", db.CountryName("8.8.8.8"))
	require.Equal(t, "", db.CountryName("2001:db8::1"))
	require.Equal(t, "", db.CountryName("not-an-ip"))
}
