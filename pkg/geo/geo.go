// Package geo maps peer addresses to country names using an offline
// MaxMind/DB-IP country database.
package geo

import (
	"errors"
	"io/fs"
	"net"
	"os"

	"github.com/oschwald/maxminddb-golang"
	"go.uber.org/zap"
)

// DefaultPath is where distribution packages install the GeoLite2 country database.
const DefaultPath = "/usr/share/GeoIP/GeoLite2-Country.mmdb"

type record struct {
	Country struct {
		ISOCode string            `maxminddb:"iso_code"`
		Names   map[string]string `maxminddb:"names"`
	} `maxminddb:"country"`
}

// DB is read-only after Open and safe for concurrent use. A nil *DB is valid
// and answers every lookup with an empty string.
type DB struct {
	reader *maxminddb.Reader
	lang   string
}

// Open loads the database at path. A missing or unreadable file is not an
// error: it returns nil and country lookups are disabled.
func Open(path string, logger *zap.Logger) *DB {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("geoip_database_absent", zap.String("path", path))
		} else {
			logger.Warn("geoip_database_unreadable", zap.String("path", path), zap.Error(err))
		}
		return nil
	}
	reader, err := maxminddb.Open(path)
	if err != nil {
		logger.Warn("geoip_database_open_failed", zap.String("path", path), zap.Error(err))
		return nil
	}
	logger.Info("geoip_database_loaded",
		zap.String("path", path),
		zap.String("type", reader.Metadata.DatabaseType),
	)
	return &DB{reader: reader, lang: "en"}
}

func (d *DB) CountryName(address string) string {
	if d == nil || d.reader == nil {
		return ""
	}
	ip := net.ParseIP(address)
	if ip == nil {
		return ""
	}
	var rec record
	if err := d.reader.Lookup(ip, &rec); err != nil {
		return ""
	}
	if name := rec.Country.Names[d.lang]; name != "" {
		return name
	}
	return rec.Country.ISOCode
}

func (d *DB) Close() error {
	if d == nil || d.reader == nil {
		return nil
	}
	return d.reader.Close()
}
