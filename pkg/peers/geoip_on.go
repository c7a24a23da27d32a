//go:build !nogeoip

package peers

// GeoIPEnabled reports whether the country column is compiled in.
// Build with -tags nogeoip to drop it.
const GeoIPEnabled = true
