//go:build nogeoip

package peers

const GeoIPEnabled = false
