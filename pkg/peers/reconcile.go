package peers

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
)

// Enricher receives every newly appended row. Implementations must not block.
type Enricher interface {
	Enrich(ref Ref, address string)
}

type CountryLookup interface {
	CountryName(address string) string
}

type Reconciler struct {
	Enricher Enricher
	Geo      CountryLookup
	Logger   *zap.Logger
}

type Result struct {
	Appended   int `json:"appended"`
	Updated    int `json:"updated"`
	Removed    int `json:"removed"`
	Skipped    int `json:"skipped"`
	Duplicates int `json:"duplicates"`
}

// Reconcile applies one snapshot to s. A first-load pass replaces the store
// wholesale; any other pass updates rows by address and then evicts the rows
// it did not stamp with serial. Malformed entries are skipped. The only error
// returned is a failed append, which aborts the pass.
func (rc *Reconciler) Reconcile(s *Store, raw []json.RawMessage, serial int64, first bool) (Result, error) {
	var res Result
	if first {
		s.Clear()
	}

	seen := make(map[string]struct{}, len(raw))
	for i, msg := range raw {
		p, err := decodePeer(msg)
		if err != nil {
			res.Skipped++
			rc.logger().Warn("peers_entry_skipped", zap.Int("index", i), zap.Error(err))
			continue
		}
		addr := *p.Address
		fields := Fields{
			ClientName:   p.ClientName,
			Flags:        *p.FlagStr,
			Progress:     *p.Progress,
			DownloadRate: *p.RateToClient,
			UploadRate:   *p.RateToPeer,
			UpdateSerial: serial,
		}

		if _, dup := seen[addr]; dup {
			res.Duplicates++
			rc.logger().Warn("peers_duplicate_address", zap.String("address", addr), zap.Int64("serial", serial))
		}
		seen[addr] = struct{}{}

		if ref, ok := s.Find(addr); ok {
			s.Update(ref, fields)
			res.Updated++
			continue
		}

		row := Row{
			Address:      addr,
			ClientName:   p.ClientName,
			Port:         p.Port,
			Encrypted:    p.IsEncrypted,
			Incoming:     p.IsIncoming,
			Flags:        fields.Flags,
			Progress:     fields.Progress,
			DownloadRate: fields.DownloadRate,
			UploadRate:   fields.UploadRate,
			UpdateSerial: serial,
		}
		if GeoIPEnabled && rc.Geo != nil {
			row.CountryName = rc.Geo.CountryName(addr)
		}
		ref, err := s.Append(row)
		if err != nil {
			return res, fmt.Errorf("append %s: %w", addr, err)
		}
		res.Appended++
		if rc.Enricher != nil {
			rc.Enricher.Enrich(ref, addr)
		}
	}

	if !first {
		res.Removed = s.RemoveStale(serial)
	}
	return res, nil
}

func (rc *Reconciler) logger() *zap.Logger {
	if rc.Logger == nil {
		return zap.NewNop()
	}
	return rc.Logger
}

func decodePeer(msg json.RawMessage) (Peer, error) {
	var p Peer
	if err := json.Unmarshal(msg, &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrMalformedPeer, err)
	}
	switch {
	case p.Address == nil || *p.Address == "":
		return p, fmt.Errorf("%w: missing address", ErrMalformedPeer)
	case p.FlagStr == nil:
		return p, fmt.Errorf("%w: missing flagStr", ErrMalformedPeer)
	case p.Progress == nil:
		return p, fmt.Errorf("%w: missing progress", ErrMalformedPeer)
	case p.RateToClient == nil || p.RateToPeer == nil:
		return p, fmt.Errorf("%w: missing rate", ErrMalformedPeer)
	case *p.RateToClient < 0 || *p.RateToPeer < 0:
		return p, fmt.Errorf("%w: negative rate", ErrMalformedPeer)
	}
	if *p.Progress < 0 {
		*p.Progress = 0
	} else if *p.Progress > 1 {
		*p.Progress = 1
	}
	return p, nil
}
