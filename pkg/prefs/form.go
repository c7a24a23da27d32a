package prefs

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

type Kind string

const (
	KindEntry      Kind = "entry"
	KindCheck      Kind = "check"
	KindSpinInt    Kind = "spin-int"
	KindSpinDouble Kind = "spin-double"
	KindCombo      Kind = "combo"
)

var (
	ErrUnknownField = errors.New("unknown field")
	ErrInsensitive  = errors.New("field is disabled")
	ErrBadValue     = errors.New("bad value")
)

var encryptionOptions = []string{"Required", "Preferred", "Tolerated"}

// Field is one form control bound to a session key. Value holds a string
// (entry, combo), bool (check), int64 (spin-int) or float64 (spin-double).
type Field struct {
	Key     string   `json:"key"`
	Label   string   `json:"label"`
	Kind    Kind     `json:"kind"`
	Value   any      `json:"value"`
	Min     float64  `json:"min,omitempty"`
	Max     float64  `json:"max,omitempty"`
	Step    float64  `json:"step,omitempty"`
	Options []string `json:"options,omitempty"`
	// Toggle names the check field that enables this one.
	Toggle    string `json:"toggle,omitempty"`
	Sensitive bool   `json:"sensitive"`
}

type Page struct {
	Title  string   `json:"title"`
	Fields []*Field `json:"fields"`
}

type Form struct {
	Pages []Page `json:"pages"`
	byKey map[string]*Field
}

func entry(key, label, v string) *Field {
	return &Field{Key: key, Label: label, Kind: KindEntry, Value: v}
}

func check(key, label string, v bool) *Field {
	return &Field{Key: key, Label: label, Kind: KindCheck, Value: v}
}

func spinInt(key, label string, v int64, max, step float64) *Field {
	return &Field{Key: key, Label: label, Kind: KindSpinInt, Value: clampInt(v, 0, max), Max: max, Step: step}
}

func spinDouble(key, label string, v float64, max, step float64) *Field {
	return &Field{Key: key, Label: label, Kind: KindSpinDouble, Value: clamp(v, 0, max), Max: max, Step: step}
}

func togglesWith(t, f *Field) *Field {
	f.Toggle = t.Key
	return f
}

// FromSettings lays out the General, Connections and Limits pages populated
// from s.
func FromSettings(s Settings) *Form {
	incompleteCheck := check(KeyIncompleteDirEnabled, "Incomplete download dir", s.IncompleteDirEnabled)
	doneCheck := check(KeyDoneScriptEnabled, "Torrent done script", s.DoneScriptEnabled)
	general := Page{Title: "General", Fields: []*Field{
		entry(KeyDownloadDir, "Download directory", s.DownloadDir),
		incompleteCheck,
		togglesWith(incompleteCheck, entry(KeyIncompleteDir, "Incomplete directory", s.IncompleteDir)),
		doneCheck,
		togglesWith(doneCheck, entry(KeyDoneScriptFilename, "Done script", s.DoneScriptFilename)),
		spinInt(KeyCacheSizeMB, "Cache size (MB)", s.CacheSizeMB, math.MaxInt32, 1),
		check(KeyRenamePartialFiles, "Rename partial files", s.RenamePartialFiles),
		check(KeyTrashOriginalTorrentFiles, "Trash original torrent files", s.TrashOriginalTorrentFiles),
		check(KeyStartAddedTorrents, "Start added torrents", s.StartAddedTorrents),
	}}

	connections := Page{Title: "Connections", Fields: []*Field{
		{Key: KeyEncryption, Label: "Encryption", Kind: KindCombo, Value: encryptionLabel(s.Encryption), Options: encryptionOptions},
		spinInt(KeyPeerPort, "Peer port", s.PeerPort, 65535, 1),
		check(KeyPeerPortRandomOnStart, "Random peer port on start", s.PeerPortRandomOnStart),
		check(KeyPortForwardingEnabled, "Peer port forwarding", s.PortForwardingEnabled),
		check(KeyPexEnabled, "Peer exchange (PEX)", s.PexEnabled),
		check(KeyLpdEnabled, "Local peer discovery", s.LpdEnabled),
	}}

	downCheck := check(KeySpeedLimitDownEnabled, "Limit download speed (KB/s)", s.SpeedLimitDownEnabled)
	upCheck := check(KeySpeedLimitUpEnabled, "Limit upload speed (KB/s)", s.SpeedLimitUpEnabled)
	ratioCheck := check(KeySeedRatioLimited, "Seed ratio limit", s.SeedRatioLimited)
	limits := Page{Title: "Limits", Fields: []*Field{
		downCheck,
		togglesWith(downCheck, spinInt(KeySpeedLimitDown, "Download limit", s.SpeedLimitDown, math.MaxInt32, 5)),
		upCheck,
		togglesWith(upCheck, spinInt(KeySpeedLimitUp, "Upload limit", s.SpeedLimitUp, math.MaxInt32, 5)),
		ratioCheck,
		togglesWith(ratioCheck, spinDouble(KeySeedRatioLimit, "Seed ratio", s.SeedRatioLimit, math.MaxInt32, 0.1)),
		spinInt(KeyPeerLimitGlobal, "Global peer limit", s.PeerLimitGlobal, math.MaxInt32, 5),
		spinInt(KeyPeerLimitPerTorrent, "Per torrent peer limit", s.PeerLimitPerTorrent, math.MaxInt32, 5),
	}}

	f := &Form{Pages: []Page{general, connections, limits}}
	f.index()
	f.refreshSensitivity()
	return f
}

func (f *Form) index() {
	f.byKey = map[string]*Field{}
	for _, p := range f.Pages {
		for _, fld := range p.Fields {
			f.byKey[fld.Key] = fld
		}
	}
}

// clone returns a copy that shares no fields with f. Values are scalars, so
// copying each Field is deep enough.
func (f *Form) clone() *Form {
	c := &Form{Pages: make([]Page, len(f.Pages))}
	for i, p := range f.Pages {
		c.Pages[i] = Page{Title: p.Title, Fields: make([]*Field, len(p.Fields))}
		for j, fld := range p.Fields {
			cp := *fld
			cp.Options = append([]string(nil), fld.Options...)
			c.Pages[i].Fields[j] = &cp
		}
	}
	c.index()
	return c
}

func encryptionLabel(daemon string) string {
	switch daemon {
	case "required":
		return "Required"
	case "tolerated":
		return "Tolerated"
	default:
		return "Preferred"
	}
}

func (f *Form) Field(key string) (*Field, bool) {
	fld, ok := f.byKey[key]
	return fld, ok
}

func (f *Form) refreshSensitivity() {
	for _, fld := range f.byKey {
		fld.Sensitive = true
		if fld.Toggle == "" {
			continue
		}
		if t, ok := f.byKey[fld.Toggle]; ok {
			fld.Sensitive, _ = t.Value.(bool)
		}
	}
}

// Set edits one field the way its control would: spins clamp to their
// range, combos only accept one of their options, disabled fields refuse.
func (f *Form) Set(key string, v any) error {
	fld, ok := f.byKey[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	if !fld.Sensitive {
		return fmt.Errorf("%w: %s", ErrInsensitive, key)
	}
	switch fld.Kind {
	case KindEntry:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%w: %s wants a string", ErrBadValue, key)
		}
		fld.Value = s
	case KindCheck:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("%w: %s wants a bool", ErrBadValue, key)
		}
		fld.Value = b
		f.refreshSensitivity()
	case KindSpinInt:
		n, ok := number(v)
		if !ok || n != math.Trunc(n) {
			return fmt.Errorf("%w: %s wants an integer", ErrBadValue, key)
		}
		fld.Value = int64(clamp(n, fld.Min, fld.Max))
	case KindSpinDouble:
		n, ok := number(v)
		if !ok {
			return fmt.Errorf("%w: %s wants a number", ErrBadValue, key)
		}
		fld.Value = clamp(n, fld.Min, fld.Max)
	case KindCombo:
		s, _ := v.(string)
		for _, opt := range fld.Options {
			if strings.EqualFold(opt, s) {
				fld.Value = opt
				return nil
			}
		}
		return fmt.Errorf("%w: %s must be one of %v", ErrBadValue, key, fld.Options)
	}
	return nil
}

// SetAll applies checks before everything else so a single edit can enable
// a field and set it.
func (f *Form) SetAll(values map[string]any) error {
	var errs []error
	for k, v := range values {
		if fld, ok := f.byKey[k]; ok && fld.Kind == KindCheck {
			errs = append(errs, f.Set(k, v))
		}
	}
	for k, v := range values {
		if fld, ok := f.byKey[k]; ok && fld.Kind == KindCheck {
			continue
		}
		errs = append(errs, f.Set(k, v))
	}
	return errors.Join(errs...)
}

// Args builds the session-set arguments from every bound field, including
// the disabled ones.
func (f *Form) Args() map[string]any {
	args := make(map[string]any, len(f.byKey))
	for _, p := range f.Pages {
		for _, fld := range p.Fields {
			if fld.Kind == KindCombo {
				s, _ := fld.Value.(string)
				args[fld.Key] = strings.ToLower(s)
				continue
			}
			args[fld.Key] = fld.Value
		}
	}
	return args
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v int64, lo, hi float64) int64 {
	return int64(clamp(float64(v), lo, hi))
}
