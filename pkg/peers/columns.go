package peers

type Column string

const (
	ColIcon         Column = "icon"
	ColAddress      Column = "address"
	ColCountry      Column = "country"
	ColHost         Column = "hostname"
	ColClient       Column = "clientName"
	ColPort         Column = "port"
	ColEncrypted    Column = "encrypted"
	ColIncoming     Column = "incoming"
	ColFlags        Column = "flags"
	ColProgress     Column = "progress"
	ColDownloadRate Column = "rateDownload"
	ColUploadRate   Column = "rateUpload"
	ColUpdateSerial Column = "updateSerial"
)

// IconNetwork is the marker every peer row carries in the icon column.
const IconNetwork = "network"

// Columns is the fixed peer table schema.
func Columns() []Column {
	cols := []Column{ColIcon, ColAddress}
	if GeoIPEnabled {
		cols = append(cols, ColCountry)
	}
	return append(cols, ColHost, ColClient, ColPort, ColEncrypted, ColIncoming,
		ColFlags, ColProgress, ColDownloadRate, ColUploadRate, ColUpdateSerial)
}

func (r Row) Value(c Column) any {
	switch c {
	case ColIcon:
		return IconNetwork
	case ColAddress:
		return r.Address
	case ColCountry:
		return r.CountryName
	case ColHost:
		return r.Hostname
	case ColClient:
		return r.ClientName
	case ColPort:
		return r.Port
	case ColEncrypted:
		return r.Encrypted
	case ColIncoming:
		return r.Incoming
	case ColFlags:
		return r.Flags
	case ColProgress:
		return r.Progress
	case ColDownloadRate:
		return r.DownloadRate
	case ColUploadRate:
		return r.UploadRate
	case ColUpdateSerial:
		return r.UpdateSerial
	}
	return nil
}

// Table is a read-consistent copy of the store as the presentation layer sees it.
type Table struct {
	TorrentID int64    `json:"torrentId"`
	Serial    int64    `json:"serial"`
	Columns   []Column `json:"columns"`
	Rows      [][]any  `json:"rows"`
}

func newTable(torrentID, serial int64, rows []Row) Table {
	cols := Columns()
	t := Table{
		TorrentID: torrentID,
		Serial:    serial,
		Columns:   cols,
		Rows:      make([][]any, 0, len(rows)),
	}
	for _, r := range rows {
		cells := make([]any, len(cols))
		for i, c := range cols {
			cells[i] = r.Value(c)
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}
