package peers

// NewStore returns an empty store. maxRows <= 0 means no limit.
func NewStore(maxRows int) *Store {
	return &Store{
		index:   make(map[string]int),
		maxRows: maxRows,
	}
}

func (s *Store) Len() int { return len(s.order) }

func (s *Store) Find(address string) (Ref, bool) {
	i, ok := s.index[address]
	if !ok {
		return Ref{}, false
	}
	return Ref{slot: i, gen: s.slots[i].gen}, true
}

// Append adds r as the newest row. Addresses are unique within the store.
func (s *Store) Append(r Row) (Ref, error) {
	if _, ok := s.index[r.Address]; ok {
		return Ref{}, ErrDuplicateAddress
	}
	if s.maxRows > 0 && len(s.order) >= s.maxRows {
		return Ref{}, ErrStoreFull
	}
	var i int
	if n := len(s.free); n > 0 {
		i = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		s.slots = append(s.slots, slot{gen: 0})
		i = len(s.slots) - 1
	}
	sl := &s.slots[i]
	sl.gen++
	sl.live = true
	sl.row = r
	s.order = append(s.order, i)
	s.index[r.Address] = i
	return Ref{slot: i, gen: sl.gen}, nil
}

// Resolve returns the row ref was issued for, or false if it has been removed.
func (s *Store) Resolve(ref Ref) (*Row, bool) {
	if ref.slot < 0 || ref.slot >= len(s.slots) {
		return nil, false
	}
	sl := &s.slots[ref.slot]
	if !sl.live || sl.gen != ref.gen {
		return nil, false
	}
	return &sl.row, true
}

func (s *Store) Update(ref Ref, f Fields) bool {
	row, ok := s.Resolve(ref)
	if !ok {
		return false
	}
	if f.ClientName != "" {
		row.ClientName = f.ClientName
	}
	row.Flags = f.Flags
	row.Progress = f.Progress
	row.DownloadRate = f.DownloadRate
	row.UploadRate = f.UploadRate
	row.UpdateSerial = f.UpdateSerial
	return true
}

func (s *Store) SetHostname(ref Ref, host string) bool {
	row, ok := s.Resolve(ref)
	if !ok {
		return false
	}
	row.Hostname = host
	return true
}

// RemoveStale drops every row not stamped with serial and returns how many
// went away.
func (s *Store) RemoveStale(serial int64) int {
	if serial == FirstLoadSerial {
		return 0
	}
	kept := s.order[:0]
	removed := 0
	for _, i := range s.order {
		if s.slots[i].row.UpdateSerial == serial {
			kept = append(kept, i)
			continue
		}
		s.release(i)
		removed++
	}
	s.order = kept
	return removed
}

func (s *Store) Clear() {
	for _, i := range s.order {
		s.release(i)
	}
	s.order = s.order[:0]
}

func (s *Store) release(i int) {
	sl := &s.slots[i]
	if j, ok := s.index[sl.row.Address]; ok && j == i {
		delete(s.index, sl.row.Address)
	}
	sl.live = false
	sl.gen++
	sl.row = Row{}
	s.free = append(s.free, i)
}

// Rows returns a copy of the live rows in insertion order.
func (s *Store) Rows() []Row {
	out := make([]Row, 0, len(s.order))
	for _, i := range s.order {
		out = append(out, s.slots[i].row)
	}
	return out
}

func (s *Store) Addresses() []string {
	out := make([]string, 0, len(s.order))
	for _, i := range s.order {
		out = append(out, s.slots[i].row.Address)
	}
	return out
}
