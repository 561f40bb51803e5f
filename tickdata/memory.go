package tickdata

import "io"

// MemorySource serves ticks from a pre-parsed slice. Suited to small
// uploaded datasets where loading everything up front is acceptable.
type MemorySource struct {
	ticks []Tick
	pos   int
}

func NewMemorySource(ticks []Tick) *MemorySource {
	return &MemorySource{ticks: ticks}
}

// ParseAll reads an entire columnar input into memory, dropping malformed
// lines the same way the streaming source does.
func ParseAll(r io.Reader, f Format) ([]Tick, error) {
	src := NewCSVSource(r, f)
	var ticks []Tick
	for {
		t, err := src.Next()
		if err == io.EOF {
			return ticks, nil
		}
		if err != nil {
			return nil, err
		}
		ticks = append(ticks, t)
	}
}

func (s *MemorySource) Next() (Tick, error) {
	if s.pos >= len(s.ticks) {
		return Tick{}, io.EOF
	}
	t := s.ticks[s.pos]
	s.pos++
	return t, nil
}

func (s *MemorySource) Close() error { return nil }
