package restore

import (
	"encoding/json"
	"fmt"
	"os"
)

// Save writes all restore points to path as an ordered JSON array, newest
// first, using write-temp-then-rename so a crash never leaves a truncated
// file.
func (s *Service) Save(path string) error {
	data, err := json.MarshalIndent(s.points, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling restore points: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("writing temp restore file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("renaming restore file: %w", err)
	}
	return nil
}

// Load replaces the service's points with the contents of path. A missing
// file yields an empty service. Malformed records are dropped silently
// rather than failing the whole load; the list is re-capped after loading.
func (s *Service) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.points = nil
			return nil
		}
		return fmt.Errorf("reading restore file: %w", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing restore file: %w", err)
	}

	points := make([]*Point, 0, len(raw))
	for _, rec := range raw {
		var p Point
		if err := json.Unmarshal(rec, &p); err != nil {
			continue
		}
		if p.ID == "" || p.Timestamp.IsZero() {
			continue
		}
		points = append(points, &p)
	}

	if len(points) > s.MaxPoints {
		points = points[:s.MaxPoints]
	}
	s.points = points
	return nil
}
