// Package restore provides immutable snapshots of the accumulated file set
// with full or per-file rollback and oldest-first pruning. Snapshots are
// deep copies both ways: nothing handed in or out aliases stored state.
package restore

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrNotFound is returned when a restore point id does not exist.
var ErrNotFound = errors.New("restore point not found")

// ErrFileNotFound is returned when a per-file rollback names a path the
// restore point does not contain.
var ErrFileNotFound = errors.New("file not in restore point")

// DefaultMaxPoints is the default cap on stored restore points.
const DefaultMaxPoints = 10

// Point is one immutable snapshot of the full file set plus metadata.
type Point struct {
	ID        string            `json:"id"`
	Label     string            `json:"label"`
	Timestamp time.Time         `json:"timestamp"`
	Files     []File            `json:"files"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// File is one stored file within a restore point.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Service keeps an ordered list of restore points, most recent first,
// pruned oldest-first beyond MaxPoints.
type Service struct {
	MaxPoints int
	points    []*Point
	seq       int
	now       func() time.Time
}

// NewService returns a Service capped at max points; max <= 0 uses
// DefaultMaxPoints.
func NewService(max int) *Service {
	if max <= 0 {
		max = DefaultMaxPoints
	}
	return &Service{MaxPoints: max, now: time.Now}
}

// Create deep-copies the given file set and metadata into a new restore
// point, prepends it, prunes beyond the cap, and returns the new point's id.
func (s *Service) Create(label string, files map[string]string, metadata map[string]string) string {
	s.seq++
	ts := s.now()
	p := &Point{
		ID:        fmt.Sprintf("rp-%d-%d", ts.UnixMilli(), s.seq),
		Label:     label,
		Timestamp: ts,
		Files:     copyFiles(files),
		Metadata:  copyMeta(metadata),
	}

	s.points = append([]*Point{p}, s.points...)
	if len(s.points) > s.MaxPoints {
		s.points = s.points[:s.MaxPoints]
	}
	return p.ID
}

// RollbackTo returns a copy of the full file set captured in the restore
// point with the given id.
func (s *Service) RollbackTo(id string) (map[string]string, error) {
	p := s.find(id)
	if p == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	out := make(map[string]string, len(p.Files))
	for _, f := range p.Files {
		out[f.Path] = f.Content
	}
	return out, nil
}

// RollbackFile returns a copy of one file's captured content.
func (s *Service) RollbackFile(id, path string) (string, error) {
	p := s.find(id)
	if p == nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	for _, f := range p.Files {
		if f.Path == path {
			return f.Content, nil
		}
	}
	return "", fmt.Errorf("%w: %s in %s", ErrFileNotFound, path, id)
}

// Delete removes a restore point by id.
func (s *Service) Delete(id string) error {
	for i, p := range s.points {
		if p.ID == id {
			s.points = append(s.points[:i], s.points[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// List returns shallow descriptors (id, label, timestamp, file count) for
// all stored points, newest first.
func (s *Service) List() []Descriptor {
	out := make([]Descriptor, 0, len(s.points))
	for _, p := range s.points {
		out = append(out, Descriptor{
			ID:        p.ID,
			Label:     p.Label,
			Timestamp: p.Timestamp,
			FileCount: len(p.Files),
		})
	}
	return out
}

// Descriptor summarizes a stored restore point.
type Descriptor struct {
	ID        string
	Label     string
	Timestamp time.Time
	FileCount int
}

// Len returns the number of stored restore points.
func (s *Service) Len() int {
	return len(s.points)
}

func (s *Service) find(id string) *Point {
	for _, p := range s.points {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func copyFiles(files map[string]string) []File {
	out := make([]File, 0, len(files))
	for path, content := range files {
		out = append(out, File{Path: path, Content: content})
	}
	// Stable order for persistence and comparison.
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

func copyMeta(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
