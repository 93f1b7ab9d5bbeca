// Package generate defines the code-generation boundary: the Generator
// interface the orchestrator calls once per phase, the delimited multi-file
// blob format generators emit, and a fenced-block scanner that parses blobs
// into discrete files.
package generate

import (
	"strings"
)

// Blob format markers.
const (
	markerName        = "===NAME==="
	markerDescription = "===DESCRIPTION==="
	markerAppType     = "===APP_TYPE==="
	markerFilePrefix  = "===FILE:"
	markerFileSuffix  = "==="
	markerEnd         = "===END==="
)

// GeneratedFile is one file extracted from a generation blob.
type GeneratedFile struct {
	Path    string
	Content string
}

// BlobHeader holds the metadata block that precedes the file sections.
type BlobHeader struct {
	Name        string
	Description string
	AppType     string // FRONTEND_ONLY or FULL_STACK
}

// ParseBlob scans a delimited multi-file blob into its header and files.
// The scanner is line-oriented: a ===FILE:path=== fence opens a file whose
// content runs until the next fence or ===END===. Malformed sections are
// skipped rather than failing the whole parse; a missing ===END=== is
// tolerated so partial generations still yield their complete files.
func ParseBlob(blob string) (BlobHeader, []GeneratedFile) {
	var header BlobHeader
	var files []GeneratedFile

	lines := strings.Split(blob, "\n")
	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		switch {
		case line == markerName:
			header.Name, i = readSection(lines, i+1)
		case line == markerDescription:
			header.Description, i = readSection(lines, i+1)
		case line == markerAppType:
			header.AppType, i = readSection(lines, i+1)
		case strings.HasPrefix(line, markerFilePrefix) && strings.HasSuffix(line, markerFileSuffix):
			path := strings.TrimSuffix(strings.TrimPrefix(line, markerFilePrefix), markerFileSuffix)
			path = strings.TrimSpace(path)
			content, next := readSection(lines, i+1)
			if path != "" {
				files = append(files, GeneratedFile{Path: path, Content: content})
			}
			i = next
		case line == markerEnd:
			return header, files
		default:
			i++
		}
	}
	return header, files
}

// readSection collects lines until the next fence marker and returns the
// joined content plus the index of the fence line.
func readSection(lines []string, start int) (string, int) {
	var buf []string
	i := start
	for i < len(lines) {
		if isFence(strings.TrimSpace(lines[i])) {
			break
		}
		buf = append(buf, lines[i])
		i++
	}
	// Trailing blank lines are fence padding, not content.
	for len(buf) > 0 && strings.TrimSpace(buf[len(buf)-1]) == "" {
		buf = buf[:len(buf)-1]
	}
	return strings.Join(buf, "\n"), i
}

func isFence(line string) bool {
	if line == markerName || line == markerDescription || line == markerAppType || line == markerEnd {
		return true
	}
	return strings.HasPrefix(line, markerFilePrefix) && strings.HasSuffix(line, markerFileSuffix)
}

// FormatBlob renders a header and file set back into the delimited blob
// format. Used to rebuild the accumulated-code representation after fixes.
func FormatBlob(header BlobHeader, files []GeneratedFile) string {
	var b strings.Builder
	if header.Name != "" {
		b.WriteString(markerName + "\n" + header.Name + "\n")
	}
	if header.Description != "" {
		b.WriteString(markerDescription + "\n" + header.Description + "\n")
	}
	if header.AppType != "" {
		b.WriteString(markerAppType + "\n" + header.AppType + "\n")
	}
	for _, f := range files {
		b.WriteString(markerFilePrefix + f.Path + markerFileSuffix + "\n")
		b.WriteString(f.Content)
		if !strings.HasSuffix(f.Content, "\n") {
			b.WriteString("\n")
		}
	}
	b.WriteString(markerEnd + "\n")
	return b.String()
}
