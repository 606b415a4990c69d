// Package diff parses unified diff text, as produced by git diff and git
// show, into per-file records. Parsing never fails: input that does not look
// like a diff degrades to coarser records instead.
package diff

import (
	"regexp"
	"strconv"
	"strings"
)

// UnresolvedPath names a record whose file path could not be determined.
const UnresolvedPath = "(unknown file)"

// Kind is the change applied to a file.
type Kind int

const (
	KindModified Kind = iota
	KindAdded
	KindDeleted
	KindRenamed
)

func (k Kind) String() string {
	switch k {
	case KindAdded:
		return "added"
	case KindDeleted:
		return "deleted"
	case KindRenamed:
		return "renamed"
	default:
		return "modified"
	}
}

// LineKind is the rendering class of a single diff line.
type LineKind int

const (
	LineContext LineKind = iota
	LineAdded
	LineRemoved
	LineHunkHeader
	LineMetadata
	LineHeader
)

func (k LineKind) String() string {
	switch k {
	case LineAdded:
		return "added"
	case LineRemoved:
		return "removed"
	case LineHunkHeader:
		return "hunk-header"
	case LineMetadata:
		return "file-metadata"
	case LineHeader:
		return "header"
	default:
		return "context"
	}
}

// Line is one raw diff line with its classification.
type Line struct {
	Kind LineKind
	Text string
}

// Hunk is a contiguous block of changes introduced by an @@ marker.
type Hunk struct {
	Header   string
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Section  string
	Lines    []Line
}

// FileDiff is one file's slice of a larger diff. Lines holds every raw line
// belonging to the file, headers included.
type FileDiff struct {
	Path    string
	Kind    Kind
	OldPath string // set for renames
	NewPath string // set for renames
	Binary  bool
	Lines   []Line
	Hunks   []Hunk
}

// Stats counts added and removed lines across all hunks.
func (f FileDiff) Stats() (added, removed int) {
	for _, h := range f.Hunks {
		for _, l := range h.Lines {
			switch l.Kind {
			case LineAdded:
				added++
			case LineRemoved:
				removed++
			}
		}
	}
	return added, removed
}

// Title is the label shown for the file, "old → new" for renames.
func (f FileDiff) Title() string {
	if f.Kind == KindRenamed && f.OldPath != "" && f.NewPath != "" {
		return f.OldPath + " → " + f.NewPath
	}
	return f.Path
}

var metadataPrefixes = []string{
	"index ",
	"new file mode",
	"deleted file mode",
	"old mode",
	"new mode",
	"rename from",
	"rename to",
	"copy from",
	"copy to",
	"similarity index",
	"dissimilarity index",
	"Binary files ",
	"GIT binary patch",
}

// Classify returns the rendering class of a line without regard to its
// position in the diff.
func Classify(line string) LineKind {
	switch {
	case isBoundary(line):
		return LineHeader
	case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
		return LineHeader
	case strings.HasPrefix(line, "@@"):
		return LineHunkHeader
	case strings.HasPrefix(line, "+"):
		return LineAdded
	case strings.HasPrefix(line, "-"):
		return LineRemoved
	case isMetadata(line):
		return LineMetadata
	default:
		return LineContext
	}
}

func isBoundary(line string) bool {
	return strings.HasPrefix(line, "diff --git") ||
		strings.HasPrefix(line, "diff --cc") ||
		strings.HasPrefix(line, "diff --combined")
}

func isMetadata(line string) bool {
	for _, p := range metadataPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

var hunkRe = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@ ?(.*)$`)

func parseHunkHeader(line string) Hunk {
	h := Hunk{Header: line}
	m := hunkRe.FindStringSubmatch(line)
	if m == nil {
		return h
	}
	h.OldStart = atoi(m[1])
	h.OldCount = countOrOne(m[2])
	h.NewStart = atoi(m[3])
	h.NewCount = countOrOne(m[4])
	h.Section = strings.TrimSpace(m[5])
	return h
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func countOrOne(s string) int {
	if s == "" {
		return 1
	}
	return atoi(s)
}
