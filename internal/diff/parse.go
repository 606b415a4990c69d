package diff

import (
	"strconv"
	"strings"
)

const devNull = "/dev/null"

// Parse splits raw unified diff text into per-file records in input order.
// Empty input yields an empty slice. When no "diff --git" style boundary is
// present the first ---/+++ pair starts a single implicit file; failing that
// the whole input becomes one modified record with UnresolvedPath.
func Parse(raw string) []FileDiff {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	lines := splitLines(raw)

	var starts []int
	for i, line := range lines {
		if isBoundary(line) {
			starts = append(starts, i)
		}
	}
	if len(starts) == 0 {
		return []FileDiff{parseImplicit(lines)}
	}

	files := make([]FileDiff, 0, len(starts))
	for i, start := range starts {
		end := len(lines)
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		files = append(files, parseFile(lines[start:end], true))
	}
	return files
}

func splitLines(raw string) []string {
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.TrimSuffix(raw, "\n")
	return strings.Split(raw, "\n")
}

func parseImplicit(lines []string) FileDiff {
	// A ---/+++ pair normally starts the file; a lone +++ header is accepted
	// too since some producers drop the --- line for added files.
	for _, line := range lines {
		if strings.HasPrefix(line, "+++ ") {
			return parseFile(lines, false)
		}
	}
	f := FileDiff{Path: UnresolvedPath, Kind: KindModified}
	f.Lines = make([]Line, len(lines))
	for i, line := range lines {
		f.Lines[i] = Line{Kind: Classify(line), Text: line}
	}
	return f
}

// fileScan collects what a file's header lines say about it.
type fileScan struct {
	headerPath  string
	newFile     bool
	deletedFile bool
	renameFrom  string
	renameTo    string
	minusPath   string
	minusNull   bool
	plusPath    string
	plusNull    bool
	binary      bool
}

func parseFile(lines []string, bounded bool) FileDiff {
	var scan fileScan
	if bounded {
		scan.headerPath = boundaryPath(lines[0])
	}

	var f FileDiff
	var hunk *Hunk
	inHunk := false
	for i, line := range lines {
		kind := Classify(line)
		switch {
		case bounded && i == 0:
			kind = LineHeader
		case inHunk && (kind == LineHeader || kind == LineMetadata) && !isBoundary(line):
			// Inside a hunk "--- x" is a removed "-- x", "+++ x" an added "++ x".
			kind = hunkBodyKind(line)
		case kind == LineHunkHeader:
			inHunk = true
			f.Hunks = append(f.Hunks, parseHunkHeader(line))
			hunk = &f.Hunks[len(f.Hunks)-1]
		case !inHunk:
			scan.observe(line)
		}

		l := Line{Kind: kind, Text: line}
		f.Lines = append(f.Lines, l)
		if hunk != nil && kind != LineHunkHeader {
			hunk.Lines = append(hunk.Lines, l)
		}
	}

	scan.resolve(&f)
	return f
}

func hunkBodyKind(line string) LineKind {
	switch {
	case strings.HasPrefix(line, "+"):
		return LineAdded
	case strings.HasPrefix(line, "-"):
		return LineRemoved
	default:
		return LineContext
	}
}

func (s *fileScan) observe(line string) {
	switch {
	case strings.HasPrefix(line, "new file mode"):
		s.newFile = true
	case strings.HasPrefix(line, "deleted file mode"):
		s.deletedFile = true
	case strings.HasPrefix(line, "rename from "):
		s.renameFrom = unquotePath(strings.TrimPrefix(line, "rename from "))
	case strings.HasPrefix(line, "rename to "):
		s.renameTo = unquotePath(strings.TrimPrefix(line, "rename to "))
	case strings.HasPrefix(line, "Binary files "), strings.HasPrefix(line, "GIT binary patch"):
		s.binary = true
	case strings.HasPrefix(line, "--- "):
		p := headerLinePath(strings.TrimPrefix(line, "--- "), "a/")
		if p == devNull {
			s.minusNull = true
		} else if p != "" {
			s.minusPath = p
		}
	case strings.HasPrefix(line, "+++ "):
		p := headerLinePath(strings.TrimPrefix(line, "+++ "), "b/")
		if p == devNull || p == "dev/null" {
			s.plusNull = true
		} else if p != "" {
			s.plusPath = p
		}
	}
}

func (s *fileScan) resolve(f *FileDiff) {
	f.Binary = s.binary
	switch {
	case s.newFile:
		f.Kind = KindAdded
	case s.deletedFile:
		f.Kind = KindDeleted
	case s.renameFrom != "" && s.renameTo != "":
		f.Kind = KindRenamed
		f.OldPath = s.renameFrom
		f.NewPath = s.renameTo
	case s.minusNull && s.plusPath != "":
		f.Kind = KindAdded
	case s.plusNull && s.minusPath != "":
		f.Kind = KindDeleted
	default:
		f.Kind = KindModified
	}

	// The ---/+++ lines name the file unambiguously, so they win over the
	// boundary line, whose tokens cannot tell spaces in a path apart.
	switch {
	case f.Kind == KindRenamed:
		f.Path = s.renameTo
	case s.plusPath != "":
		f.Path = s.plusPath
	case s.minusPath != "":
		f.Path = s.minusPath
	case s.headerPath != "":
		f.Path = s.headerPath
	default:
		f.Path = UnresolvedPath
	}
}

// boundaryPath resolves the file path from a "diff --git" style line. An
// "a/X b/X" pair is split down the middle so X may contain spaces; otherwise
// it takes the b/ token, then the token after the a/ token, then the last
// token. Quoted tokens are unquoted first.
func boundaryPath(line string) string {
	fields := strings.Fields(line)
	if len(fields) <= 2 {
		return ""
	}
	rest := line[strings.Index(line, fields[1])+len(fields[1]):]
	rest = strings.TrimSpace(rest)
	if p, ok := symmetricPath(rest); ok {
		return p
	}

	args := splitArgs(rest)
	for i := len(args) - 1; i >= 0; i-- {
		if p, ok := strings.CutPrefix(args[i], "b/"); ok && p != "" {
			return p
		}
	}
	for i, tok := range args {
		if strings.HasPrefix(tok, "a/") && i+1 < len(args) {
			return stripSide(args[i+1])
		}
	}
	return stripSide(args[len(args)-1])
}

// symmetricPath splits "a/X b/X", the form git uses when old and new paths
// are equal.
func symmetricPath(rest string) (string, bool) {
	if !strings.HasPrefix(rest, "a/") || len(rest)%2 == 0 {
		return "", false
	}
	half := len(rest) / 2
	if rest[half] != ' ' || !strings.HasPrefix(rest[half+1:], "b/") {
		return "", false
	}
	if p := rest[2:half]; p != "" && p == rest[half+3:] {
		return p, true
	}
	return "", false
}

// splitArgs splits on spaces, keeping git's C-style quoted tokens whole.
func splitArgs(s string) []string {
	var args []string
	for {
		s = strings.TrimLeft(s, " ")
		if s == "" {
			return args
		}
		if s[0] == '"' {
			if q, err := strconv.QuotedPrefix(s); err == nil {
				args = append(args, unquotePath(q))
				s = s[len(q):]
				continue
			}
		}
		i := strings.IndexByte(s, ' ')
		if i < 0 {
			return append(args, s)
		}
		args = append(args, s[:i])
		s = s[i:]
	}
}

// unquotePath undoes git's quoting of paths with unusual bytes.
func unquotePath(p string) string {
	p = strings.TrimSpace(p)
	if strings.HasPrefix(p, `"`) {
		if q, err := strconv.QuotedPrefix(p); err == nil {
			if u, err := strconv.Unquote(q); err == nil {
				return u
			}
		}
	}
	return p
}

func stripSide(tok string) string {
	if p, ok := strings.CutPrefix(tok, "a/"); ok {
		return p
	}
	if p, ok := strings.CutPrefix(tok, "b/"); ok {
		return p
	}
	return tok
}

// headerLinePath extracts the path from the remainder of a ---/+++ line,
// dropping a trailing tab-separated timestamp and the side prefix.
func headerLinePath(rest, side string) string {
	if i := strings.IndexByte(rest, '\t'); i >= 0 {
		rest = rest[:i]
	}
	rest = unquotePath(rest)
	if rest == devNull {
		return devNull
	}
	return strings.TrimPrefix(rest, side)
}
