package mounts

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// DefaultTablePath is the kernel's view of mounted filesystems.
const DefaultTablePath = "/proc/mounts"

// DefaultTypes are the filesystem types tracked when none are configured.
var DefaultTypes = []string{"nfs", "nfs4"}

// Record is one mounted filesystem of a tracked type.
type Record struct {
	Device     string
	MountPoint string
	FSType     string

	// Options holds the mount options; flags map to "" and key=value
	// options map key to value.
	Options map[string]string
}

// Option returns the value of a mount option and whether it is set.
func (r Record) Option(name string) (string, bool) {
	v, ok := r.Options[name]
	return v, ok
}

// Soft reports whether an NFS mount uses soft semantics, where the kernel
// gives up on an unresponsive server instead of blocking forever.
func (r Record) Soft() bool {
	_, ok := r.Options["soft"]
	return ok
}

// Enumerator reads mount records from a mount table.
type Enumerator struct {
	// Path is the mount table to read.
	// Default: /proc/mounts
	Path string

	// Types lists the tracked filesystem types.
	// Default: nfs, nfs4
	Types []string
}

// NewEnumerator creates an enumerator with defaults applied.
func NewEnumerator(path string, types []string) *Enumerator {
	if path == "" {
		path = DefaultTablePath
	}
	if len(types) == 0 {
		types = DefaultTypes
	}
	return &Enumerator{Path: path, Types: types}
}

// Enumerate returns the tracked mounts in table order. The result is stable for
// the duration of one call.
func (e *Enumerator) Enumerate() ([]Record, error) {
	path := e.Path
	if path == "" {
		path = DefaultTablePath
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrEnumeration, path, err)
	}
	defer f.Close()

	records, err := Parse(f, e.Types...)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrEnumeration, path, err)
	}
	return records, nil
}

// Parse reads a mount table from r and returns the entries whose filesystem
// type is one of types. With no types every entry is returned.
func Parse(r io.Reader, types ...string) ([]Record, error) {
	tracked := make(map[string]bool, len(types))
	for _, t := range types {
		tracked[t] = true
	}

	var records []Record
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			continue
		}
		// fields[1] = mount point, fields[2] = filesystem type
		if len(tracked) > 0 && !tracked[fields[2]] {
			continue
		}
		records = append(records, Record{
			Device:     unescape(fields[0]),
			MountPoint: unescape(fields[1]),
			FSType:     fields[2],
			Options:    parseOptions(fields[3]),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func parseOptions(field string) map[string]string {
	opts := make(map[string]string)
	for _, opt := range strings.Split(field, ",") {
		if opt == "" {
			continue
		}
		key, value, _ := strings.Cut(opt, "=")
		opts[key] = value
	}
	return opts
}

// unescape decodes the octal escapes the kernel uses for whitespace and
// backslashes in mount table fields.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+3 < len(s) && isOctal(s[i+1]) && isOctal(s[i+2]) && isOctal(s[i+3]) {
			b.WriteByte((s[i+1]-'0')<<6 | (s[i+2]-'0')<<3 | (s[i+3] - '0'))
			i += 3
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func isOctal(c byte) bool {
	return c >= '0' && c <= '7'
}

// Intersect returns the configured paths that are live mounts, compared by
// cleaned path only. Every configured entry is kept, repeats included, so the
// result has the configured length exactly when every entry is mounted. The
// configured order is preserved.
func Intersect(configured []string, live []Record) []string {
	mounted := mountedSet(live)
	var found []string
	for _, p := range configured {
		p = filepath.Clean(p)
		if mounted[p] {
			found = append(found, p)
		}
	}
	return found
}

// Missing returns the configured paths that are not live mounts.
func Missing(configured []string, live []Record) []string {
	mounted := mountedSet(live)
	var missing []string
	for _, p := range configured {
		p = filepath.Clean(p)
		if !mounted[p] {
			missing = append(missing, p)
		}
	}
	return missing
}

// Duplicates returns the cleaned paths named more than once in paths, each
// reported once in order of its second occurrence.
func Duplicates(paths []string) []string {
	seen := make(map[string]int, len(paths))
	var dups []string
	for _, p := range paths {
		p = filepath.Clean(p)
		seen[p]++
		if seen[p] == 2 {
			dups = append(dups, p)
		}
	}
	return dups
}

func mountedSet(live []Record) map[string]bool {
	mounted := make(map[string]bool, len(live))
	for _, r := range live {
		mounted[filepath.Clean(r.MountPoint)] = true
	}
	return mounted
}
