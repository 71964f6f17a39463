// Package record defines the symbol record that bdx indexes and
// queries, along with the field-kind schema that maps each field to
// the way it is made searchable.
package record

import "time"

// Kind enumerates the ELF symbol types bdx distinguishes.
type Kind uint8

const (
	KindNoType Kind = iota
	KindObject
	KindFunc
	KindSection
	KindFile
	KindCommon
	KindTLS
	KindIFunc
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "OBJECT"
	case KindFunc:
		return "FUNC"
	case KindSection:
		return "SECTION"
	case KindFile:
		return "FILE"
	case KindCommon:
		return "COMMON"
	case KindTLS:
		return "TLS"
	case KindIFunc:
		return "IFUNC"
	default:
		return "NOTYPE"
	}
}

// ParseKind maps a query/output string back to a Kind. The zero value
// and false are returned for unrecognized strings.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "OBJECT":
		return KindObject, true
	case "FUNC":
		return KindFunc, true
	case "SECTION":
		return KindSection, true
	case "FILE":
		return KindFile, true
	case "COMMON":
		return KindCommon, true
	case "TLS":
		return KindTLS, true
	case "IFUNC":
		return KindIFunc, true
	case "NOTYPE":
		return KindNoType, true
	}
	return KindNoType, false
}

// Symbol is the unit of indexing: one defined symbol in one object
// file. See spec §3.
type Symbol struct {
	Path        string    // absolute path of the owning object file
	Name        string    // raw (possibly mangled) symbol name
	Section     string    // ELF section name, e.g. ".text"
	Type        Kind
	Address     uint64
	Size        uint64
	MTime       time.Time // object file mtime, nanosecond resolution
	Source      string    // best-effort source file path; may be empty
	Relocations []string  // ordered; may contain "" and duplicates
}

// Key is the stable sort/dedup key spec §4.5/§4.6 requires result
// ordering and shard-merge comparisons to use.
type Key struct {
	Path    string
	Address uint64
}

func (s *Symbol) Key() Key {
	return Key{Path: s.Path, Address: s.Address}
}

// Less implements the stable (path, address) ordering required of
// every query result sequence (spec §4.5, §5).
func (k Key) Less(o Key) bool {
	if k.Path != o.Path {
		return k.Path < o.Path
	}
	return k.Address < o.Address
}

// FileState is one manifest entry: the last-indexed mtime of an
// object path and the shard that currently owns its records.
type FileState struct {
	Path    string
	MTime   time.Time
	ShardID string
}
