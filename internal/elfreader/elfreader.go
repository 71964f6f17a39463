// Package elfreader extracts symbol records from one ELF object file:
// its defined symbols and, per symbol, the names targeted by
// relocations whose patched bytes fall in that symbol's address range
// (spec §4.1). The ELF/DWARF parsing itself is an explicit external
// boundary (spec §1); this package consumes stdlib debug/elf and
// debug/dwarf exactly as the teacher (aclements/objbrowse) does.
package elfreader

import (
	"debug/elf"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/bdx-project/bdx/internal/bdxerr"
	"github.com/bdx-project/bdx/internal/record"
)

// Options configures one Parse call (spec §4.1, §4.4).
type Options struct {
	IndexRelocations bool
	MinSymbolSize    uint64
	// SourceResolver, if non-nil, is consulted when DWARF alone
	// doesn't yield a source file (spec §4.1 step 4, §9 "External
	// collaborator boundaries"). It is itself out of scope; only
	// this interface is specified.
	SourceResolver SourceResolver
}

// SourceResolver is the dwarfdump-equivalent external collaborator.
// Implementations are expected to invoke a bounded subprocess and
// return "" on any failure.
type SourceResolver interface {
	ResolveSource(objPath string) string
}

// Parse extracts the defined-symbol records from the ELF object at
// path. A malformed file is reported as a *bdxerr.Error of
// bdxerr.KindFile and should be treated as non-fatal by the caller
// (spec §4.1 "Failure semantics", §7).
func Parse(path string, opts Options) ([]record.Symbol, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, bdxerr.FileErr(path, err)
	}
	defer fh.Close()

	st, err := fh.Stat()
	if err != nil {
		return nil, bdxerr.FileErr(path, err)
	}
	mtime := durationMTime(st.ModTime())

	ef, err := elf.NewFile(fh)
	if err != nil {
		return nil, bdxerr.FileErr(path, fmt.Errorf("not an ELF file: %w", err))
	}
	defer ef.Close()

	syms, err := definedSymbols(ef, opts.MinSymbolSize)
	if err != nil {
		return nil, bdxerr.FileErr(path, err)
	}

	records := make([]record.Symbol, len(syms))
	for i, s := range syms {
		records[i] = record.Symbol{
			Path:    path,
			Name:    s.name,
			Section: s.section,
			Type:    s.kind,
			Address: s.addr,
			Size:    s.size,
			MTime:   mtime,
		}
	}

	if opts.IndexRelocations {
		if err := attachRelocations(ef, syms, records); err != nil {
			return nil, bdxerr.FileErr(path, fmt.Errorf("decoding relocations: %w", err))
		}
	}

	src := resolveSource(ef, opts.SourceResolver, path)
	for i := range records {
		records[i].Source = src
	}

	return records, nil
}

type elfSym struct {
	name       string
	section    string
	sectionIdx elf.SectionIndex
	kind       record.Kind
	addr, size uint64
	raw        elf.Symbol
	// origIndex is set by subset() to map a filtered addrTable
	// result back to its index in the slice it was built from.
	origIndex int
}

// definedSymbols enumerates defined symbols (non-undefined section
// index, size >= minSize) with zero-sized symbols' sizes inferred
// from the next distinct symbol address in the same section (or the
// section end), following the
// teacher's elfSynthesizeSizes algorithm (internal/obj/elf.go).
func definedSymbols(ef *elf.File, minSize uint64) ([]elfSym, error) {
	raw, err := ef.Symbols()
	if err != nil && err != elf.ErrNoSymbols {
		return nil, err
	}

	synthesizeSizes(raw, ef.Sections)
	return filterDefinedSymbols(raw, ef.Sections, minSize), nil
}

// filterDefinedSymbols drops undefined and too-small symbols and
// resolves each survivor's section name. Every other symbol type,
// FILE included, flows through unchanged: spec §3 lists FILE as an
// ordinary enumerated `type` value, not one excluded from the record
// set.
func filterDefinedSymbols(raw []elf.Symbol, sections []*elf.Section, minSize uint64) []elfSym {
	out := make([]elfSym, 0, len(raw))
	for _, s := range raw {
		if s.Section == elf.SHN_UNDEF {
			continue
		}
		if s.Size < minSize {
			continue
		}
		sectName := ""
		if int(s.Section) > 0 && int(s.Section) < len(sections) {
			sectName = sections[s.Section].Name
		} else if s.Section == elf.SHN_ABS {
			sectName = "*ABS*"
		} else if s.Section == elf.SHN_COMMON {
			sectName = "*COM*"
		}
		out = append(out, elfSym{
			name:       s.Name,
			section:    sectName,
			sectionIdx: s.Section,
			kind:       symKind(s),
			addr:       s.Value,
			size:       s.Size,
			raw:        s,
		})
	}
	return out
}

func symKind(s elf.Symbol) record.Kind {
	switch elf.ST_TYPE(s.Info) {
	case elf.STT_FUNC:
		return record.KindFunc
	case elf.STT_OBJECT:
		return record.KindObject
	case elf.STT_SECTION:
		return record.KindSection
	case elf.STT_FILE:
		return record.KindFile
	case elf.STT_TLS:
		return record.KindTLS
	case elf.STT_COMMON:
		return record.KindCommon
	case elf.STT_GNU_IFUNC:
		return record.KindIFunc
	}
	if s.Section == elf.SHN_COMMON {
		return record.KindCommon
	}
	return record.KindNoType
}

// synthesizeSizes assigns addresses-derived sizes to zero-sized
// symbols, exactly the teacher's internal/obj/elf.go
// elfSynthesizeSizes algorithm: sort by (section, address), then for
// each run of symbols sharing an address, derive a size from the
// start of the next distinct address (or the end of the section for
// the last run).
func synthesizeSizes(syms []elf.Symbol, sects []*elf.Section) {
	idx := make([]int, 0, len(syms))
	for i := range syms {
		if hasAddr(&syms[i]) {
			idx = append(idx, i)
		}
	}
	sort.Slice(idx, func(i, j int) bool {
		si, sj := &syms[idx[i]], &syms[idx[j]]
		if si.Section != sj.Section {
			return si.Section < sj.Section
		}
		return si.Value < sj.Value
	})

	for len(idx) != 0 {
		s1 := &syms[idx[0]]
		group := 1
		anyZero := s1.Size == 0
		for group < len(idx) {
			s2 := &syms[idx[group]]
			if s1.Value != s2.Value || s1.Section != s2.Section {
				break
			}
			if s2.Size == 0 {
				anyZero = true
			}
			group++
		}
		if !anyZero {
			idx = idx[group:]
			continue
		}

		var size uint64
		if group == len(idx) || s1.Section != syms[idx[group]].Section {
			if int(s1.Section) > 0 && int(s1.Section) < len(sects) {
				sect := sects[s1.Section]
				size = sect.Addr + sect.Size - s1.Value
			}
		} else {
			size = syms[idx[group]].Value - s1.Value
		}

		for _, i := range idx[:group] {
			if syms[i].Size == 0 {
				syms[i].Size = size
			}
		}
		idx = idx[group:]
	}
}

func hasAddr(s *elf.Symbol) bool {
	switch s.Section {
	case elf.SHN_UNDEF, elf.SHN_ABS:
		return false
	}
	switch elf.ST_TYPE(s.Info) {
	case elf.STT_FILE, elf.STT_TLS:
		return false
	}
	return true
}

// addrTable supports the address-range lookup relocation association
// needs, adapted from the teacher's internal/symtab.Table.Addr.
type addrTable struct {
	byAddr []int // indexes into syms, sorted by address
	syms   []elfSym
}

func newAddrTable(syms []elfSym) *addrTable {
	idx := make([]int, 0, len(syms))
	for i, s := range syms {
		if s.size > 0 {
			idx = append(idx, i)
		}
	}
	sort.Slice(idx, func(i, j int) bool { return syms[idx[i]].addr < syms[idx[j]].addr })
	return &addrTable{byAddr: idx, syms: syms}
}

// find returns the index (into t.syms) of the unique defined symbol
// whose [addr, addr+size) contains o, or -1 if none does.
func (t *addrTable) find(o uint64) int {
	i := sort.Search(len(t.byAddr), func(i int) bool {
		return t.syms[t.byAddr[i]].addr > o
	}) - 1
	if i < 0 {
		return -1
	}
	s := t.syms[t.byAddr[i]]
	if o >= s.addr && o < s.addr+s.size {
		return t.byAddr[i]
	}
	return -1
}

// durationMTime rounds a time.Time to nanosecond resolution, matching
// the store's mtime comparisons (spec §3 "mtime ... stored with
// nanosecond resolution").
func durationMTime(t time.Time) time.Time { return t.Round(time.Nanosecond) }
