package elfreader

import (
	"debug/elf"

	"github.com/bdx-project/bdx/internal/record"
)

type decodedReloc struct {
	offset uint64
	symIdx int // index into the relocation section's own symbol table
}

// attachRelocations scans every relocation section whose target
// section hosts at least one defined symbol, and for each entry
// appends the target symbol's name to the owning defined symbol's
// Relocations list, in file order (spec §4.1 step 3). A relocation
// against a section symbol (no name) yields an empty string, which is
// preserved in the list (spec §3, §9 open question).
//
// Association proceeds the way the teacher's internal/obj/elf.go
// maps relocation sections to the sections they apply to: by
// sh_info, falling back to "applies to every allocated section" when
// sh_info is 0 (e.g. .rela.dyn in a shared object).
func attachRelocations(ef *elf.File, syms []elfSym, out []record.Symbol) error {
	bySection := make(map[elf.SectionIndex][]int) // section -> syms indices
	for i, s := range syms {
		bySection[s.sectionIdx] = append(bySection[s.sectionIdx], i)
	}

	symtab, _ := ef.Symbols()
	dynsym, _ := ef.DynamicSymbols()
	symtabSect := ef.SectionByType(elf.SHT_SYMTAB)
	dynsymSect := ef.SectionByType(elf.SHT_DYNSYM)

	for _, sect := range ef.Sections {
		if sect.Type != elf.SHT_REL && sect.Type != elf.SHT_RELA {
			continue
		}
		if int(sect.Link) <= 0 || int(sect.Link) >= len(ef.Sections) {
			continue
		}

		var relsyms []elf.Symbol
		switch ef.Sections[sect.Link] {
		case symtabSect:
			relsyms = symtab
		case dynsymSect:
			relsyms = dynsym
		default:
			continue // relocations against some other symbol table: unsupported
		}

		relas, err := decodeRelSection(ef, sect)
		if err != nil {
			continue // malformed relocation section: skip, non-fatal
		}

		targets := targetSections(ef, sect, bySection)
		for _, targetIdx := range targets {
			targetSyms := bySection[targetIdx]
			if len(targetSyms) == 0 {
				continue
			}
			table := newAddrTable(subset(syms, targetSyms))
			for _, rel := range relas {
				localIdx := table.find(rel.offset)
				if localIdx < 0 {
					continue
				}
				globalIdx := targetSyms[table.syms[localIdx].origIndex]
				name := symbolName(relsyms, rel.symIdx)
				out[globalIdx].Relocations = append(out[globalIdx].Relocations, name)
			}
		}
	}
	return nil
}

// targetSections returns the section indexes a SHT_REL[A] section
// applies to: sh_info when non-zero, or every allocated section
// that hosts a defined symbol otherwise.
func targetSections(ef *elf.File, sect *elf.Section, bySection map[elf.SectionIndex][]int) []elf.SectionIndex {
	if sect.Info != 0 {
		if int(sect.Info) >= len(ef.Sections) {
			return nil
		}
		return []elf.SectionIndex{elf.SectionIndex(sect.Info)}
	}
	all := make([]elf.SectionIndex, 0, len(bySection))
	for idx := range bySection {
		if int(idx) < len(ef.Sections) && ef.Sections[idx].Flags&elf.SHF_ALLOC != 0 {
			all = append(all, idx)
		}
	}
	return all
}

// subset builds an addrTable-compatible slice carrying each element's
// position in idxs, so results can be mapped back through idxs to syms.
func subset(syms []elfSym, idxs []int) []elfSym {
	s := make([]elfSym, len(idxs))
	for i, idx := range idxs {
		sym := syms[idx]
		sym.origIndex = i
		s[i] = sym
	}
	return s
}

// symbolName resolves an ELF symbol index against a slice returned by
// elf.File.Symbols or DynamicSymbols, which omit the null symbol at
// index 0: ELF index idx is syms[idx-1], and index 0 yields "".
func symbolName(syms []elf.Symbol, idx int) string {
	if idx <= 0 || idx > len(syms) {
		return ""
	}
	return syms[idx-1].Name
}

func decodeRelSection(ef *elf.File, sect *elf.Section) ([]decodedReloc, error) {
	data, err := sect.Data()
	if err != nil {
		return nil, err
	}
	o := ef.ByteOrder
	is64 := ef.Class == elf.ELFCLASS64
	var out []decodedReloc

	switch {
	case sect.Type == elf.SHT_REL && !is64:
		for len(data) >= 8 {
			off := o.Uint32(data)
			info := o.Uint32(data[4:])
			out = append(out, decodedReloc{uint64(off), int(elf.R_SYM32(info))})
			data = data[8:]
		}
	case sect.Type == elf.SHT_REL && is64:
		for len(data) >= 16 {
			off := o.Uint64(data)
			info := o.Uint64(data[8:])
			out = append(out, decodedReloc{off, int(elf.R_SYM64(info))})
			data = data[16:]
		}
	case sect.Type == elf.SHT_RELA && !is64:
		for len(data) >= 12 {
			off := o.Uint32(data)
			info := o.Uint32(data[4:])
			out = append(out, decodedReloc{uint64(off), int(elf.R_SYM32(info))})
			data = data[12:]
		}
	case sect.Type == elf.SHT_RELA && is64:
		for len(data) >= 24 {
			off := o.Uint64(data)
			info := o.Uint64(data[8:])
			out = append(out, decodedReloc{off, int(elf.R_SYM64(info))})
			data = data[24:]
		}
	}
	return out, nil
}
