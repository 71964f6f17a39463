package elfreader

import (
	"debug/elf"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bdx-project/bdx/internal/record"
)

func TestSynthesizeSizesFillsZeroSizedRuns(t *testing.T) {
	syms := []elf.Symbol{
		{Name: "a", Value: 0x1000, Size: 0, Section: 1, Info: uint8(elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC))},
		{Name: "b", Value: 0x1010, Size: 0, Section: 1, Info: uint8(elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC))},
		{Name: "c", Value: 0x1020, Size: 0, Section: 1, Info: uint8(elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC))},
	}
	sects := []*elf.Section{
		{}, // index 0 is reserved
		{SectionHeader: elf.SectionHeader{Addr: 0x1000, Size: 0x30}},
	}

	synthesizeSizes(syms, sects)

	require.EqualValues(t, 0x10, syms[0].Size)
	require.EqualValues(t, 0x10, syms[1].Size)
	require.EqualValues(t, 0x10, syms[2].Size) // last symbol: capped at section end
}

func TestAddrTableFind(t *testing.T) {
	syms := []elfSym{
		{name: "a", addr: 0x1000, size: 0x10},
		{name: "b", addr: 0x1010, size: 0x8},
		{name: "c", addr: 0x1020, size: 0},
	}
	table := newAddrTable(syms)

	idx := table.find(0x1005)
	require.Equal(t, 0, idx)

	idx = table.find(0x1010)
	require.Equal(t, 1, idx)

	idx = table.find(0x1018)
	require.Equal(t, -1, idx) // exactly at the end of b's range, c has zero size so isn't indexed

	idx = table.find(0x2000)
	require.Equal(t, -1, idx)
}

func TestSymKindMapsELFTypes(t *testing.T) {
	cases := []struct {
		typ  elf.SymType
		want string
	}{
		{elf.STT_FUNC, "FUNC"},
		{elf.STT_OBJECT, "OBJECT"},
		{elf.STT_SECTION, "SECTION"},
		{elf.STT_FILE, "FILE"},
		{elf.STT_TLS, "TLS"},
		{elf.STT_GNU_IFUNC, "IFUNC"},
		{elf.STT_NOTYPE, "NOTYPE"},
	}
	for _, c := range cases {
		s := elf.Symbol{Info: uint8(elf.ST_INFO(elf.STB_GLOBAL, c.typ))}
		require.Equal(t, c.want, symKind(s).String())
	}
}

func TestDefinedSymbolsKeepsFileTypeSymbols(t *testing.T) {
	raw := []elf.Symbol{
		{Name: "a.c", Value: 0, Size: 0, Section: elf.SHN_ABS, Info: uint8(elf.ST_INFO(elf.STB_LOCAL, elf.STT_FILE))},
		{Name: "main", Value: 0x1000, Size: 0x10, Section: 1, Info: uint8(elf.ST_INFO(elf.STB_GLOBAL, elf.STT_FUNC))},
	}
	sects := []*elf.Section{
		{},
		{SectionHeader: elf.SectionHeader{Name: ".text", Addr: 0x1000, Size: 0x10}},
	}

	out := filterDefinedSymbols(raw, sects, 0)
	require.Len(t, out, 2)
	require.Equal(t, record.KindFile, out[0].kind)
	require.Equal(t, "*ABS*", out[0].section)
}
