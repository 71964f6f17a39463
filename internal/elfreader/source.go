package elfreader

import (
	"debug/dwarf"
	"debug/elf"
)

// resolveSource finds the best-effort source file for an object,
// adapting the teacher's objbrowse/sourceview.go CU-range index: it
// reads the DWARF compile units and returns the name of the first one
// it finds, since a single relocatable object normally has exactly
// one primary compilation unit. Falls back to resolver, then "".
func resolveSource(ef *elf.File, resolver SourceResolver, path string) string {
	dw, err := ef.DWARF()
	if err == nil {
		if name := firstCompileUnitName(dw); name != "" {
			return name
		}
	}
	if resolver != nil {
		return resolver.ResolveSource(path)
	}
	return ""
}

func firstCompileUnitName(dw *dwarf.Data) string {
	r := dw.Reader()
	for {
		ent, err := r.Next()
		if ent == nil || err != nil {
			return ""
		}
		if ent.Tag != dwarf.TagCompileUnit {
			r.SkipChildren()
			continue
		}
		if name, ok := ent.Val(dwarf.AttrName).(string); ok {
			return name
		}
		return ""
	}
}
