package main

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/bdx-project/bdx/internal/demangle"
	"github.com/bdx-project/bdx/internal/record"
)

// recordJSON is the one-object-per-line shape spec §6 specifies.
type recordJSON struct {
	Path        string   `json:"path"`
	Name        string   `json:"name"`
	Section     string   `json:"section"`
	Address     uint64   `json:"address"`
	Size        uint64   `json:"size"`
	Type        string   `json:"type"`
	Relocations []string `json:"relocations"`
	MTime       int64    `json:"mtime"`
	Demangled   string   `json:"demangled,omitempty"`
}

// formatter writes one record per call in a fixed output format.
type formatter interface {
	write(w io.Writer, rec record.Symbol, demangled string) error
}

type jsonFormatter struct{}

func (jsonFormatter) write(w io.Writer, rec record.Symbol, demangled string) error {
	rj := recordJSON{
		Path:        rec.Path,
		Name:        rec.Name,
		Section:     rec.Section,
		Address:     rec.Address,
		Size:        rec.Size,
		Type:        rec.Type.String(),
		Relocations: rec.Relocations,
		MTime:       rec.MTime.UnixNano(),
		Demangled:   demangled,
	}
	b, err := json.Marshal(rj)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

type sexpFormatter struct{}

func (sexpFormatter) write(w io.Writer, rec record.Symbol, demangled string) error {
	var b strings.Builder
	b.WriteString("(record")
	fmt.Fprintf(&b, " (path %q)", rec.Path)
	fmt.Fprintf(&b, " (name %q)", rec.Name)
	fmt.Fprintf(&b, " (section %q)", rec.Section)
	fmt.Fprintf(&b, " (address %d)", rec.Address)
	fmt.Fprintf(&b, " (size %d)", rec.Size)
	fmt.Fprintf(&b, " (type %s)", rec.Type.String())
	b.WriteString(" (relocations (")
	for i, r := range rec.Relocations {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%q", r)
	}
	b.WriteString("))")
	fmt.Fprintf(&b, " (mtime %d)", rec.MTime.UnixNano())
	if demangled != "" {
		fmt.Fprintf(&b, " (demangled %q)", demangled)
	}
	b.WriteString(")")
	_, err := fmt.Fprintln(w, b.String())
	return err
}

// templateFormatter renders each record through a printf-style field
// template, e.g. "%{path}:%{address} %{name}". A field name that
// doesn't resolve (a typo, or a field this record type doesn't carry)
// renders as empty, per spec §6.
type templateFormatter struct {
	tmpl string
}

var templateField = regexp.MustCompile(`%\{(\w+)\}`)

func (f templateFormatter) write(w io.Writer, rec record.Symbol, demangled string) error {
	fields := recordFields(rec, demangled)
	out := templateField.ReplaceAllStringFunc(f.tmpl, func(m string) string {
		name := templateField.FindStringSubmatch(m)[1]
		return fields[name]
	})
	_, err := fmt.Fprintln(w, out)
	return err
}

func recordFields(rec record.Symbol, demangled string) map[string]string {
	return map[string]string{
		"path":        rec.Path,
		"name":        rec.Name,
		"section":     rec.Section,
		"address":     "0x" + strconv.FormatUint(rec.Address, 16),
		"size":        strconv.FormatUint(rec.Size, 10),
		"type":        rec.Type.String(),
		"relocations": strings.Join(rec.Relocations, ","),
		"mtime":       strconv.FormatInt(rec.MTime.UnixNano(), 10),
		"demangled":   demangled,
	}
}

// newFormatter resolves -f FORMAT into a formatter; "json" and "sexp"
// are literal, anything else is treated as a template string.
func newFormatter(format string) formatter {
	switch format {
	case "sexp":
		return sexpFormatter{}
	case "json", "":
		return jsonFormatter{}
	default:
		return templateFormatter{tmpl: format}
	}
}

// demangleNames resolves every record's Name through d when non-nil,
// returning a path+address-independent name->demangled map (spec's
// external demangler collaborator, bounded to the batch at hand).
func demangleNames(d demangle.Demangler, recs []record.Symbol) (map[string]string, error) {
	if d == nil {
		return nil, nil
	}
	names := make([]string, 0, len(recs))
	seen := make(map[string]bool, len(recs))
	for _, rec := range recs {
		if !seen[rec.Name] {
			seen[rec.Name] = true
			names = append(names, rec.Name)
		}
	}
	return d.Demangle(names)
}
