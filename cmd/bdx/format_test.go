package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bdx-project/bdx/internal/record"
)

func sampleRecord() record.Symbol {
	return record.Symbol{
		Path:        "/obj/a.o",
		Name:        "_Z3fooi",
		Section:     ".text",
		Type:        record.KindFunc,
		Address:     0x1000,
		Size:        16,
		MTime:       time.Unix(0, 0).UTC(),
		Relocations: []string{"bar"},
	}
}

func TestJSONFormatterWritesOneLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jsonFormatter{}.write(&buf, sampleRecord(), ""))
	require.Contains(t, buf.String(), `"name":"_Z3fooi"`)
	require.Contains(t, buf.String(), `"address":4096`)
}

func TestSexpFormatterIncludesFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sexpFormatter{}.write(&buf, sampleRecord(), ""))
	out := buf.String()
	require.Contains(t, out, `(name "_Z3fooi")`)
	require.Contains(t, out, `(type FUNC)`)
}

func TestTemplateFormatterSubstitutesKnownFields(t *testing.T) {
	var buf bytes.Buffer
	f := templateFormatter{tmpl: "%{path}:%{address} %{name}"}
	require.NoError(t, f.write(&buf, sampleRecord(), ""))
	require.Equal(t, "/obj/a.o:0x1000 _Z3fooi\n", buf.String())
}

func TestTemplateFormatterUnknownFieldRendersEmpty(t *testing.T) {
	var buf bytes.Buffer
	f := templateFormatter{tmpl: "[%{nosuchfield}]"}
	require.NoError(t, f.write(&buf, sampleRecord(), ""))
	require.Equal(t, "[]\n", buf.String())
}

func TestNewFormatterDispatch(t *testing.T) {
	require.IsType(t, jsonFormatter{}, newFormatter("json"))
	require.IsType(t, jsonFormatter{}, newFormatter(""))
	require.IsType(t, sexpFormatter{}, newFormatter("sexp"))
	require.IsType(t, templateFormatter{}, newFormatter("%{name}"))
}
