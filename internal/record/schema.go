package record

// FieldKind is the closed tagged-variant of indexing strategies a
// record field can have (spec §4.2, §9 "Dynamic typing of query
// fields... is replaced by a closed tagged-variant of field kinds").
type FieldKind uint8

const (
	// FieldTokenized fields are split into sub-tokens (see Tokenize)
	// in addition to indexing the whole value as a "fullname"-style
	// term.
	FieldTokenized FieldKind = iota
	// FieldWholeTerm fields are indexed as a single opaque term.
	FieldWholeTerm
	// FieldMultiTerm fields index one whole term per element of a
	// sequence (used for relocations).
	FieldMultiTerm
	// FieldRange fields are indexed for numeric range queries.
	FieldRange
)

// Field describes one symbol-record field: its query prefix, its
// indexing kind, and (for tokenized fields) whether a bare,
// unqualified query term matches it by default.
type Field struct {
	Name      string
	Prefix    string // query field prefix without the colon, e.g. "address"
	Kind      FieldKind
	IsDefault bool // bare terms match this field
}

// Fields is the full field schema, in the order spec §4.2 lists them.
// IDENT in the query grammar (spec §4.5) is exactly this set's Name
// values plus "fullname".
var Fields = []Field{
	{Name: "name", Prefix: "name", Kind: FieldTokenized, IsDefault: true},
	{Name: "path", Prefix: "path", Kind: FieldTokenized},
	{Name: "section", Prefix: "section", Kind: FieldWholeTerm},
	{Name: "type", Prefix: "type", Kind: FieldWholeTerm},
	{Name: "address", Prefix: "address", Kind: FieldRange},
	{Name: "size", Prefix: "size", Kind: FieldRange},
	{Name: "mtime", Prefix: "mtime", Kind: FieldRange},
	{Name: "relocations", Prefix: "relocations", Kind: FieldMultiTerm},
	{Name: "source", Prefix: "source", Kind: FieldTokenized},
}

// FieldByName looks up a field by its query IDENT. "fullname" is a
// special alias for the whole-term form of "name": it is resolved here
// rather than listed in Fields, and is indexed under its own
// "fullname" posting key, separate from name's sub-tokens.
func FieldByName(name string) (Field, bool) {
	if name == "fullname" {
		return Field{Name: "name", Prefix: "fullname", Kind: FieldWholeTerm}, true
	}
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
