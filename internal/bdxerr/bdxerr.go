// Package bdxerr defines bdx's error taxonomy (spec §7): a closed set
// of sentinel error kinds with stable, one-line, prefixed messages and
// no stack traces by default. Recoverable per-file errors are
// aggregated with go.uber.org/multierr so a whole indexing run reports
// as a single summary line without losing individual file context.
package bdxerr

import (
	"fmt"

	"go.uber.org/multierr"
)

// Kind identifies which branch of the taxonomy an error belongs to.
type Kind string

const (
	KindParse          Kind = "parse error"
	KindSchemaMismatch Kind = "schema version mismatch"
	KindFile           Kind = "file error"
	KindIndex          Kind = "index error"
	KindLockContention Kind = "lock contention"
	KindCancelled      Kind = "cancelled"
)

// Error is a tagged, one-line error. Its Error() string always starts
// with the stable "bdx: <kind>: " prefix required by spec §7.
type Error struct {
	Kind Kind
	Path string // offending file or store path, if any
	Pos  int    // caret position for ParseError; unused (0) otherwise
	Msg  string
	Err  error // wrapped underlying cause, if any
}

func (e *Error) Error() string {
	prefix := fmt.Sprintf("bdx: %s", e.Kind)
	if e.Path != "" {
		prefix = fmt.Sprintf("%s: %s", prefix, e.Path)
	}
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", prefix, e.Msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", prefix, e.Err)
	}
	return prefix
}

func (e *Error) Unwrap() error { return e.Err }

// Is implements errors.Is against a Kind sentinel, so callers can
// write errors.Is(err, bdxerr.Sentinel(bdxerr.KindFile)) rather than
// type-asserting.
func (e *Error) Is(target error) bool {
	k, ok := target.(kindSentinel)
	return ok && e.Kind == Kind(k)
}

type kindSentinel Kind

func (k kindSentinel) Error() string { return string(k) }

// Sentinel returns an error usable with errors.Is to match any *Error
// of the given kind, e.g. errors.Is(err, bdxerr.Sentinel(bdxerr.KindFile)).
func Sentinel(k Kind) error { return kindSentinel(k) }

// ParseErr reports a query syntax error with a caret position (spec §7).
func ParseErr(query string, pos int, msg string) error {
	return &Error{Kind: KindParse, Pos: pos, Msg: fmt.Sprintf("%s (at %d in %q)", msg, pos, query)}
}

// SchemaMismatch reports an on-disk schema version that this binary
// cannot read or write.
func SchemaMismatch(dir string, have, want int) error {
	return &Error{Kind: KindSchemaMismatch, Path: dir,
		Msg: fmt.Sprintf("on-disk schema version %d, need %d; rebuild the index", have, want)}
}

// FileErr reports a single malformed/unreadable object file. FileErrs
// are always non-fatal to the run that produced them.
func FileErr(path string, cause error) error {
	return &Error{Kind: KindFile, Path: path, Err: cause}
}

// IndexErr reports a shard-write or manifest-rename failure that must
// abort the run with no partial commit.
func IndexErr(dir string, cause error) error {
	return &Error{Kind: KindIndex, Path: dir, Err: cause}
}

// LockErr reports a second writer failing to acquire the store lock.
func LockErr(dir string) error {
	return &Error{Kind: KindLockContention, Path: dir, Msg: "another bdx index is writing to this store"}
}

// Cancelled reports a run that was cancelled before commit.
func Cancelled(dir string) error {
	return &Error{Kind: KindCancelled, Path: dir, Msg: "run cancelled, no commit"}
}

// Combine aggregates recoverable per-file errors into a single error
// whose Error() string joins every message, offending path included,
// on one line separated by "; ", while preserving errors.Is/As access
// to each underlying *Error.
func Combine(errs ...error) error {
	return multierr.Combine(errs...)
}

// Errors extracts the individual errors from a Combine'd error, or
// returns a single-element slice if err wasn't produced by Combine.
func Errors(err error) []error {
	if err == nil {
		return nil
	}
	return multierr.Errors(err)
}
