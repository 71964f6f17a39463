package query

import "github.com/bdx-project/bdx/internal/bdxerr"

func newParseError(query string, pos int, msg string) error {
	return bdxerr.ParseErr(query, pos, msg)
}
