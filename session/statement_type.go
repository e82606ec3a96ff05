package session

import "strings"

// StatementType is the transaction-control intent of a raw SQL statement.
// Only the three statement forms that would bypass the session's transaction
// bookkeeping are distinguished; everything else is StatementOther and is
// forwarded to the connection untouched.
type StatementType int

const (
	StatementOther StatementType = iota
	StatementBegin
	StatementCommit
	StatementAbort
)

// statementTypeOf classifies sql by its first keyword, trimmed and
// case-insensitive. Matching is by three-letter prefix: BEG begins a
// transaction, COM and END commit it, ROL rolls it back.
func statementTypeOf(sql string) StatementType {
	trimmed := strings.TrimSpace(sql)

	if len(trimmed) < 3 {
		return StatementOther
	}

	switch strings.ToUpper(trimmed[:3]) {
	case "BEG":
		return StatementBegin
	case "COM", "END":
		return StatementCommit
	case "ROL":
		return StatementAbort
	}

	return StatementOther
}
