package session

// TransactionMode selects the lock-acquisition strategy for the outermost
// transaction. It is accepted but ignored for nested transactions, which
// never issue a physical BEGIN of their own.
type TransactionMode int

const (
	// TransactionModeDeferred acquires no lock until the first operation:
	// a shared lock for a read, a reserved lock for a write.
	TransactionModeDeferred TransactionMode = 0

	// TransactionModeImmediate acquires a reserved lock as soon as the
	// transaction begins; other sessions may still read.
	TransactionModeImmediate TransactionMode = 1

	// TransactionModeExclusive acquires an exclusive lock as soon as the
	// transaction begins; no other session may access the database.
	TransactionModeExclusive TransactionMode = 2
)

// noTransaction is the nil handle of the transaction arena.
const noTransaction = -1

// txRecord is the bookkeeping node for one transaction nesting level. While
// on the stack, parent links to the enclosing level; while on the free list,
// parent threads the list itself.
type txRecord struct {
	parent           int
	mode             TransactionMode
	listener         TransactionListener
	markedSuccessful bool
	childFailed      bool
}

// txArena owns every transaction record a session ever creates. Records are
// addressed by small integer handles and recycled through a free list, so a
// session that begins and ends transactions in a loop allocates a bounded
// number of records.
type txArena struct {
	records []txRecord
	free    int
}

func newTxArena() txArena {
	return txArena{free: noTransaction}
}

func (a *txArena) record(handle int) *txRecord {
	return &a.records[handle]
}

// obtain returns a handle to a reset record, reusing the free list before
// growing the arena.
func (a *txArena) obtain(mode TransactionMode, listener TransactionListener) int {
	handle := a.free

	if handle != noTransaction {
		record := &a.records[handle]
		a.free = record.parent
		record.parent = noTransaction
		record.markedSuccessful = false
		record.childFailed = false
		record.mode = mode
		record.listener = listener

		return handle
	}

	a.records = append(a.records, txRecord{
		parent:   noTransaction,
		mode:     mode,
		listener: listener,
	})

	return len(a.records) - 1
}

// recycle pushes the record onto the free list and drops its listener so the
// borrow ends with the transaction.
func (a *txArena) recycle(handle int) {
	record := &a.records[handle]
	record.listener = nil
	record.parent = a.free
	a.free = handle
}

// size reports how many records have ever been allocated.
func (a *txArena) size() int {
	return len(a.records)
}
