package fstrans

// operationKind discriminates the pending operation variants.
type operationKind int

const (
	// opWrite copies staged content onto the real target path at commit.
	opWrite operationKind = iota
	// opRemove deletes the real target path at commit.
	opRemove
)

// operation is a single pending filesystem mutation recorded in a
// transaction's ledger. Operations are immutable once appended.
type operation struct {
	kind operationKind
	// stagingPath is where the staged copy of the content lives. Only set
	// for write operations.
	stagingPath string
	// targetPath is the real filesystem path the operation applies to.
	targetPath string
	// recursive marks remove operations that delete entire directory trees.
	recursive bool
}

// operations is an ordered, append-only ledger of pending operations.
// Replay order is append order. The ledger is not deduplicated: staging the
// same target twice appends two entries, and replay copies the same final
// content twice, which is harmless.
type operations []operation

func (ops *operations) append(op operation) {
	*ops = append(*ops, op)
}

// stageWrite appends an operation that copies the content staged at
// stagingPath onto targetPath.
func (ops *operations) stageWrite(stagingPath, targetPath string) {
	ops.append(operation{
		kind:        opWrite,
		stagingPath: stagingPath,
		targetPath:  targetPath,
	})
}

// remove appends an operation that deletes targetPath, recursively if
// requested.
func (ops *operations) remove(targetPath string, recursive bool) {
	ops.append(operation{
		kind:       opRemove,
		targetPath: targetPath,
		recursive:  recursive,
	})
}
