package store

// BootState records whether the one-shot catalog import has completed since
// the product table was last cleared.
//
// NotStarted -> Started happens only through CompleteImport.
// Started -> NotStarted happens only through EmptyProducts.
type BootState uint8

const (
	BootNotStarted BootState = iota
	BootStarted
)

func bootStateOf(bootstrapped bool) BootState {
	if bootstrapped {
		return BootStarted
	}
	return BootNotStarted
}

func (b BootState) Bootstrapped() bool { return b == BootStarted }

func (b BootState) String() string {
	if b == BootStarted {
		return "started"
	}
	return "not_started"
}
