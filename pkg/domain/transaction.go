package domain

// TxStatus is the lifecycle state of a transactional context.
type TxStatus string

const (
	TxOpen       TxStatus = "open"
	TxCommitted  TxStatus = "committed"
	TxRolledBack TxStatus = "rolled_back"
)
