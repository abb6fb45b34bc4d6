package types

// TxnID identifies a transaction whose writes are being logged and may
// need redo/undo during recovery.
type TxnID int32

// InvalidTxnID marks "no transaction" (e.g. a redo-only system log record).
const InvalidTxnID TxnID = -1
