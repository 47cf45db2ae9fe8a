package domain

import "errors"

// Catalog errors. Construction-time or lookup-time failures against the
// IndexedCatalog are always one of these three kinds; they are fatal at
// startup and are never produced once the catalog is built and the engine
// is running (every index the engine holds internally was handed out by
// the catalog itself).
var (
	ErrUnknownExchange   = errors.New("domain: unknown exchange")
	ErrUnknownAsset      = errors.New("domain: unknown asset")
	ErrUnknownInstrument = errors.New("domain: unknown instrument")
)

// ErrIndexOutOfRange marks a violation of the "every index is valid by
// construction" invariant. Per spec this is a programming bug, not a
// runtime condition: the engine traps it, emits a diagnostic audit record,
// and shuts down rather than propagating it to adapters.
var ErrIndexOutOfRange = errors.New("domain: index out of range")
