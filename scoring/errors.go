package scoring

import "errors"

// Error kinds surfaced by the ledger, gate, registry and tracker. Callers
// match them with errors.Is; the HTTP layer maps each to a status code.
var (
	ErrNotAuthorized     = errors.New("not authorized")
	ErrOwnerOnly         = errors.New("caller is not the owner")
	ErrInvalidCategory   = errors.New("invalid category")
	ErrRecordNotFound    = errors.New("record does not exist")
	ErrAlreadyMinted     = errors.New("identity already has a MetaScore record")
	ErrTransfersDisabled = errors.New("MetaScore records are soulbound")
	ErrSourceNotVerified = errors.New("activity source is not verified")
	ErrLengthMismatch    = errors.New("batch inputs differ in length")
	ErrInvalidIdentity   = errors.New("invalid identity")
	ErrScoreOverflow     = errors.New("score overflow")
)
