package commit

import "github.com/scoir/attestor/pkg/ledger"

// SignatureRequest asks a counterparty to countersign a transaction already
// signed by the initiator.
type SignatureRequest struct {
	Tx *ledger.Transaction
}

// SignatureResponse carries a countersignature or a refusal.
type SignatureResponse struct {
	Signer    string
	Signature []byte
	Refused   bool
	Reason    string
}

// FinalizedNotice propagates a notarized transaction to a participant for
// local persistence.
type FinalizedNotice struct {
	Tx *ledger.Transaction
}
