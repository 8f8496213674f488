// Package token builds and reads the single-owner inscribed token locking
// script used for game items: an inscription envelope carrying the token
// protocol payload, a standard P2PKH spending condition, and an OP_RETURN
// metadata blob.
package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

const (
	// Protocol is the token protocol identifier carried by every payload.
	Protocol = "bsv-20"
	// ContentType is the inscription envelope content type.
	ContentType = "application/bsv-20"
)

// Operation is the token protocol operation.
type Operation string

const (
	// OpMint deploys and mints a token in one step. The asset id of the
	// minted token is the outpoint of the output that created it.
	OpMint Operation = "deploy+mint"
	// OpTransfer moves an existing token to a new owner.
	OpTransfer Operation = "transfer"
)

// Inscription is the token protocol payload embedded in the unreachable
// envelope branch of a locking script. Id is present iff the operation is a
// transfer.
//
// Amt is not cross-checked against anything: merge, subtract and burn are
// expressed purely by the input/output shape the caller chooses, and
// conservation is left to external indexers.
type Inscription struct {
	Protocol string    `json:"p"`
	Op       Operation `json:"op"`
	Amt      uint64    `json:"amt"`
	Id       string    `json:"id,omitempty"`
}

// NewInscription creates a payload for the given operation. A transfer
// requires a valid asset id; a mint must not carry one.
func NewInscription(op Operation, amt uint64, assetId string) (*Inscription, error) {
	insc := &Inscription{
		Protocol: Protocol,
		Op:       op,
		Amt:      amt,
		Id:       assetId,
	}
	if err := insc.Validate(); err != nil {
		return nil, err
	}
	return insc, nil
}

// Validate checks the payload invariants.
func (i *Inscription) Validate() error {
	if i.Protocol != Protocol {
		return fmt.Errorf("invalid protocol %q, want %q", i.Protocol, Protocol)
	}
	switch i.Op {
	case OpMint:
		if len(i.Id) > 0 {
			return fmt.Errorf("asset id must be empty for %s", OpMint)
		}
	case OpTransfer:
		if _, err := ParseAssetId(i.Id); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown operation %q", i.Op)
	}
	return nil
}

// Serialize returns the canonical JSON form of the payload.
func (i *Inscription) Serialize() ([]byte, error) {
	if err := i.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(i)
}

// DecodeInscription parses a payload from its JSON form.
func DecodeInscription(buf []byte) (*Inscription, error) {
	insc := &Inscription{}
	if err := json.Unmarshal(buf, insc); err != nil {
		return nil, fmt.Errorf("invalid inscription payload: %s", err)
	}
	if err := insc.Validate(); err != nil {
		return nil, err
	}
	return insc, nil
}

// ParseAssetId parses the "<txid>_<vout>" form into the outpoint of the
// output that created the asset.
func ParseAssetId(s string) (*wire.OutPoint, error) {
	if len(s) <= 0 {
		return nil, errors.New("missing asset id")
	}
	txid, vout, ok := strings.Cut(s, "_")
	if !ok {
		return nil, fmt.Errorf("invalid asset id %q, want <txid>_<vout>", s)
	}
	if len(txid) != chainhash.HashSize*2 {
		return nil, fmt.Errorf(
			"invalid asset id txid length, got %d want %d", len(txid), chainhash.HashSize*2,
		)
	}
	hash, err := chainhash.NewHashFromStr(txid)
	if err != nil {
		return nil, fmt.Errorf("invalid asset id txid: %s", err)
	}
	index, err := strconv.ParseUint(vout, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid asset id output index: %s", err)
	}
	return wire.NewOutPoint(hash, uint32(index)), nil
}

// FormatAssetId renders the asset id of the token created by the given
// output.
func FormatAssetId(op wire.OutPoint) string {
	return fmt.Sprintf("%s_%d", op.Hash.String(), op.Index)
}
