package handlers

import (
	"strings"

	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/spf13/cast"

	ferrors "github.com/pushchain/bridge-node/facilitator/errors"
)

// Record is one raw event as delivered by the subscription layer. Field
// names follow the contract event arguments (`_messageHash`, `_staker`, ...)
// plus the indexer's `contractAddress`, `blockNumber` and `uts`.
type Record map[string]interface{}

const (
	fieldContractAddress = "contractAddress"
	fieldBlockNumber     = "blockNumber"
	fieldUTS             = "uts"
)

// recordParser reads typed fields out of a Record. The first failure is kept
// and every later read becomes a no-op, so callers check err once at the end.
type recordParser struct {
	kind string
	rec  Record
	err  error
}

func newRecordParser(kind string, rec Record) *recordParser {
	return &recordParser{kind: kind, rec: rec}
}

func (p *recordParser) fail(field, msg string) {
	if p.err == nil {
		p.err = ferrors.NewParseError(p.kind, field, msg)
	}
}

func (p *recordParser) raw(field string, required bool) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v, ok := p.rec[field]
	if !ok || v == nil {
		if required {
			p.fail(field, "missing")
		}
		return "", false
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		p.fail(field, err.Error())
		return "", false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		if required {
			p.fail(field, "empty")
		}
		return "", false
	}
	return s, true
}

// hash reads a 32-byte hex value and returns it lower-cased with 0x prefix.
func (p *recordParser) hash(field string, required bool) *string {
	s, ok := p.raw(field, required)
	if !ok {
		return nil
	}
	b, err := hexutil.Decode(s)
	if err != nil || len(b) != ethcommon.HashLength {
		p.fail(field, "not a 32-byte hex value: "+s)
		return nil
	}
	h := ethcommon.BytesToHash(b).Hex()
	return &h
}

// address reads a 20-byte hex address and returns it lower-cased.
func (p *recordParser) address(field string, required bool) *string {
	s, ok := p.raw(field, required)
	if !ok {
		return nil
	}
	if !ethcommon.IsHexAddress(s) {
		p.fail(field, "not a hex address: "+s)
		return nil
	}
	a := strings.ToLower(ethcommon.HexToAddress(s).Hex())
	return &a
}

func (p *recordParser) number(field string, required bool) *uint64 {
	s, ok := p.raw(field, required)
	if !ok {
		return nil
	}
	n, err := cast.ToUint64E(s)
	if err != nil {
		p.fail(field, "not an unsigned integer: "+s)
		return nil
	}
	return &n
}

// decimal reads an unsigned 256-bit amount and returns its decimal form.
func (p *recordParser) decimal(field string, required bool) *string {
	s, ok := p.raw(field, required)
	if !ok {
		return nil
	}
	var (
		v   *uint256.Int
		err error
	)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err = uint256.FromHex(s)
	} else {
		v, err = uint256.FromDecimal(s)
	}
	if err != nil {
		p.fail(field, "not a uint256: "+s)
		return nil
	}
	d := v.Dec()
	return &d
}

// secret reads an unlock secret. The all-zero value is emitted by progress
// events that completed without a hash lock and is treated as absent.
func (p *recordParser) secret(field string) *string {
	h := p.hash(field, false)
	if h == nil || *h == (ethcommon.Hash{}).Hex() {
		return nil
	}
	return h
}

// source identifies which contract emitted a record and when it was indexed.
type source struct {
	contractAddress string
	uts             uint64
}

// recordSource extracts the replay-suppression fields. Both are optional;
// a record without them is never considered a replay.
func recordSource(rec Record) source {
	var src source
	if v, ok := rec[fieldContractAddress]; ok {
		src.contractAddress = strings.ToLower(cast.ToString(v))
	}
	if v, ok := rec[fieldUTS]; ok {
		src.uts = cast.ToUint64(cast.ToString(v))
	}
	return src
}
