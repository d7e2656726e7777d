// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package checkpoint

import (
	"encoding/binary"
	"errors"
	"math"
	"math/big"
)

var (
	// ErrInvalidValue is returned for an unknown tag.
	ErrInvalidValue = errors.New("checkpoint: invalid value")
	// ErrInputTooLong is returned when bytes are left after a top-level value.
	ErrInputTooLong = errors.New("checkpoint: input too long")
	// ErrInputTooShort is returned when the input ends inside a value.
	ErrInputTooShort = errors.New("checkpoint: input too short")
)

type writer struct {
	buf []byte
}

func (w *writer) byte(b byte) {
	w.buf = append(w.buf, b)
}

func (w *writer) uint64(v uint64) {
	w.buf = binary.BigEndian.AppendUint64(w.buf, v)
}

func (w *writer) bigInt(v *big.Int) {
	var mag []byte
	if v != nil {
		mag = v.Bytes()
	}
	w.buf = binary.BigEndian.AppendUint32(w.buf, uint32(len(mag)))
	w.buf = append(w.buf, mag...)
}

type reader struct {
	buf []byte
}

func (r *reader) next(n int) ([]byte, error) {
	if len(r.buf) < n {
		return nil, ErrInputTooShort
	}
	b := r.buf[:n]
	r.buf = r.buf[n:]
	return b, nil
}

func (r *reader) byte() (byte, error) {
	b, err := r.next(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) uint64() (uint64, error) {
	b, err := r.next(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (r *reader) bigInt() (*big.Int, error) {
	b, err := r.next(4)
	if err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(b)
	if uint64(n) > math.MaxInt32 {
		return nil, ErrInputTooShort
	}
	mag, err := r.next(int(n))
	if err != nil {
		return nil, err
	}
	if len(mag) == 0 {
		return new(big.Int), nil
	}
	return new(big.Int).SetBytes(mag), nil
}

// Encode returns the top-level encoding. None encodes to no bytes.
func Encode(c Checkpoint) []byte {
	if IsNone(c) {
		return []byte{}
	}
	return EncodeNested(c)
}

// EncodeNested returns the nested encoding, where None is a single tag byte.
func EncodeNested(c Checkpoint) []byte {
	if c == nil {
		c = None{}
	}
	var w writer
	c.encode(&w)
	return w.buf
}

// Decode parses the top-level encoding. Empty input is None, otherwise the
// whole input must be consumed.
func Decode(data []byte) (Checkpoint, error) {
	if len(data) == 0 {
		return None{}, nil
	}
	r := reader{data}
	c, err := decodeCheckpoint(&r)
	if err != nil {
		return nil, err
	}
	if len(r.buf) > 0 {
		return nil, ErrInputTooLong
	}
	return c, nil
}

// DecodeNested parses a nested checkpoint from the head of data and returns the
// remaining bytes.
func DecodeNested(data []byte) (Checkpoint, []byte, error) {
	r := reader{data}
	c, err := decodeCheckpoint(&r)
	if err != nil {
		return nil, nil, err
	}
	return c, r.buf, nil
}

func decodeCheckpoint(r *reader) (Checkpoint, error) {
	tag, err := r.byte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case TagNone:
		return None{}, nil
	case TagModifyTotalDelegationCap:
		var c ModifyTotalDelegationCap
		for _, f := range []**big.Int{
			&c.NewDelegationCap,
			&c.RemainingSwapWaitingToActive,
			&c.RemainingSwapActiveToDeferred,
			&c.RemainingSwapUnstakedToDeferred,
		} {
			if *f, err = r.bigInt(); err != nil {
				return nil, err
			}
		}
		if c.Step, err = decodeStep(r); err != nil {
			return nil, err
		}
		return &c, nil
	case TagChangeServiceFee:
		var c ChangeServiceFee
		if c.NewServiceFee, err = r.bigInt(); err != nil {
			return nil, err
		}
		if err := c.ComputeRewardsData.decode(r); err != nil {
			return nil, err
		}
		return &c, nil
	}
	return nil, ErrInvalidValue
}

func decodeStep(r *reader) (Step, error) {
	tag, err := r.byte()
	if err != nil {
		return nil, err
	}
	switch tag {
	case TagComputeAllRewards:
		var s ComputeAllRewards
		if err := s.decode(r); err != nil {
			return nil, err
		}
		return &s, nil
	case TagSwapWaitingToActive:
		return SwapWaitingToActive{}, nil
	case TagSwapUnstakedToDeferredPayment:
		return SwapUnstakedToDeferredPayment{}, nil
	case TagSwapActiveToDeferredPayment:
		return SwapActiveToDeferredPayment{}, nil
	}
	return nil, ErrInvalidValue
}
