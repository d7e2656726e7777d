// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package slot

import (
	"encoding/binary"

	"github.com/vechain/delegation/thor"
)

// Fixed returns the fixed key of a contract scalar: the tag followed by zeros.
func Fixed(tag byte) thor.Bytes32 {
	return thor.TaggedKey(tag)
}

// UserKey composes the key of a per user field: byte 0 is the prefix, bytes 24..31
// the big-endian id, all others zero.
func UserKey(prefix byte, id uint64) (key thor.Bytes32) {
	key[0] = prefix
	binary.BigEndian.PutUint64(key[24:], id)
	return
}

// AddressKey right-aligns the address in 32 bytes. Its first 12 bytes are zero,
// so it never collides with a fixed or user key.
func AddressKey(addr thor.Address) (key thor.Bytes32) {
	copy(key[32-len(addr):], addr[:])
	return
}
