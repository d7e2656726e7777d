// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package registry maps addresses to user ids. Ids are assigned in order of
// first appearance starting at 1; 0 means unregistered.
package registry

import (
	"github.com/vechain/delegation/builtin/slot"
	"github.com/vechain/delegation/thor"
)

var slotNrUsers = slot.Fixed(2)

type Service struct {
	sctx    *slot.Context
	nrUsers *slot.Uint64
}

func New(sctx *slot.Context) *Service {
	return &Service{
		sctx:    sctx,
		nrUsers: slot.NewUint64(sctx, slotNrUsers),
	}
}

func (s *Service) userID(addr thor.Address) *slot.Uint64 {
	return slot.NewUint64(s.sctx, slot.AddressKey(addr))
}

// Lookup returns the id of the address, 0 if it never registered.
func (s *Service) Lookup(addr thor.Address) (uint64, error) {
	return s.userID(addr).Get()
}

// Count returns the number of registered users, which is also the highest id.
func (s *Service) Count() (uint64, error) {
	return s.nrUsers.Get()
}

// ResolveOrCreate returns the id of the address, registering it under the next
// id when unknown.
func (s *Service) ResolveOrCreate(addr thor.Address) (id uint64, created bool, err error) {
	cell := s.userID(addr)
	if id, err = cell.Get(); err != nil || id != 0 {
		return id, false, err
	}

	count, err := s.nrUsers.Get()
	if err != nil {
		return 0, false, err
	}
	id = count + 1
	if err := s.nrUsers.Set(id); err != nil {
		return 0, false, err
	}
	if err := cell.Set(id); err != nil {
		return 0, false, err
	}
	return id, true, nil
}
