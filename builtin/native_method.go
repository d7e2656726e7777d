// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package builtin

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/vechain/delegation/xenv"
)

// ErrMethodNotFound is returned when calling an unknown native method.
var ErrMethodNotFound = errors.New("native method not found")

// nativeMethod describes a native call.
type nativeMethod struct {
	payable bool
	run     func(env *xenv.Environment) ([]any, error)
}

var nativeMethods = make(map[string]*nativeMethod)

// NativeCall runs the named method of the delegation contract within env.
// A call running out of gas returns xenv.ErrOutOfGas.
func NativeCall(env *xenv.Environment, name string) ([]any, error) {
	method, found := nativeMethods[name]
	if !found {
		return nil, errors.WithMessage(ErrMethodNotFound, name)
	}
	return env.Call(method.run, method.payable)()
}

// IsPayable tells whether the named method accepts value.
func IsPayable(name string) bool {
	method, found := nativeMethods[name]
	return found && method.payable
}

// NativeMethods lists the method names in order.
func NativeMethods() []string {
	names := make([]string, 0, len(nativeMethods))
	for name := range nativeMethods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
