// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	ethlog "github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
)

// Supported output formats.
const (
	FormatTerminal = "terminal"
	FormatJSON     = "json"
	FormatLogfmt   = "logfmt"
)

// FromLegacyLevel converts verbosity 0..5 (crit..trace) into a slog level.
func FromLegacyLevel(verbosity int) slog.Level {
	return ethlog.FromLegacyLevel(verbosity)
}

// DiscardHandler returns a no-op handler.
func DiscardHandler() slog.Handler {
	return ethlog.DiscardHandler()
}

// NewHandler creates a handler writing records of the given format at or above lvl.
// Terminal output is colored when w is a terminal.
func NewHandler(w io.Writer, format string, lvl slog.Level) (slog.Handler, error) {
	switch format {
	case "", FormatTerminal:
		return ethlog.NewTerminalHandlerWithLevel(w, lvl, useColor(w)), nil
	case FormatJSON:
		return ethlog.JSONHandlerWithLevel(w, lvl), nil
	case FormatLogfmt:
		return ethlog.LogfmtHandlerWithLevel(w, lvl), nil
	}
	return nil, fmt.Errorf("unsupported log format %q", format)
}

func useColor(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
