package cmd

import (
	"context"
	"errors"

	"github.com/Mohsinsiddi/icon-cli/internal/addressbook"
	"github.com/Mohsinsiddi/icon-cli/internal/batch"
	"github.com/Mohsinsiddi/icon-cli/internal/config"
	"github.com/Mohsinsiddi/icon-cli/internal/icx"
	"github.com/Mohsinsiddi/icon-cli/internal/keystore"
	"github.com/Mohsinsiddi/icon-cli/internal/network"
	"github.com/Mohsinsiddi/icon-cli/internal/price"
	"github.com/Mohsinsiddi/icon-cli/internal/tracker"
	"github.com/Mohsinsiddi/icon-cli/internal/wallet"
)

// ErrReadOnlyMode is returned by transaction commands when mode is "r".
var ErrReadOnlyMode = errors.New("config is in read-only mode")

// Exit codes.
const (
	exitOK = iota
	exitGeneric
	exitConfig
	exitUnknown
	exitInvalid
	exitAuth
	exitFilesystem
	exitReadOnly
	exitRPC
)

// exitCode maps an error to the process exit code. The first matching
// kind wins, so wrapped filesystem errors inside a config error report
// the config kind and an interrupted RPC call is not an RPC failure.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, config.ErrConfigCorrupt), errors.Is(err, config.ErrConfigInvariant):
		return exitConfig
	case errors.Is(err, keystore.ErrUnknownKeystore),
		errors.Is(err, keystore.ErrNoDefault),
		errors.Is(err, config.ErrUnknownNetwork),
		errors.Is(err, addressbook.ErrUnknownLabel):
		return exitUnknown
	case errors.Is(err, keystore.ErrInvalidFormat),
		errors.Is(err, keystore.ErrDuplicateAddress),
		errors.Is(err, keystore.ErrDuplicateName),
		errors.Is(err, keystore.ErrInvalidNickname),
		errors.Is(err, network.ErrDuplicateNetwork),
		errors.Is(err, network.ErrInvalidNetwork),
		errors.Is(err, addressbook.ErrInvalidAddress),
		errors.Is(err, addressbook.ErrInvalidLabel),
		errors.Is(err, price.ErrUnknownSymbol),
		errors.Is(err, batch.ErrInvalidRow),
		errors.Is(err, wallet.ErrInvalidKeystore),
		errors.Is(err, wallet.ErrAddressMismatch):
		return exitInvalid
	case errors.Is(err, wallet.ErrAuthentication):
		return exitAuth
	case errors.Is(err, config.ErrFilesystem):
		return exitFilesystem
	case errors.Is(err, ErrReadOnlyMode):
		return exitReadOnly
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return exitGeneric
	case errors.Is(err, icx.ErrRPC), errors.Is(err, tracker.ErrTracker), errors.Is(err, price.ErrMarket):
		return exitRPC
	}
	return exitGeneric
}

// errorHint suggests the command that fixes a common failure.
func errorHint(err error) string {
	switch {
	case errors.Is(err, config.ErrConfigCorrupt):
		return "Restore defaults with: icon config reset"
	case errors.Is(err, keystore.ErrNoDefault):
		return "Pick one with: icon config keystore use <name>"
	case errors.Is(err, keystore.ErrUnknownKeystore):
		return "See imported keystores with: icon config keystore list"
	case errors.Is(err, config.ErrUnknownNetwork):
		return "See networks with: icon config network list"
	case errors.Is(err, ErrReadOnlyMode):
		return "Allow transactions with: icon config mode rw"
	}
	return ""
}
