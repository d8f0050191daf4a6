// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/common/errclass/errclass.go
//

// Package errclass classifies network errors into short categorical
// strings (e.g. "ETIMEDOUT", "ECONNREFUSED") suitable for structured
// logging and metrics labels.
package errclass

import (
	"context"
	"errors"
	"net"
	"os"
	"syscall"
)

// Categorical labels returned by [New]. EGENERIC is returned for any
// non-nil error that does not match a more specific category.
const (
	EADDRNOTAVAIL   = "EADDRNOTAVAIL"
	EADDRINUSE      = "EADDRINUSE"
	ECANCELED       = "ECANCELED"
	ECONNABORTED    = "ECONNABORTED"
	ECONNREFUSED    = "ECONNREFUSED"
	ECONNRESET      = "ECONNRESET"
	EGENERIC        = "EGENERIC"
	EHOSTUNREACH    = "EHOSTUNREACH"
	EINVAL          = "EINVAL"
	EINTR           = "EINTR"
	ENETDOWN        = "ENETDOWN"
	ENETUNREACH     = "ENETUNREACH"
	ENOBUFS         = "ENOBUFS"
	ENOTCONN        = "ENOTCONN"
	EPROTONOSUPPORT = "EPROTONOSUPPORT"
	ETIMEDOUT       = "ETIMEDOUT"
)

// New classifies err into a short categorical string, or returns "" if
// err is nil.
func New(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return ETIMEDOUT
	}
	if errors.Is(err, context.Canceled) {
		return ECANCELED
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ETIMEDOUT
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case errEADDRNOTAVAIL:
			return EADDRNOTAVAIL
		case errEADDRINUSE:
			return EADDRINUSE
		case errECONNABORTED:
			return ECONNABORTED
		case errECONNREFUSED:
			return ECONNREFUSED
		case errECONNRESET:
			return ECONNRESET
		case errEHOSTUNREACH:
			return EHOSTUNREACH
		case errEINVAL:
			return EINVAL
		case errEINTR:
			return EINTR
		case errENETDOWN:
			return ENETDOWN
		case errENETUNREACH:
			return ENETUNREACH
		case errENOBUFS:
			return ENOBUFS
		case errENOTCONN:
			return ENOTCONN
		case errEPROTONOSUPPORT:
			return EPROTONOSUPPORT
		case errETIMEDOUT:
			return ETIMEDOUT
		}
	}
	return EGENERIC
}
