// SPDX-License-Identifier: GPL-3.0-or-later

package codeinterp

import (
	"fmt"

	probeengine "github.com/bassosimone/probeengine"
)

func errorf(format string, args ...any) error {
	return probeengine.NewEngineError(probeengine.ErrSyntax, fmt.Sprintf(format, args...))
}

func errorfAt(line int, format string, args ...any) error {
	return probeengine.NewEngineErrorAt(probeengine.ErrSyntax, fmt.Sprintf(format, args...), line)
}
