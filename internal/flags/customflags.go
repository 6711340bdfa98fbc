// Copyright 2025 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

package flags

import (
	"encoding"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"
)

// Expands a file path
// 1. replace tilde with users home dir
// 2. expands embedded environment variables
// 3. cleans the path, e.g. /a/b/../c -> /a/c
// Note, it has limitations, e.g. ~someuser/tmp will not be expanded
func ExpandPath(p string) string {
	if p == "" {
		return p
	}
	if strings.HasPrefix(p, "~/") || strings.HasPrefix(p, "~\\") {
		if home := HomeDir(); home != "" {
			p = home + p[1:]
		}
	}
	return filepath.Clean(os.ExpandEnv(p))
}

func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// TextMarshaler is a value with a textual form, such as an enumeration set from
// the command line.
type TextMarshaler interface {
	encoding.TextMarshaler
	encoding.TextUnmarshaler
}

// TextValue adapts a TextMarshaler to cli.Generic, for use as the Value of a
// cli.GenericFlag.
type TextValue struct {
	V TextMarshaler
}

func (v *TextValue) String() string {
	if v == nil || v.V == nil {
		return ""
	}
	text, err := v.V.MarshalText()
	if err != nil {
		return "(ERR: " + err.Error() + ")"
	}
	return string(text)
}

func (v *TextValue) Set(s string) error {
	return v.V.UnmarshalText([]byte(s))
}

// GlobalText returns the value behind a TextValue flag, or nil if name is not
// such a flag.
func GlobalText(ctx *cli.Context, name string) TextMarshaler {
	if v, ok := ctx.Generic(name).(*TextValue); ok {
		return v.V
	}
	return nil
}
