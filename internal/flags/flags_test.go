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
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestPathExpansion(t *testing.T) {
	home := HomeDir()
	tests := map[string]string{
		"/home/someuser/tmp": "/home/someuser/tmp",
		"~/tmp":              home + "/tmp",
		"~thisOtherUser/b/":  "~thisOtherUser/b",
		"$DDDXXX/a/b":        "/tmp/a/b",
		"/a/b/":              "/a/b",
		"":                   "",
	}
	t.Setenv("DDDXXX", "/tmp")
	for test, expected := range tests {
		assert.Equal(t, expected, ExpandPath(test), "input %q", test)
	}
}

type testMarshaler struct{ val string }

func (m *testMarshaler) MarshalText() ([]byte, error) { return []byte(m.val), nil }
func (m *testMarshaler) UnmarshalText(b []byte) error {
	m.val = string(b)
	return nil
}

func TestTextValueFlag(t *testing.T) {
	value := &testMarshaler{val: "default"}
	f := &cli.GenericFlag{Name: "mode", Aliases: []string{"m"}, Value: &TextValue{V: value}}

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	require.NoError(t, f.Apply(set))
	require.NoError(t, set.Parse([]string{"-m", "custom"}))

	ctx := cli.NewContext(&cli.App{}, set, nil)
	assert.Equal(t, "custom", value.val)
	assert.Same(t, value, GlobalText(ctx, "mode"))
	assert.Nil(t, GlobalText(ctx, "other"))
}

func TestAutoEnvVars(t *testing.T) {
	var (
		str   = &cli.StringFlag{Name: "metrics.addr"}
		dur   = &cli.DurationFlag{Name: "drop-grace", EnvVars: []string{"GRACE"}}
		other = &cli.Float64Flag{Name: "ratio"}
	)
	AutoEnvVars([]cli.Flag{str, dur, other}, "APP")

	assert.Equal(t, []string{"APP_METRICS_ADDR"}, str.EnvVars)
	assert.Equal(t, []string{"GRACE", "APP_DROP_GRACE"}, dur.EnvVars)
	assert.Empty(t, other.EnvVars)
}

func TestTextValueFlagEnv(t *testing.T) {
	value := &testMarshaler{val: "default"}
	f := &cli.GenericFlag{Name: "mode", Value: &TextValue{V: value}}
	AutoEnvVars([]cli.Flag{f}, "APP")
	t.Setenv("APP_MODE", "fromenv")

	set := flag.NewFlagSet("test", flag.ContinueOnError)
	require.NoError(t, f.Apply(set))
	assert.Equal(t, "fromenv", value.val)
	assert.True(t, f.IsSet())
}
