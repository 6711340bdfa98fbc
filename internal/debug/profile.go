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

// Package debug wires logging and runtime profiling to the command line.
package debug

import (
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"runtime/trace"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/mempoolmon/internal/flags"
)

// collector is a profiler streaming into a file until stopped.
type collector struct {
	file string
	out  io.Closer
	stop func()
}

// profiler keeps track of the running collectors by kind.
type profiler struct {
	mu      sync.Mutex
	running map[string]*collector
}

var profiles = &profiler{running: make(map[string]*collector)}

// start creates file and begins streaming the named profile into it.
func (p *profiler) start(kind, file string, begin func(io.Writer) error, end func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.running[kind]; ok {
		return fmt.Errorf("%s profiling already in progress", kind)
	}
	f, err := os.Create(flags.ExpandPath(file))
	if err != nil {
		return err
	}
	if err := begin(f); err != nil {
		f.Close()
		return err
	}
	p.running[kind] = &collector{file: file, out: f, stop: end}
	log.Info("Profiling started", "type", kind, "dump", file)
	return nil
}

// stopAll ends every running collector and closes its file.
func (p *profiler) stopAll() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for kind, c := range p.running {
		c.stop()
		c.out.Close()
		delete(p.running, kind)
		log.Info("Done writing profile", "type", kind, "dump", c.file)
	}
}

func startCPUProfile(file string) error {
	return profiles.start("cpu", file, pprof.StartCPUProfile, pprof.StopCPUProfile)
}

func startGoTrace(file string) error {
	return profiles.start("trace", file, trace.Start, trace.Stop)
}

// writeProfile dumps a snapshot profile such as "heap" to file.
func writeProfile(name, file string) error {
	p := pprof.Lookup(name)
	log.Info("Writing profile records", "count", p.Count(), "type", name, "dump", file)
	f, err := os.Create(flags.ExpandPath(file))
	if err != nil {
		return err
	}
	defer f.Close()
	return p.WriteTo(f, 0)
}
