// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package identity

import (
	"github.com/pdiddy/talent-engine/pkg/types"
)

// Sink is the single writer between concurrent connector tasks and the
// resolver. Connectors send on In; one goroutine drains the channel into a
// staging buffer, so no lock guards the buffer. Close In, then call Wait to
// resolve everything received.
type Sink struct {
	In chan types.RawCandidateRecord

	resolver *Resolver
	done     chan struct{}
	staged   []types.RawCandidateRecord
}

// NewSink starts the draining goroutine. buffer sizes the input channel.
func NewSink(r *Resolver, buffer int) *Sink {
	s := &Sink{
		In:       make(chan types.RawCandidateRecord, buffer),
		resolver: r,
		done:     make(chan struct{}),
	}
	go s.drain()
	return s
}

func (s *Sink) drain() {
	defer close(s.done)
	for rec := range s.In {
		s.staged = append(s.staged, rec)
	}
}

// Wait blocks until In is closed and drained, then resolves the staged
// records. It returns the records too, for callers that persist them.
func (s *Sink) Wait() (Result, []types.RawCandidateRecord) {
	<-s.done
	return s.resolver.Resolve(s.staged), s.staged
}
