package spos

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// SpecPool loads and compiles payload specs from raw JSON bytes, skipping
// any content it has already compiled (identified by an xxHash64
// fingerprint), so re-loading the same spec is a no-op rather than a
// duplicate-version error.
type SpecPool struct {
	specs        []*CompiledSpec
	fingerprints map[uint64]*CompiledSpec
}

func NewSpecPool() *SpecPool {
	return &SpecPool{fingerprints: make(map[uint64]*CompiledSpec)}
}

// Add compiles one spec file's JSON content and adds it to the pool. It
// returns the compiled spec and whether it was newly added (false means
// this exact content was already in the pool, and spec is the previously
// compiled value).
func (p *SpecPool) Add(content []byte) (spec *CompiledSpec, added bool, err error) {
	sum := xxhash.Sum64(content)
	if existing, ok := p.fingerprints[sum]; ok {
		return existing, false, nil
	}

	var raw map[string]any
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, false, PayloadSpecError(fmt.Sprintf("invalid spec JSON: %v", err))
	}
	spec, err = Compile(raw)
	if err != nil {
		return nil, false, err
	}

	p.fingerprints[sum] = spec
	p.specs = append(p.specs, spec)
	return spec, true, nil
}

// Specs returns every distinct spec currently in the pool, in load order.
func (p *SpecPool) Specs() []*CompiledSpec {
	return p.specs
}
