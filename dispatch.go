package spos

import (
	"fmt"

	"github.com/luxedo/spos/internal/bitstream"
)

// DecodeFromSpecs picks the right spec out of a pool by peeking each
// message's version prefix, then decodes with it. Every spec in the pool
// must share the same name, the same version_bits, have encode_version
// set, and carry a distinct version — DecodeFromSpecs checks all of that
// before it looks at message.
func DecodeFromSpecs(message string, specs []*CompiledSpec) (decoded *Decoded, err error) {
	defer recoverErr(&err)

	if len(specs) == 0 {
		return nil, SpecsVersionError("spec pool is empty")
	}

	first := specs[0]
	if !first.encodeVersion {
		return nil, SpecsVersionError("spec pool entries must have encode_version set")
	}

	seenVersions := make(map[int]bool, len(specs))
	for _, s := range specs {
		if s.Name != first.Name {
			return nil, SpecsVersionError(fmt.Sprintf("spec pool has mismatched names %q and %q", first.Name, s.Name))
		}
		if !s.encodeVersion {
			return nil, SpecsVersionError("spec pool entries must have encode_version set")
		}
		if s.versionBits != first.versionBits {
			return nil, SpecsVersionError("spec pool entries must share version_bits")
		}
		if seenVersions[s.Version] {
			return nil, SpecsVersionError(fmt.Sprintf("spec pool has duplicate version %d", s.Version))
		}
		seenVersions[s.Version] = true
	}

	data, numBits, err := parseInput(message, inferFormat(message, first))
	if err != nil {
		return nil, err
	}

	peek := bitstream.NewReader(data, numBits)
	version, err := peekVersion(peek, first.versionBits)
	if err != nil {
		return nil, err
	}

	for _, s := range specs {
		if s.Version == version {
			return decodeBytes(data, numBits, s)
		}
	}
	return nil, PayloadSpecError(fmt.Sprintf("no spec in pool matches message version %d", version))
}
