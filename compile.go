package spos

import (
	"fmt"

	"github.com/luxedo/spos/internal/bitstream"
)

// CompiledSpec is a payload spec after validation: every block description
// has been normalized into a concrete block type and every cross-field
// constraint (version fits version_bits, unique block names, ...) has
// already been checked. Encode/Decode never re-validate a CompiledSpec.
type CompiledSpec struct {
	Name    string
	Version int

	encodeVersion bool
	versionBits   int
	crc8          bool

	header []block // may include static blocks; those consume no bits
	body   []block
}

// EncodeVersion reports whether this spec prefixes messages with a version
// field.
func (s *CompiledSpec) EncodeVersion() bool { return s.encodeVersion }

// VersionBits returns the width of the version prefix, or 0 if
// EncodeVersion is false.
func (s *CompiledSpec) VersionBits() int { return s.versionBits }

// Compile validates a raw payload spec (as produced by unmarshalling its
// JSON into map[string]any) and produces a CompiledSpec ready for
// Encode/Decode.
func Compile(raw map[string]any) (spec *CompiledSpec, err error) {
	defer recoverErr(&err)

	name, hasName, err := rawString(raw, "name")
	if err != nil {
		return nil, err
	}
	if !hasName || name == "" {
		return nil, PayloadSpecError("spec is missing required field \"name\"")
	}

	version, hasVersion, err := rawInt(raw, "version")
	if err != nil {
		return nil, err
	}
	if !hasVersion {
		return nil, PayloadSpecError("spec is missing required field \"version\"")
	}

	metaRaw, hasMeta := raw["meta"].(map[string]any)
	if !hasMeta {
		if v, ok := raw["meta"]; ok && v != nil {
			return nil, PayloadSpecError("meta must be an object")
		}
		metaRaw = map[string]any{}
	}

	encodeVersion, _, err := rawBool(metaRaw, "encode_version")
	if err != nil {
		return nil, err
	}

	versionBits := 0
	if encodeVersion {
		vb, hasVB, err := rawInt(metaRaw, "version_bits")
		if err != nil {
			return nil, err
		}
		if !hasVB || vb <= 0 {
			return nil, PayloadSpecError("meta.version_bits is required and must be positive when encode_version is true")
		}
		versionBits = vb
		if uint64(version) >= uint64(1)<<uint(versionBits) {
			return nil, PayloadSpecError(fmt.Sprintf("version %d does not fit in %d bits", version, versionBits))
		}
	}

	crc8, _, err := rawBool(metaRaw, "crc8")
	if err != nil {
		return nil, err
	}

	var header []block
	if headerRaw, ok := metaRaw["header"]; ok {
		list, ok := headerRaw.([]any)
		if !ok {
			return nil, PayloadSpecError("meta.header must be a list of blocks")
		}
		header, err = validateBlockList(toRawBlockList(list))
		if err != nil {
			return nil, err
		}
	}

	bodyRaw, hasBody := raw["body"].([]any)
	if !hasBody {
		return nil, PayloadSpecError("spec is missing required field \"body\"")
	}
	body, err := validateBlockList(toRawBlockList(bodyRaw))
	if err != nil {
		return nil, err
	}

	return &CompiledSpec{
		Name:          name,
		Version:       version,
		encodeVersion: encodeVersion,
		versionBits:   versionBits,
		crc8:          crc8,
		header:        header,
		body:          body,
	}, nil
}

// peekVersion reads just the version prefix out of a bit-packed message,
// without consuming anything else. It is used both by Decode (to validate
// the version matches the spec) and by DecodeFromSpecs (to pick a spec).
func peekVersion(r *bitstream.Reader, versionBits int) (int, error) {
	v, err := r.ReadBits(versionBits)
	if err != nil {
		return 0, ErrTruncatedMessage
	}
	return int(v), nil
}
