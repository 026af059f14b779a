// Command spos encodes and decodes small payload messages against one or
// more JSON payload specs from the command line.
//
// Example usage:
//	$ spos -p sensor.json -i payload.json -f hex
//	$ spos -d -p sensor.json -f hex -i message.hex
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/luxedo/spos"
)

// exit codes, one per error kind so scripts can branch on failure mode.
const (
	exitOK          = 0
	exitUsage       = 1
	exitSpecError   = 2
	exitEncodeError = 3
	exitDecodeError = 4
	exitCrcMismatch = 5
	exitTruncated   = 6
	exitIOError     = 7
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("spos", flag.ContinueOnError)

	decodeMode := fs.Bool("d", false, "decode mode (default: encode)")
	var specPaths stringList
	fs.Var(&specPaths, "p", "path to a JSON payload spec (repeatable)")
	format := fs.String("f", "bin", "wire representation: bin, hex, or bytes")
	random := fs.Bool("r", false, "generate a random payload instead of reading -i (encode mode only)")
	pool := fs.Bool("I", false, "decode using the full -p pool instead of a single spec")
	metaOnly := fs.Bool("m", false, "print only meta (decode mode)")
	sizeOnly := fs.Bool("s", false, "print only the wire size in bits of the input message (decode mode)")
	inputPath := fs.String("i", "", "input file path (default stdin)")
	outputPath := fs.String("o", "", "output file path (default stdout)")
	verbose := fs.Bool("v", false, "verbose structured logging to stderr")

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err == nil {
			logger = l
		}
		defer logger.Sync()
	}

	if len(specPaths) == 0 {
		fmt.Fprintln(os.Stderr, "spos: at least one -p SPEC is required")
		return exitUsage
	}

	specPool := spos.NewSpecPool()
	var specs []*spos.CompiledSpec
	for _, path := range specPaths {
		content, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "spos: reading spec %s: %v\n", path, err)
			return exitIOError
		}
		spec, added, err := specPool.Add(content)
		if err != nil {
			fmt.Fprintf(os.Stderr, "spos: compiling spec %s: %v\n", path, err)
			return exitSpecError
		}
		logger.Debug("loaded spec", zap.String("path", path), zap.Bool("new", added), zap.String("name", spec.Name))
		if added {
			specs = append(specs, spec)
		}
	}

	outFmt := spos.Format(*format)

	if *decodeMode {
		return runDecode(logger, specs, outFmt, *pool, *metaOnly, *sizeOnly, *inputPath, *outputPath)
	}
	return runEncode(logger, specs[0], outFmt, *random, *inputPath, *outputPath)
}

func runEncode(logger *zap.Logger, spec *spos.CompiledSpec, format spos.Format, random bool, inputPath, outputPath string) int {
	var payload map[string]any
	var message string
	var err error

	if random {
		message, payload, err = spos.RandomPayload(spec, format, spos.RandomPayloadOptions{Seed: 0})
		if err != nil {
			return reportError(err)
		}
		logger.Info("generated random payload", zap.Any("payload", payload))
	} else {
		in, closeIn, err2 := openInput(inputPath)
		if err2 != nil {
			fmt.Fprintf(os.Stderr, "spos: %v\n", err2)
			return exitIOError
		}
		defer closeIn()

		raw, err2 := io.ReadAll(in)
		if err2 != nil {
			fmt.Fprintf(os.Stderr, "spos: reading input: %v\n", err2)
			return exitIOError
		}
		if err2 := json.Unmarshal(raw, &payload); err2 != nil {
			fmt.Fprintf(os.Stderr, "spos: invalid JSON payload: %v\n", err2)
			return exitUsage
		}

		message, err = spos.Encode(payload, spec, format)
		if err != nil {
			return reportError(err)
		}
	}

	logger.Debug("encoded message", zap.Int("bytes", len(message)))
	return writeOutput(outputPath, message)
}

func runDecode(logger *zap.Logger, specs []*spos.CompiledSpec, format spos.Format, usePool, metaOnly, sizeOnly bool, inputPath, outputPath string) int {
	in, closeIn, err := openInput(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "spos: %v\n", err)
		return exitIOError
	}
	defer closeIn()

	raw, err := io.ReadAll(in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "spos: reading input: %v\n", err)
		return exitIOError
	}
	message := string(raw)

	var decoded *spos.Decoded
	if usePool {
		decoded, err = spos.DecodeFromSpecs(message, specs)
	} else {
		decoded, err = spos.DecodeWithFormat(message, format, specs[0])
	}
	if err != nil {
		return reportError(err)
	}
	logger.Debug("decoded message", zap.String("spec", decoded.Spec.Name), zap.Int("version", decoded.Spec.Version))

	var out any = map[string]any{"meta": decoded.Meta, "body": decoded.Body}
	switch {
	case sizeOnly:
		digits := message
		digits = strings.TrimPrefix(strings.TrimPrefix(digits, "0b"), "0B")
		digits = strings.TrimPrefix(strings.TrimPrefix(digits, "0x"), "0X")
		bits := len(digits)
		if format == spos.FormatHex {
			bits = len(digits) * 4
		} else if format == spos.FormatBytes {
			bits = len(digits) * 8
		}
		return writeOutput(outputPath, fmt.Sprintf("%d\n", bits))
	case metaOnly:
		out = decoded.Meta
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "spos: marshalling result: %v\n", err)
		return exitIOError
	}
	return writeOutput(outputPath, string(encoded)+"\n")
}

func reportError(err error) int {
	fmt.Fprintf(os.Stderr, "spos: %v\n", err)
	switch {
	case err == spos.ErrCrcMismatch:
		return exitCrcMismatch
	case err == spos.ErrTruncatedMessage:
		return exitTruncated
	default:
		switch err.(type) {
		case spos.PayloadSpecError, spos.SpecsVersionError:
			return exitSpecError
		case spos.EncodeError:
			return exitEncodeError
		case spos.DecodeError:
			return exitDecodeError
		default:
			return exitDecodeError
		}
	}
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening input %s: %w", path, err)
	}
	return f, func() { f.Close() }, nil
}

func writeOutput(path, content string) int {
	if path == "" {
		fmt.Fprint(os.Stdout, content)
		return exitOK
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "spos: writing output: %v\n", err)
		return exitIOError
	}
	return exitOK
}

// stringList implements flag.Value, collecting every -p into a slice.
type stringList []string

func (s *stringList) String() string { return fmt.Sprint(*s) }
func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}
