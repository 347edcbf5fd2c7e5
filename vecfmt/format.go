// Package vecfmt implements the binary vector payload format.
//
// The format is the normative persisted/interchange representation for
// vector collections and must stay bit-compatible across implementations:
//
//	magic     uint32  // 0x56454346 ("VECF")
//	version   uint32  // highest understood: 1
//	count     uint32  // number of vectors N
//	dims      uint32  // dimensionality D
//	dataType  uint32  // element encoding, see DataType
//	metaLen   uint32  // length of the metadata block in bytes
//	metadata  [metaLen]byte    // UTF-8 JSON
//	elements  [N*D]element     // row-major, per dataType
//
// All integers are big-endian unsigned 32-bit.
package vecfmt

import (
	"errors"
	"fmt"
)

const (
	// Magic identifies vecfmt payloads (ASCII "VECF").
	Magic = 0x56454346

	// Version is the highest format version this implementation understands.
	Version = 1

	// HeaderSize is the fixed byte length of the header.
	HeaderSize = 24

	// FileExt is the reserved file extension for standalone payload files.
	FileExt = ".vec"
)

// ErrFormat is the umbrella for every malformed-payload error. All sentinels
// below satisfy errors.Is(err, ErrFormat).
var ErrFormat = errors.New("vecfmt: malformed payload")

var (
	// ErrTruncatedHeader indicates a buffer shorter than the fixed header.
	ErrTruncatedHeader = fmt.Errorf("%w: buffer shorter than header", ErrFormat)

	// ErrInvalidMagic indicates a magic number mismatch.
	ErrInvalidMagic = fmt.Errorf("%w: invalid magic number", ErrFormat)

	// ErrUnsupportedVersion indicates a version newer than this implementation.
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported version", ErrFormat)

	// ErrMetadataOverflow indicates a metadata length past the buffer end.
	ErrMetadataOverflow = fmt.Errorf("%w: metadata length exceeds buffer", ErrFormat)

	// ErrInvalidDataType indicates an unrecognized data-type tag.
	ErrInvalidDataType = fmt.Errorf("%w: unrecognized data type", ErrFormat)

	// ErrSizeMismatch indicates an element section whose size does not match
	// count*dims*elementSize exactly.
	ErrSizeMismatch = fmt.Errorf("%w: element section size mismatch", ErrFormat)

	// ErrCountMismatch is returned by Serialize when the flat element slice
	// does not hold exactly count*dims values.
	ErrCountMismatch = fmt.Errorf("%w: element count does not match count*dims", ErrFormat)
)

// DataType enumerates the supported element encodings.
type DataType uint32

const (
	Float32 DataType = 1
	Float64 DataType = 2
	Int32   DataType = 3
	Int64   DataType = 4
)

// Size returns the encoded byte size of one element, or 0 for an
// unrecognized tag.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Float64, Int64:
		return 8
	default:
		return 0
	}
}

func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	default:
		return fmt.Sprintf("DataType(%d)", uint32(dt))
	}
}
