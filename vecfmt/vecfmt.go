package vecfmt

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hupe1980/vecstore/codec"
	"github.com/hupe1980/vecstore/metadata"
)

// Options configures serialization.
type Options struct {
	// DataType selects the element encoding. Defaults to Float32.
	DataType DataType

	// Codec encodes the metadata block. Defaults to codec.Default.
	Codec codec.Codec
}

// DefaultOptions returns the default serialization options.
var DefaultOptions = Options{
	DataType: Float32,
	Codec:    nil, // resolved to codec.Default
}

// Payload is the result of deserializing a vecfmt buffer.
type Payload struct {
	// Data holds the elements flattened in row-major order,
	// Count*Dimensions values long.
	Data []float32

	Dimensions int
	Count      int
	DataType   DataType
	Metadata   metadata.Metadata
}

// Vector returns the i-th vector as a subslice of Data.
func (p *Payload) Vector(i int) []float32 {
	return p.Data[i*p.Dimensions : (i+1)*p.Dimensions]
}

// Serialize encodes count vectors of the given dimensionality, flattened
// row-major into data, together with a JSON metadata block.
//
// It fails with ErrCountMismatch when len(data) != count*dims.
func Serialize(data []float32, dims, count int, meta metadata.Metadata, optFns ...func(o *Options)) ([]byte, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	c := opts.Codec
	if c == nil {
		c = codec.Default
	}

	if dims < 0 || count < 0 || uint64(dims) > math.MaxUint32 || uint64(count) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: shape %d x %d does not fit the header", ErrCountMismatch, count, dims)
	}
	// Shape math stays in uint64; both factors fit 32 bits, so the product
	// cannot wrap.
	if uint64(len(data)) != uint64(dims)*uint64(count) {
		return nil, fmt.Errorf("%w: got %d elements for %d x %d", ErrCountMismatch, len(data), count, dims)
	}
	elemSize := opts.DataType.Size()
	if elemSize == 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDataType, uint32(opts.DataType))
	}

	var metaBytes []byte
	if meta != nil {
		var err error
		metaBytes, err = c.Marshal(meta)
		if err != nil {
			return nil, fmt.Errorf("vecfmt: marshal metadata: %w", err)
		}
	}

	buf := make([]byte, HeaderSize+len(metaBytes)+len(data)*elemSize)
	binary.BigEndian.PutUint32(buf[0:], Magic)
	binary.BigEndian.PutUint32(buf[4:], Version)
	binary.BigEndian.PutUint32(buf[8:], uint32(count))
	binary.BigEndian.PutUint32(buf[12:], uint32(dims))
	binary.BigEndian.PutUint32(buf[16:], uint32(opts.DataType))
	binary.BigEndian.PutUint32(buf[20:], uint32(len(metaBytes)))
	copy(buf[HeaderSize:], metaBytes)

	off := HeaderSize + len(metaBytes)
	for _, v := range data {
		switch opts.DataType {
		case Float32:
			binary.BigEndian.PutUint32(buf[off:], math.Float32bits(v))
		case Float64:
			binary.BigEndian.PutUint64(buf[off:], math.Float64bits(float64(v)))
		case Int32:
			binary.BigEndian.PutUint32(buf[off:], uint32(int32(v)))
		case Int64:
			binary.BigEndian.PutUint64(buf[off:], uint64(int64(v)))
		}
		off += elemSize
	}

	return buf, nil
}

// Deserialize decodes a vecfmt buffer.
//
// Every failure mode returns an error satisfying errors.Is(err, ErrFormat):
// truncated header, magic mismatch, version newer than this implementation,
// metadata length past the buffer end, unrecognized data type, or an element
// section that is not exactly count*dims*elementSize bytes.
func Deserialize(buf []byte, optFns ...func(o *Options)) (*Payload, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	c := opts.Codec
	if c == nil {
		c = codec.Default
	}

	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("%w: got %d bytes", ErrTruncatedHeader, len(buf))
	}
	if magic := binary.BigEndian.Uint32(buf[0:]); magic != Magic {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, magic)
	}
	if version := binary.BigEndian.Uint32(buf[4:]); version > Version {
		return nil, fmt.Errorf("%w: got %d", ErrUnsupportedVersion, version)
	}

	count := int(binary.BigEndian.Uint32(buf[8:]))
	dims := int(binary.BigEndian.Uint32(buf[12:]))
	dataType := DataType(binary.BigEndian.Uint32(buf[16:]))
	metaLen := int(binary.BigEndian.Uint32(buf[20:]))

	if HeaderSize+metaLen > len(buf) {
		return nil, fmt.Errorf("%w: %d metadata bytes in %d-byte buffer", ErrMetadataOverflow, metaLen, len(buf))
	}
	elemSize := dataType.Size()
	if elemSize == 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDataType, uint32(dataType))
	}

	var meta metadata.Metadata
	if metaLen > 0 {
		if err := c.Unmarshal(buf[HeaderSize:HeaderSize+metaLen], &meta); err != nil {
			return nil, fmt.Errorf("%w: invalid metadata JSON: %w", ErrFormat, err)
		}
	}

	rest := buf[HeaderSize+metaLen:]
	// The required size is computed in uint64; a crafted header with huge
	// count and dims would wrap native int arithmetic past the check and
	// into the allocation below.
	elems := uint64(count) * uint64(dims)
	if uint64(len(rest))%uint64(elemSize) != 0 || uint64(len(rest))/uint64(elemSize) != elems {
		return nil, fmt.Errorf("%w: %d x %d %s elements, got %d bytes", ErrSizeMismatch, count, dims, dataType, len(rest))
	}

	data := make([]float32, int(elems))
	off := 0
	for i := range data {
		switch dataType {
		case Float32:
			data[i] = math.Float32frombits(binary.BigEndian.Uint32(rest[off:]))
		case Float64:
			data[i] = float32(math.Float64frombits(binary.BigEndian.Uint64(rest[off:])))
		case Int32:
			data[i] = float32(int32(binary.BigEndian.Uint32(rest[off:])))
		case Int64:
			data[i] = float32(int64(binary.BigEndian.Uint64(rest[off:])))
		}
		off += elemSize
	}

	return &Payload{
		Data:       data,
		Dimensions: dims,
		Count:      count,
		DataType:   dataType,
		Metadata:   meta,
	}, nil
}
