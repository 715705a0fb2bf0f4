package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/veil-ml/veil/internal/tensor"
)

// ReadFile reads a .veil file and returns its header and state dictionary.
// All tensors are materialized on the CPU device.
func ReadFile(path string) (Header, map[string]*tensor.RawTensor, error) {
	file, err := os.Open(path)
	if err != nil {
		return Header{}, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()
	return Read(file)
}

// Read reads a .veil stream. The data-section checksum is verified before
// any tensor is returned.
func Read(r io.Reader) (Header, map[string]*tensor.RawTensor, error) {
	fixed := make([]byte, FixedHeaderSize)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return Header{}, nil, fmt.Errorf("failed to read fixed header: %w", err)
	}
	if string(fixed[0:4]) != MagicBytes {
		return Header{}, nil, fmt.Errorf("not a veil file: bad magic %q", fixed[0:4])
	}
	if version := binary.LittleEndian.Uint32(fixed[4:8]); version != FormatVersion {
		return Header{}, nil, fmt.Errorf("unsupported format version %d", version)
	}
	headerSize := binary.LittleEndian.Uint64(fixed[16:24])
	dataSize := binary.LittleEndian.Uint64(fixed[24:32])
	checksum := binary.LittleEndian.Uint32(fixed[ChecksumOffset : ChecksumOffset+4])
	if headerSize > MaxHeaderSize {
		return Header{}, nil, fmt.Errorf("header size %d exceeds limit %d", headerSize, MaxHeaderSize)
	}
	if dataSize > MaxDataSize {
		return Header{}, nil, fmt.Errorf("data size %d exceeds limit %d", dataSize, MaxDataSize)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return Header{}, nil, fmt.Errorf("failed to read header: %w", err)
	}
	var header Header
	if err := json.Unmarshal(headerJSON, &header); err != nil {
		return Header{}, nil, fmt.Errorf("failed to parse header: %w", err)
	}

	pos := int64(FixedHeaderSize) + int64(headerSize)
	if padding := (HeaderAlignment - pos%HeaderAlignment) % HeaderAlignment; padding > 0 {
		if _, err := io.CopyN(io.Discard, r, padding); err != nil {
			return Header{}, nil, fmt.Errorf("failed to skip padding: %w", err)
		}
	}

	data := make([]byte, dataSize)
	if _, err := io.ReadFull(r, data); err != nil {
		return Header{}, nil, fmt.Errorf("failed to read tensor data: %w", err)
	}
	if got := crc32.ChecksumIEEE(data); got != checksum {
		return Header{}, nil, fmt.Errorf("checksum mismatch: header %08x, data %08x", checksum, got)
	}

	stateDict := make(map[string]*tensor.RawTensor, len(header.Tensors))
	for _, meta := range header.Tensors {
		dtype, ok := stringToDtype(meta.DType)
		if !ok {
			return Header{}, nil, fmt.Errorf("tensor %s: unknown dtype %q", meta.Name, meta.DType)
		}
		shape := tensor.Shape(meta.Shape)
		raw, err := tensor.NewRaw(shape, dtype, tensor.CPU)
		if err != nil {
			return Header{}, nil, fmt.Errorf("tensor %s: %w", meta.Name, err)
		}
		want := int64(raw.ByteSize())
		if meta.Size != want {
			return Header{}, nil, fmt.Errorf("tensor %s: size %d does not match shape %v (%d bytes)",
				meta.Name, meta.Size, shape, want)
		}
		if meta.Offset < 0 || meta.Offset+meta.Size > int64(len(data)) {
			return Header{}, nil, fmt.Errorf("tensor %s: data range [%d, %d) outside section of %d bytes",
				meta.Name, meta.Offset, meta.Offset+meta.Size, len(data))
		}
		copy(raw.Data(), data[meta.Offset:meta.Offset+meta.Size])
		stateDict[meta.Name] = raw
	}
	return header, stateDict, nil
}
