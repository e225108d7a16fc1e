package serialization

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/wangw123nbbbb/Intelligent-RS/internal/tensor"
)

// Read deserializes a state dictionary from r.
//
// Returns ErrInvalidMagic, ErrUnsupportedVersion, ErrHeaderTooLarge or
// ErrTruncated (all wrapped) for malformed input.
func Read(r io.Reader, device tensor.Device) (map[string]*tensor.RawTensor, Header, error) {
	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read magic bytes: %w", truncated(err))
	}
	if string(magic) != MagicBytes {
		return nil, Header{}, fmt.Errorf("%w: got %q", ErrInvalidMagic, string(magic))
	}

	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read version: %w", truncated(err))
	}
	if version != FormatVersion {
		return nil, Header{}, fmt.Errorf("%w: got %d, expected %d", ErrUnsupportedVersion, version, FormatVersion)
	}

	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read header size: %w", truncated(err))
	}
	if headerSize > MaxHeaderSize {
		return nil, Header{}, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerBytes := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBytes); err != nil {
		return nil, Header{}, fmt.Errorf("failed to read header: %w", truncated(err))
	}

	var header Header
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, Header{}, fmt.Errorf("failed to parse header JSON: %w", err)
	}

	currentPos := int64(4+4+8) + int64(headerSize)
	padding := (HeaderAlignment - (currentPos % HeaderAlignment)) % HeaderAlignment
	if padding > 0 {
		if _, err := io.ReadFull(r, make([]byte, padding)); err != nil {
			return nil, Header{}, fmt.Errorf("failed to read padding: %w", truncated(err))
		}
	}

	stateDict := make(map[string]*tensor.RawTensor, len(header.Tensors))
	for _, meta := range header.Tensors {
		shape := tensor.Shape(meta.Shape)
		if err := shape.Validate(); err != nil {
			return nil, Header{}, fmt.Errorf("invalid shape for tensor %s: %w", meta.Name, err)
		}
		if meta.Size != int64(shape.NumElements()*4) {
			return nil, Header{}, fmt.Errorf("tensor %s: size %d does not match shape %v", meta.Name, meta.Size, shape)
		}

		raw, err := tensor.NewRaw(shape, device)
		if err != nil {
			return nil, Header{}, fmt.Errorf("failed to create tensor %s: %w", meta.Name, err)
		}
		if err := binary.Read(r, binary.LittleEndian, raw.Float32()); err != nil {
			return nil, Header{}, fmt.Errorf("failed to read tensor %s: %w", meta.Name, truncated(err))
		}

		stateDict[meta.Name] = raw
	}

	return stateDict, header, nil
}

// ReadFile deserializes a state dictionary from path.
func ReadFile(path string, device tensor.Device) (map[string]*tensor.RawTensor, Header, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, Header{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Read(file, device)
}

// truncated maps short-read errors onto ErrTruncated so callers can
// distinguish a cut-off file from other I/O failures.
func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return err
}
