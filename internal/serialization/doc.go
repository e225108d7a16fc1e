// Package serialization implements the .srgn binary format for model
// weights and training checkpoints.
//
// File layout:
//
//	[0x00] magic bytes "SRGN" (4 bytes)
//	[0x04] format version, uint32 little-endian
//	[0x08] header size, uint64 little-endian
//	[0x10] JSON header (Header struct)
//	[....] padding to 64-byte alignment
//	[....] tensor data, float32 little-endian, in header order
//
// The JSON header carries tensor metadata (name, shape, offset, size)
// plus optional checkpoint metadata (epoch, run ID, epoch losses) so a
// training run can resume from where it left off.
package serialization
