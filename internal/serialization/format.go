package serialization

import "time"

// Format constants.
const (
	MagicBytes      = "SRGN"
	FormatVersion   = 1
	HeaderAlignment = 64              // Align tensor data to 64 bytes
	MaxHeaderSize   = 8 * 1024 * 1024 // Reject absurd header sizes before allocating
)

// Header is the JSON header of a .srgn file.
type Header struct {
	FormatVersion  int               `json:"format_version"`
	CreatedAt      time.Time         `json:"created_at"`
	Tensors        []TensorMeta      `json:"tensors"`
	Metadata       map[string]string `json:"metadata,omitempty"`
	CheckpointMeta *CheckpointMeta   `json:"checkpoint,omitempty"`
}

// CheckpointMeta carries training state so a run can resume.
type CheckpointMeta struct {
	Epoch             int     `json:"epoch"`              // Last completed epoch (zero-based)
	RunID             string  `json:"run_id"`             // Identifies the training run that wrote this file
	GeneratorLoss     float64 `json:"generator_loss"`     // Epoch-average perceptual loss
	ContentLoss       float64 `json:"content_loss"`       // Epoch-average content component
	AdversarialLoss   float64 `json:"adversarial_loss"`   // Epoch-average adversarial component
	DiscriminatorLoss float64 `json:"discriminator_loss"` // Epoch-average discriminator loss
}

// TensorMeta describes one tensor in the data section.
type TensorMeta struct {
	Name   string `json:"name"`   // e.g. "generator.0.weight"
	Shape  []int  `json:"shape"`  // Tensor shape
	Offset int64  `json:"offset"` // Bytes from the start of the data section
	Size   int64  `json:"size"`   // Size in bytes (4 per element)
}
