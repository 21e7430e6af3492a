package enums

import "fmt"

// BlockType records who or what initiated an order block.
type BlockType string

const (
	BlockTypeManual    BlockType = "manual"
	BlockTypeAutomatic BlockType = "automatic"
	BlockTypeScheduled BlockType = "scheduled"
)

var validBlockTypes = []BlockType{
	BlockTypeManual,
	BlockTypeAutomatic,
	BlockTypeScheduled,
}

// IsValid reports whether the value matches the canonical block type enum.
func (t BlockType) IsValid() bool {
	for _, candidate := range validBlockTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseBlockType converts raw input into a BlockType.
func ParseBlockType(value string) (BlockType, error) {
	for _, candidate := range validBlockTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid block type %q", value)
}

// BlockReason classifies why orders were blocked. The custom variant carries
// free text in the block's notes field.
type BlockReason string

const (
	BlockReasonOutOfStock    BlockReason = "out_of_stock"
	BlockReasonLowStock      BlockReason = "low_stock"
	BlockReasonMaintenance   BlockReason = "maintenance"
	BlockReasonQualityIssue  BlockReason = "quality_issue"
	BlockReasonSupplierDelay BlockReason = "supplier_delay"
	BlockReasonCustom        BlockReason = "custom"
)

var validBlockReasons = []BlockReason{
	BlockReasonOutOfStock,
	BlockReasonLowStock,
	BlockReasonMaintenance,
	BlockReasonQualityIssue,
	BlockReasonSupplierDelay,
	BlockReasonCustom,
}

// IsValid reports whether the value matches the canonical block reason enum.
func (r BlockReason) IsValid() bool {
	for _, candidate := range validBlockReasons {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseBlockReason converts raw input into a BlockReason.
func ParseBlockReason(value string) (BlockReason, error) {
	for _, candidate := range validBlockReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid block reason %q", value)
}

// Label renders the human-readable text shown to buyers when orders are
// rejected because of this reason.
func (r BlockReason) Label() string {
	switch r {
	case BlockReasonOutOfStock:
		return "Out of stock"
	case BlockReasonLowStock:
		return "Low stock"
	case BlockReasonMaintenance:
		return "Maintenance"
	case BlockReasonQualityIssue:
		return "Quality issue"
	case BlockReasonSupplierDelay:
		return "Supplier delay"
	default:
		return string(r)
	}
}
