package constants

// Table identification tuning. A table is assigned to an entity only when the
// fraction of signature tokens found in its header row reaches
// TableMatchThreshold; a matching anchor text in the nearest preceding block
// adds AnchorBonus before the threshold check.
const (
	TableMatchThreshold = 0.5
	AnchorBonus         = 0.25
)

// Position resolver: a text block counts as inside the rule's bounding box
// when at least this fraction of the block's own area overlaps it.
const MinBoxOverlap = 0.5

// Rule generation prompt caps.
const (
	PromptMaxTableRows = 20
	PromptMaxTextLines = 60
	PromptMaxLineLen   = 200
)

// Correction merge: confidence never decays below this floor.
const ConfidenceFloor = 0.1
