package constants

// TemplateStatuses holds the allowed lifecycle states for a template.
var TemplateStatuses = []string{"DRAFT", "ACTIVE", "ARCHIVED"}

const (
	TemplateDraft    = "DRAFT"
	TemplateActive   = "ACTIVE"
	TemplateArchived = "ARCHIVED"
)

// Extraction methods recorded on a template.
const (
	MethodManual    = "MANUAL"
	MethodGenerated = "AI_GENERATED"
)
