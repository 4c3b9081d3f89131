package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldItemID is the standardized structured logging key for queue item identifiers.
	FieldItemID = "item_id"
	// FieldEntityType is the standardized structured logging key for mutation entity types.
	FieldEntityType = "entity_type"
	// FieldEntityID is the standardized structured logging key for mutation entity identifiers.
	FieldEntityID = "entity_id"
	// FieldOperation is the standardized structured logging key for mutation operations.
	FieldOperation = "operation"
	// FieldAttempts is the standardized structured logging key for delivery attempt counts.
	FieldAttempts = "attempts"
	// FieldPassID is the standardized structured logging key for sync pass correlation identifiers.
	FieldPassID = "pass_id"
	// FieldEventType is the standardized structured logging key for machine-readable event names.
	FieldEventType = "event_type"
	// FieldErrorHint is the standardized structured logging key for operator next steps.
	FieldErrorHint = "error_hint"
	// FieldImpact is the standardized key for the user-facing consequence of a warning.
	FieldImpact = "impact"
)
