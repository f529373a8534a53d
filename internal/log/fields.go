package log

// Shared field names so the same concept logs under the same key everywhere.
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldEntryID     = "entry_id"
	FieldEntryName   = "entry_name"
	FieldAmountCents = "amount_cents"
	FieldSyncURL     = "sync_url"
)

// Component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentPersist = "persist"
	ComponentBackend = "backend"
)

// Operation names used with FieldOperation.
const (
	OpCreate = "create"
	OpRoll   = "roll"
	OpSync   = "sync"
	OpExport = "export"
	OpImport = "import"
)
