package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldRunID     = "run_id"
	FieldThreadID  = "thread_id"
	FieldMessageID = "message_id"
	FieldProvider  = "provider"
	FieldPartition = "partition"
	FieldRow       = "row"
	FieldCount     = "count"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
	FieldOperation = "operation"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentClassify  = "classify"
	ComponentAggregate = "aggregate"
	ComponentLedger    = "ledger"
	ComponentSplit     = "split"
	ComponentMail      = "mail"
	ComponentAudit     = "audit"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpClassify   = "classify"
	OpAggregate  = "aggregate"
	OpPlace      = "place"
	OpSplit      = "split"
	OpEnsure     = "ensure_partitions"
	OpMark       = "mark_processed"
	OpStartup    = "startup"
	OpShutdown   = "shutdown"
)
