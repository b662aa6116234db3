package errorsx

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonLLMGenerate  ReasonCode = "llm_generate"
	ReasonLLMStream    ReasonCode = "llm_stream"
	ReasonLLMRateLimit ReasonCode = "llm_rate_limit"

	ReasonToolUnknown  ReasonCode = "tool_unknown"
	ReasonToolArgs     ReasonCode = "tool_args"
	ReasonToolDispatch ReasonCode = "tool_dispatch"

	ReasonStoreRead       ReasonCode = "store_read"
	ReasonStoreWrite      ReasonCode = "store_write"
	ReasonRecordNotFound  ReasonCode = "record_not_found"
	ReasonDuplicateRecord ReasonCode = "duplicate_record"

	ReasonConfig        ReasonCode = "config"
	ReasonTransportSend ReasonCode = "transport_send"
)
