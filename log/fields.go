package log

const (
	NamespaceKey = "waitpoint"

	JobIDKey = NamespaceKey + ".job.id"

	AttemptIDKey = NamespaceKey + ".resume.attempt_id"
	StateKey     = NamespaceKey + ".resume.state"

	EventIDKey     = NamespaceKey + ".event.id"
	EventSourceKey = NamespaceKey + ".event.source"
	EventTypeKey   = NamespaceKey + ".event.type"

	ErrorKey = NamespaceKey + ".error"
	PanicKey = NamespaceKey + ".panic"
	StackKey = NamespaceKey + ".stack"

	// ManualCleanupKey marks log entries for records that could not be
	// removed after a successful resume signal.
	ManualCleanupKey = NamespaceKey + ".manual_cleanup"
)
