package metrickeys

const (
	Prefix = "waitpoint."

	// Suspend
	SuspendRegistered = Prefix + "suspend.registered"
	SuspendRejected   = Prefix + "suspend.rejected"

	// Resume
	ResumeCompleted      = Prefix + "resume.completed"
	ResumeSkipped        = Prefix + "resume.skipped"
	ResumeSignalRejected = Prefix + "resume.signal_rejected"
	ResumeCleanupFailed  = Prefix + "resume.cleanup_failed"
	ResumeDuration       = Prefix + "resume.duration"

	// Listener
	EventsMatched   = Prefix + "listener.events.matched"
	EventsDropped   = Prefix + "listener.events.dropped"
	SuppressionHits = Prefix + "listener.suppression.hits"
)
