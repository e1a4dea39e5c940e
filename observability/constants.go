package observability

// Metric name prefixes
const (
	MetricPrefix = "gamenight"
)

// Metric names
const (
	// Resolver metrics
	IdentityResolutionsTotal = MetricPrefix + ".identity.resolutions_total"

	// Webhook metrics
	WebhookEventsTotal = MetricPrefix + ".webhook.events_total"

	// Consolidation metrics
	ConsolidationDuplicatesTotal = MetricPrefix + ".consolidation.duplicates_total"
	ConsolidationAmbiguousTotal  = MetricPrefix + ".consolidation.ambiguous_groups_total"

	// Side channel metrics
	AnnouncementsTotal         = MetricPrefix + ".announcements_total"
	NATSMessagesPublishedTotal = MetricPrefix + ".nats.messages_published_total"
)

// Label keys
const (
	LabelOutcome   = "outcome"
	LabelEventType = "event_type"
	LabelDryRun    = "dry_run"
)

// Resolution outcomes
const (
	OutcomeFound    = "found"
	OutcomeCreated  = "created"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

// Webhook and side channel outcomes
const (
	OutcomeApplied  = "applied"
	OutcomeIgnored  = "ignored"
	OutcomeRejected = "rejected"
	OutcomeMerged   = "merged"
	OutcomeFailed   = "failed"
	OutcomeSent     = "sent"
)
