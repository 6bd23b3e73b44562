package config

const (
	// TopicFetchTask carries fetch work items submitted by the orchestrator.
	TopicFetchTask = "fetch.task"

	// TopicFetchResult carries successful fetch outcomes.
	TopicFetchResult = "fetch.result"

	// TopicNormalizeTask carries normalization work derived from fetch results.
	TopicNormalizeTask = "normalize.task"

	// TopicRecordEmbed carries embedding requests for persisted records.
	TopicRecordEmbed = "record.embed"

	// TopicDeadLetter receives tasks that exhausted their retry budget.
	TopicDeadLetter = "task.deadletter"
)

// Channel names; one channel per consumer group.
const (
	ChannelFetchWorkers     = "fetch-workers"
	ChannelResultRouter     = "result-router"
	ChannelNormalizeWorkers = "normalize-workers"
	ChannelEmbedWorkers     = "embed-workers"
)

// Topics lists every topic the service publishes or consumes, in the order
// they are pre-created at bootstrap.
func Topics() []string {
	return []string{
		TopicFetchTask,
		TopicFetchResult,
		TopicNormalizeTask,
		TopicRecordEmbed,
		TopicDeadLetter,
	}
}
