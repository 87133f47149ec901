package bus

// PublishOptions controls how traffic records are published.
type PublishOptions struct {
	TopicOverride string
	Key           string
	Headers       map[string]string
}
