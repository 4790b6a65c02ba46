package kafka

// TopicPrefix namespaces every topic this system publishes to.
const TopicPrefix = "gigmarket"

// Topic builds "<prefix>.<domain>.<action>", e.g. gigmarket.order.created.
func Topic(domain, action string) string {
	return TopicPrefix + "." + domain + "." + action
}
