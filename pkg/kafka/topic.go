package kafka

// TopicPrefix namespaces every topic published by the platform.
const TopicPrefix = "ecommerce"

// Topic returns the topic name for an action on a domain, for example
// "ecommerce.wishlist.item_added".
func Topic(domain, action string) string {
	return TopicPrefix + "." + domain + "." + action
}
