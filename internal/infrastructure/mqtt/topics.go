package mqtt

import (
	"fmt"
	"strings"
)

// DefaultTopicPrefix is used when the configuration leaves topic_prefix
// empty.
const DefaultTopicPrefix = "inventory"

// Topics builds the inventory's MQTT topics under a common prefix.
//
//	topics := mqtt.Topics{Prefix: "inventory"}
//	topics.EntityEvent("created", "pool", "p1")
//	// Returns: "inventory/entity/created/pool/p1"
type Topics struct {
	Prefix string
}

func (t Topics) prefix() string {
	if t.Prefix == "" {
		return DefaultTopicPrefix
	}
	return strings.TrimSuffix(t.Prefix, "/")
}

// EntityEvent returns the topic for one entity mutation.
//
// Example: inventory/entity/inserted/basicserver/s1
func (t Topics) EntityEvent(action, driver, name string) string {
	return fmt.Sprintf("%s/entity/%s/%s/%s", t.prefix(), action, driver, name)
}

// AllEntityEvents matches every entity mutation.
//
// Pattern: inventory/entity/+/+/+
func (t Topics) AllEntityEvents() string {
	return t.prefix() + "/entity/+/+/+"
}

// EntityEventsFor matches one action across all drivers.
//
// Pattern: inventory/entity/deleted/+/+
func (t Topics) EntityEventsFor(action string) string {
	return fmt.Sprintf("%s/entity/%s/+/+", t.prefix(), action)
}

// SystemStatus returns the retained online/offline status topic.
//
// Example: inventory/system/status
func (t Topics) SystemStatus() string {
	return t.prefix() + "/system/status"
}

// AllTopics matches everything the service publishes.
//
// Pattern: inventory/#
func (t Topics) AllTopics() string {
	return t.prefix() + "/#"
}

// validatePublishTopic rejects empty topics and wildcard characters, which
// are only legal in subscriptions. Entity names are user input and end up
// in topic segments.
func validatePublishTopic(topic string) error {
	if topic == "" {
		return fmt.Errorf("%w: empty", ErrInvalidTopic)
	}
	if strings.ContainsAny(topic, "+#\x00") {
		return fmt.Errorf("%w: %q contains wildcard or NUL", ErrInvalidTopic, topic)
	}
	return nil
}
