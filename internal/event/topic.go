package event

import "strings"

// Topic is a hierarchical, dot-separated event name.
type Topic string

// Topics published by this module.
const (
	TopicHistoryPushed  Topic = "history.pushed"
	TopicHistoryUndone  Topic = "history.undone"
	TopicHistoryRedone  Topic = "history.redone"
	TopicHistoryEvicted Topic = "history.evicted"
	TopicHistoryResized Topic = "history.resized"
	TopicHistoryCleared Topic = "history.cleared"
	TopicConfigReloaded Topic = "config.reloaded"
)

// Segments splits the topic on dots.
func (t Topic) Segments() []string {
	if t == "" {
		return nil
	}
	return strings.Split(string(t), ".")
}

// Valid reports whether t is non-empty and has no empty segments.
func (t Topic) Valid() bool {
	if t == "" {
		return false
	}
	for _, seg := range t.Segments() {
		if seg == "" {
			return false
		}
	}
	return true
}

// IsPattern reports whether t contains wildcards.
func (t Topic) IsPattern() bool {
	return strings.Contains(string(t), "*")
}

// Matches reports whether t satisfies pattern.
func (t Topic) Matches(pattern Topic) bool {
	return matchSegments(t.Segments(), pattern.Segments())
}

func matchSegments(topic, pattern []string) bool {
	for i, p := range pattern {
		if p == "**" {
			return true
		}
		if i >= len(topic) {
			return false
		}
		if p != "*" && p != topic[i] {
			return false
		}
	}
	return len(topic) == len(pattern)
}
