package model

// Message is one outbound payload. Exactly one of Content or Alert is set.
type Message struct {
	Content string // plain digest text, already sized for the channel
	Alert   *Alert // structured single-job alert
}

// Alert is a rich single-job notification. Sinks render it natively
// (Discord embed, Slack blocks) or as text.
type Alert struct {
	Title       string
	URL         string
	Description string
	Footer      string
}

// Text renders the message as plain text for sinks without rich formatting.
func (m Message) Text() string {
	if m.Alert == nil {
		return m.Content
	}
	s := m.Alert.Title + "\n" + m.Alert.Description
	if m.Alert.URL != "" {
		s += "\n" + m.Alert.URL
	}
	if m.Alert.Footer != "" {
		s += "\n" + m.Alert.Footer
	}
	return s
}
