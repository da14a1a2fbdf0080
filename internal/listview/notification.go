package listview

import "sync"

// FetchFailureMessage is shown whenever the query API call fails.
const FetchFailureMessage = "There has been an error loading from the API."

// Notifier holds the snackbar message, if any.
type Notifier struct {
	mu      sync.RWMutex
	message *string
}

// NewNotifier returns a notifier with nothing shown.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Show displays msg, replacing any current message.
func (n *Notifier) Show(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.message = &msg
}

// Dismiss hides the current message.
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.message = nil
}

// Message returns the current message, or nil when none is shown.
func (n *Notifier) Message() *string {
	n.mu.RLock()
	defer n.mu.RUnlock()
	if n.message == nil {
		return nil
	}
	msg := *n.message
	return &msg
}
