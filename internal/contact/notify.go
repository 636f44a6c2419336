package contact

// Kind is the flavour of a toast shown to the visitor.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notification is a transient toast.
type Notification struct {
	Kind        Kind   `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Notifier surfaces notifications to the visitor.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(n Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

var (
	notifySpam = Notification{Kind: KindSuccess, Title: "Message sent!"}
	notifySent = Notification{
		Kind:        KindSuccess,
		Title:       "Message sent! I'll get back to you soon.",
		Description: "Thank you for reaching out!",
	}
	notifyFailed = Notification{
		Kind:        KindError,
		Title:       "Failed to send message",
		Description: "Please try again or contact me directly via email.",
	}
)
