package engine

// Notifier shows a blocking message to the user.
type Notifier interface {
	Notify(message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

func (f NotifierFunc) Notify(message string) { f(message) }

// Messages shown to the user.
const (
	msgInvalidNumbers = "Please enter valid numbers."
	msgInvalidFile    = "Error loading file. Please make sure it is a valid JSON file."
)

type logNotifier struct{}

func (logNotifier) Notify(message string) {
	Logger().Info("notice", "message", message)
}

func (e *Engine) notify(message string) {
	e.notifier.Notify(message)
}
