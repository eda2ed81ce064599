// Package notice is the transient notification channel shared by every
// component that reports to the user.
package notice

import "fmt"

// Severity classifies a notice.
type Severity int

// Severities.
const (
	Info Severity = iota
	Success
	Error
)

// String returns the severity name.
func (s Severity) String() string {
	switch s {
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "info"
	}
}

// MarshalText encodes the severity by name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Notice is a short message shown to the user and then dismissed.
type Notice struct {
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Notifier receives notices. Implementations must not block.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to a Notifier.
type NotifierFunc func(Notice)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notice) {
	f(n)
}

// Discard drops every notice.
var Discard Notifier = NotifierFunc(func(Notice) {})

// Recorder collects notices in order. It is meant for tests and for
// command output that is printed after the fact.
type Recorder struct {
	Notices []Notice
}

// Notify appends n.
func (r *Recorder) Notify(n Notice) {
	r.Notices = append(r.Notices, n)
}

// Last returns the most recent notice, or the zero Notice.
func (r *Recorder) Last() Notice {
	if len(r.Notices) == 0 {
		return Notice{}
	}
	return r.Notices[len(r.Notices)-1]
}

// Messages returns the recorded messages in order.
func (r *Recorder) Messages() []string {
	out := make([]string, len(r.Notices))
	for i, n := range r.Notices {
		out[i] = n.Message
	}
	return out
}

// New builds a notice with a message used as is.
func New(sev Severity, message string) Notice {
	return Notice{Message: message, Severity: sev}
}

// Of builds a notice with a formatted message.
func Of(sev Severity, format string, args ...any) Notice {
	if len(args) == 0 {
		return Notice{Message: format, Severity: sev}
	}
	return Notice{Message: fmt.Sprintf(format, args...), Severity: sev}
}
