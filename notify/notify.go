// Package notify carries user-visible pipeline signals to whatever surface
// hosts the exporter. The pipeline emits progress, success, warning and
// failure; presentation is the collaborator's concern.
package notify

// Notifier receives user-visible export signals. Implementations must be safe
// to call from a single export at a time; the pipeline never emits
// concurrently within one call.
type Notifier interface {
	Progress(msg string)
	Success(msg string)
	Warning(msg string)
	Failure(msg string)
}

// Discard is a Notifier that drops every signal, for library embedding and
// tests.
type Discard struct{}

func (Discard) Progress(string) {}
func (Discard) Success(string)  {}
func (Discard) Warning(string)  {}
func (Discard) Failure(string)  {}
