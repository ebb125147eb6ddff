package provisioning

import (
	"fmt"
	"strings"
	"sync"
)

// RecordingObserver keeps every message in memory. It backs tests of the
// provisioning subpackages.
type RecordingObserver struct {
	mu       sync.Mutex
	messages []string
	events   []Event
	fields   map[string]string
}

// NewRecordingObserver creates an empty RecordingObserver.
func NewRecordingObserver() *RecordingObserver {
	return &RecordingObserver{}
}

func (r *RecordingObserver) Printf(format string, v ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, fmt.Sprintf(format, v...))
}

func (r *RecordingObserver) Debugf(format string, v ...any) {
	r.Printf("[debug] "+format, v...)
}

func (r *RecordingObserver) Event(event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	r.messages = append(r.messages, FormatEvent(event))
}

func (r *RecordingObserver) Progress(phase string, current, total int) {
	r.Printf("[%s] Progress: %d/%d", phase, current, total)
}

// WithFields returns r itself; fields are recorded but not applied.
func (r *RecordingObserver) WithFields(fields map[string]string) Observer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fields == nil {
		r.fields = make(map[string]string)
	}
	for k, v := range fields {
		r.fields[k] = v
	}
	return r
}

// Messages returns every logged line.
func (r *RecordingObserver) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

// Events returns every structured event.
func (r *RecordingObserver) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Warnings returns the messages of EventWarning events.
func (r *RecordingObserver) Warnings() []string {
	var out []string
	for _, e := range r.Events() {
		if e.Type == EventWarning {
			out = append(out, e.Message)
		}
	}
	return out
}

// Contains reports whether any logged line contains substr.
func (r *RecordingObserver) Contains(substr string) bool {
	for _, m := range r.Messages() {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}
