package model

// StreamFrame is one push on a live job stream. Exactly one field group is
// set: Ready on subscription, Delta for incremental output, and one of
// Done/Error/Cancelled as the single terminal frame before the stream closes.
type StreamFrame struct {
	Ready     bool   `json:"ready,omitempty"`
	Delta     string `json:"delta,omitempty"`
	Done      bool   `json:"done,omitempty"`
	Error     string `json:"error,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`
}

// Terminal reports whether the frame ends the stream.
func (f StreamFrame) Terminal() bool {
	return f.Done || f.Error != "" || f.Cancelled
}

// TerminalFrame builds the closing frame for a job that reached the given
// terminal status.
func TerminalFrame(j *Job) StreamFrame {
	switch j.Status {
	case JobStatusError:
		return StreamFrame{Error: j.Error}
	case JobStatusCancelled:
		return StreamFrame{Cancelled: true}
	default:
		return StreamFrame{Done: true}
	}
}
