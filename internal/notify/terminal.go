package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
)

// TerminalChannel writes notifications to a terminal writer. Used when
// no remote channel is configured so trade events stay visible.
type TerminalChannel struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTerminalChannel creates a terminal channel writing to stdout.
func NewTerminalChannel() *TerminalChannel {
	return &TerminalChannel{out: os.Stdout}
}

// NewTerminalChannelWithWriter creates a terminal channel with a custom
// writer. Used by tests.
func NewTerminalChannelWithWriter(w io.Writer) *TerminalChannel {
	return &TerminalChannel{out: w}
}

// Name returns the name of the channel.
func (t *TerminalChannel) Name() string {
	return "terminal"
}

// IsEnabled always returns true; the terminal is always available.
func (t *TerminalChannel) IsEnabled() bool {
	return true
}

// Send writes the notification to the terminal.
func (t *TerminalChannel) Send(_ context.Context, n Notification) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, err := fmt.Fprintf(t.out, "[%s] %s\n%s\n\n",
		n.Timestamp.Format("15:04:05"), n.Title, n.Message)
	return err
}
