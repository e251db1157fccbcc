package live

import (
	"io"
	"os"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"reqtester/internal/session"
)

// Controller runs the live UI and implements session.Observer.
type Controller struct {
	mu      sync.Mutex
	closed  bool
	events  chan Event
	program *tea.Program
	done    chan struct{}
}

// Start launches a live UI controller that writes to stdout.
func Start(stdout io.Writer, opts Options) *Controller {
	if stdout == nil {
		stdout = os.Stdout
	}
	events := make(chan Event, 256)
	model := NewModel(events, opts)
	program := tea.NewProgram(model, tea.WithOutput(stdout), tea.WithAltScreen())
	controller := &Controller{
		events:  events,
		program: program,
		done:    make(chan struct{}),
	}
	go func() {
		_, _ = program.Run()
		close(controller.done)
	}()
	return controller
}

// Done is closed once the UI has exited, including when the user quits.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// Close signals the UI to stop once queued events are drawn.
func (c *Controller) Close() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.events)
}

// Wait blocks until the UI has exited.
func (c *Controller) Wait() {
	if c == nil {
		return
	}
	<-c.done
}

// OnStart shows the request being run.
func (c *Controller) OnStart(model string, count int) {
	c.send(Event{Kind: EventStart, Model: model, Count: count}, false)
}

// Publish forwards a controller snapshot. Terminal snapshots are delivered
// even when the queue is full; intermediate ones may be dropped.
func (c *Controller) Publish(view session.View) {
	c.send(Event{Kind: EventView, View: view}, view.Phase.Terminal())
}

// Finish sends the end marker and closes the UI event stream.
func (c *Controller) Finish() {
	c.send(Event{Kind: EventEnd}, true)
	c.Close()
}

func (c *Controller) send(event Event, mustDeliver bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if !mustDeliver {
		select {
		case c.events <- event:
		default:
		}
		return
	}
	select {
	case c.events <- event:
	case <-c.done:
	}
}

var _ session.Observer = (*Controller)(nil)
