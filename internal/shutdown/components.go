package shutdown

import (
	"context"
	"io"
)

// Shutdowner is anything with a context-aware Shutdown, such as
// *http.Server or *api.Server.
type Shutdowner interface {
	Shutdown(ctx context.Context) error
}

// ServerComponent wraps a Shutdowner. Shutting it down stops new
// connections and waits for in-flight requests.
type ServerComponent struct {
	name   string
	server Shutdowner
}

// NewServerComponent creates a new server shutdown component.
func NewServerComponent(name string, server Shutdowner) *ServerComponent {
	return &ServerComponent{
		name:   name,
		server: server,
	}
}

// Name returns the component name.
func (c *ServerComponent) Name() string {
	return c.name
}

// Shutdown shuts the server down within ctx.
func (c *ServerComponent) Shutdown(ctx context.Context) error {
	return c.server.Shutdown(ctx)
}

// CloserComponent wraps an io.Closer such as the store.
type CloserComponent struct {
	name   string
	closer io.Closer
}

// NewCloserComponent creates a new closer shutdown component.
func NewCloserComponent(name string, closer io.Closer) *CloserComponent {
	return &CloserComponent{
		name:   name,
		closer: closer,
	}
}

// Name returns the component name.
func (c *CloserComponent) Name() string {
	return c.name
}

// Shutdown closes the underlying resource. Close is not context-aware, so
// it runs in a goroutine and ctx bounds the wait.
func (c *CloserComponent) Shutdown(ctx context.Context) error {
	done := make(chan error, 1)
	go func() { done <- c.closer.Close() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
