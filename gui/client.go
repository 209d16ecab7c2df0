package gui

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/exp/slog"

	"github.com/lessflake/kavi/editor"
	"github.com/lessflake/kavi/window"
)

// Renderer draws the text, render.Render in the application
type Renderer interface {
	DrawFrame(text string) error
	Resize(width, height uint32) error
}

// Window is what the client asks of the window, *window.Window in the application
type Window interface {
	Close()
	ToggleFullscreen()
}

// Client owns the renderer and talks to the editor for a window. All of its
// methods run on the goroutine calling Run.
type Client struct {
	window   Window
	renderer Renderer
	logger   *slog.Logger

	input Input
	text  string

	tx chan<- editor.ClientMessage
	rx <-chan editor.ServerMessage
}

func NewClient(w Window, r Renderer, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{window: w, renderer: r, logger: logger}
}

// Run draws a first frame, then handles window events and editor replies
// until the window quits, a key closes it or a frame fails to draw. It always
// ends by sending the editor Shutdown and closing the window.
func (c *Client) Run(ctx context.Context, events <-chan window.Event, tx chan<- editor.ClientMessage, rx <-chan editor.ServerMessage) error {
	c.tx, c.rx = tx, rx
	defer c.window.Close()
	defer c.shutdown(ctx)

	err := c.renderer.DrawFrame(c.text)
	if err != nil {
		return errors.Wrap(err, "drawing first frame")
	}

	for {
		var quit bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-c.rx:
			if !ok {
				c.rx = nil
				continue
			}
			err = c.handleServerMessage(msg)
		case e, ok := <-events:
			if !ok {
				return nil
			}
			quit, err = c.handleEvent(ctx, e)
		}
		if err != nil {
			return err
		}
		if quit {
			return nil
		}
	}
}

func (c *Client) handleServerMessage(msg editor.ServerMessage) error {
	switch msg := msg.(type) {
	case editor.TextChanged:
		c.text = msg.Text
		return c.renderer.DrawFrame(c.text)
	}
	return nil
}

func (c *Client) handleEvent(ctx context.Context, e window.Event) (bool, error) {
	switch e := e.(type) {
	case window.Quit:
		return true, nil
	case window.ResizeEvent:
		defer close(e.Ack)
		err := c.renderer.Resize(e.Width, e.Height)
		if err != nil {
			return false, err
		}
		return false, c.renderer.DrawFrame(c.text)
	case window.KeyEvent:
		return c.handleKey(ctx, e)
	}
	return false, nil
}

func (c *Client) handleKey(ctx context.Context, e window.KeyEvent) (bool, error) {
	mode := c.input.Mode()
	cmd, action := c.input.Handle(e)
	if m := c.input.Mode(); m != mode {
		c.logger.Debug("mode changed", slog.String("mode", m.String()))
	}

	switch action {
	case ActionClose:
		return true, nil
	case ActionToggleFullscreen:
		c.window.ToggleFullscreen()
	}

	if cmd == nil {
		return false, nil
	}
	return false, c.send(ctx, editor.CommandMessage{Command: cmd})
}

// send hands msg to the editor, drawing whatever it replies meanwhile so
// neither side blocks on the other
func (c *Client) send(ctx context.Context, msg editor.ClientMessage) error {
	for {
		select {
		case c.tx <- msg:
			return nil
		case reply, ok := <-c.rx:
			if !ok {
				c.rx = nil
				continue
			}
			err := c.handleServerMessage(reply)
			if err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) shutdown(ctx context.Context) {
	for {
		select {
		case c.tx <- editor.Shutdown{}:
			return
		case _, ok := <-c.rx:
			if !ok {
				c.rx = nil
			}
		case <-ctx.Done():
			return
		}
	}
}
