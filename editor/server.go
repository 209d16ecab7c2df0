package editor

import (
	"context"
	"fmt"

	"golang.org/x/exp/slog"
)

// Server applies the commands of one client to a Buffer
type Server struct {
	Buffer *Buffer
	logger *slog.Logger
}

func NewServer(buffer *Buffer, logger *slog.Logger) *Server {
	if buffer == nil {
		buffer = NewBuffer("")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{Buffer: buffer, logger: logger}
}

// Run handles messages from in until Shutdown, in closing or ctx ending.
// Every command changing the text is answered with a TextChanged on out.
// A failing command is logged and does not stop the server.
func (s *Server) Run(ctx context.Context, in <-chan ClientMessage, out chan<- ServerMessage) error {
	for {
		var msg ClientMessage
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok = <-in:
			if !ok {
				return nil
			}
		}

		switch msg := msg.(type) {
		case Shutdown:
			s.logger.Debug("client shut down")
			return nil
		case CommandMessage:
			changed, err := s.Buffer.Apply(msg.Command)
			if err != nil {
				s.logger.Error("command failed",
					slog.String("command", fmt.Sprintf("%T", msg.Command)),
					slog.Any("error", err))
			}
			if !changed {
				continue
			}
			select {
			case out <- TextChanged{Text: s.Buffer.String()}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
