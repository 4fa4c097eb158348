package service

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	apperrors "seabot/internal/common/errors"
	"seabot/internal/common/metrics"

	"github.com/rs/zerolog"
)

// FailureNotice is the single reply sent when a handler fails or times out.
const FailureNotice = "❌ An error occurred while running the command. Please try again later."

type Dispatcher struct {
	timeout time.Duration
	log     zerolog.Logger
}

func NewDispatcher(timeout time.Duration, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{timeout: timeout, log: log}
}

// Dispatch runs h under the configured timeout. Handler errors and panics
// are logged and answered with FailureNotice; the returned AppError tells
// the caller the command did not succeed. A handler that overruns is left
// running with a context that is not cancelled by the timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, h Handler, req *Request) error {
	log := d.log.With().
		Str("command", req.Name).
		Str("chat", req.Message.Chat).
		Str("sender", req.Message.Sender).
		Logger()
	req.Log = log

	done := make(chan error, 1)
	handlerCtx := context.WithoutCancel(ctx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Error().Str("stack", string(debug.Stack())).Msgf("Command handler panicked: %v", r)
				done <- fmt.Errorf("panic: %v", r)
			}
		}()
		done <- h.Handle(handlerCtx, req)
	}()

	timer := time.NewTimer(d.timeout)
	defer timer.Stop()

	var result error
	select {
	case err := <-done:
		if err == nil {
			metrics.CommandsTotal.WithLabelValues(req.Name, "ok").Inc()
			metrics.CommandDuration.WithLabelValues(req.Name).Observe(time.Since(req.Start).Seconds())
			log.Info().Dur("duration", time.Since(req.Start)).Msg("Command completed")
			return nil
		}
		result = apperrors.NewHandlerError(req.Name, err)
		metrics.CommandsTotal.WithLabelValues(req.Name, "error").Inc()
		log.Error().Err(err).Strs("args", req.Args).Msg("Command handler failed")
	case <-timer.C:
		result = apperrors.NewHandlerTimeoutError(req.Name, d.timeout)
		metrics.CommandsTotal.WithLabelValues(req.Name, "timeout").Inc()
		log.Warn().
			Str("code", string(apperrors.ErrCodeHandlerTimeout)).
			Dur("timeout", d.timeout).
			Msg("Command handler timed out")
	case <-ctx.Done():
		return ctx.Err()
	}

	if _, err := req.Reply(ctx, FailureNotice); err != nil {
		log.Error().Err(err).Msg("Failed to send failure notice")
	}
	return result
}
