package errors

import (
	"context"
	stderrors "errors"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"

	"github.com/osudump/osudump/internal/core"
	"github.com/osudump/osudump/internal/core/engine"
	"github.com/osudump/osudump/internal/core/osuapi"
)

// Error codes used by the CLI.
const (
	CodeInvalidInput    = "INVALID_INPUT"
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeNotFound        = "NOT_FOUND"
	CodeExternalService = "EXTERNAL_SERVICE_ERROR"
	CodeTimeout         = "TIMEOUT"
	CodeDatabase        = "DATABASE_ERROR"
	CodeInternal        = "INTERNAL_ERROR"
)

type correlationKey struct{}

// WithCorrelationID returns a context carrying the run's correlation ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// Wrap functions for existing errors.
// The context supplies the correlation ID of the current run.

func WrapInvalidInput(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeInvalidInput, err, message)
}

func WrapConfigInvalid(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeConfigInvalid, err, message)
}

func WrapNotFound(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeNotFound, err, message)
}

func WrapExternalService(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeExternalService, err, message)
}

func WrapTimeout(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeTimeout, err, message)
}

func WrapDatabaseError(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeDatabase, err, message)
}

func WrapInternal(ctx context.Context, err error, message string) *errors.ErrorEnvelope {
	return wrap(ctx, CodeInternal, err, message)
}

// WrapFetchError classifies a failure of the most-played walk.
func WrapFetchError(ctx context.Context, err error) *errors.ErrorEnvelope {
	var (
		transportErr *engine.TransportError
		decodeErr    *engine.DecodeError
	)

	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return WrapTimeout(ctx, err, "Fetching most played beatmaps timed out")
	case stderrors.Is(err, osuapi.ErrPageLimitReached):
		return WrapExternalService(ctx, err, "Most played listing is longer than the configured page cap")
	case stderrors.As(err, &decodeErr):
		envelope := WrapExternalService(ctx, err, "Unexpected response from the osu! API")
		return withContext(envelope, map[string]interface{}{
			"url":         decodeErr.URL,
			"status_code": decodeErr.StatusCode,
			"attempt":     decodeErr.Attempt,
		})
	case stderrors.As(err, &transportErr):
		envelope := WrapExternalService(ctx, err, "Could not reach the osu! API")
		return withContext(envelope, map[string]interface{}{
			"url":     transportErr.URL,
			"attempt": transportErr.Attempt,
		})
	default:
		return WrapInternal(ctx, err, "Fetching most played beatmaps failed")
	}
}

// ExitCodeFor maps an envelope code to a semantic exit code.
func ExitCodeFor(envelope *errors.ErrorEnvelope) foundry.ExitCode {
	if envelope == nil {
		return foundry.ExitFailure
	}
	switch envelope.Code {
	case CodeInvalidInput, CodeConfigInvalid:
		return foundry.ExitConfigInvalid
	case CodeNotFound:
		return foundry.ExitFileNotFound
	case CodeExternalService, CodeTimeout:
		return foundry.ExitExternalServiceUnavailable
	default:
		return foundry.ExitFailure
	}
}

// EnsureEnvelope normalizes any error into a gofulmen ErrorEnvelope.
func EnsureEnvelope(err error) *errors.ErrorEnvelope {
	if err == nil {
		env := errors.NewErrorEnvelope(CodeInternal, "unexpected nil error")
		env, _ = env.WithSeverity(errors.SeverityCritical)
		return env
	}

	var envelope *errors.ErrorEnvelope
	if stderrors.As(err, &envelope) && envelope != nil {
		return envelope
	}

	var cfgErr *core.ConfigError
	if stderrors.As(err, &cfgErr) {
		return WrapConfigInvalid(context.Background(), err, cfgErr.Error())
	}

	env := errors.NewErrorEnvelope(CodeInternal, "unexpected error")
	env = withWrappedError(env, err)
	env, _ = env.WithSeverity(errors.SeverityHigh)
	return env
}

func wrap(ctx context.Context, code string, err error, message string) *errors.ErrorEnvelope {
	envelope := errors.NewErrorEnvelope(code, message)
	envelope = envelope.WithCorrelationID(extractCorrelationID(ctx))
	envelope = envelope.WithTraceID(extractTraceID(ctx))
	return withWrappedError(envelope, err)
}

// extractCorrelationID gets correlation ID from context, falls back to generating new UUID
func extractCorrelationID(ctx context.Context) string {
	if ctx != nil {
		if id, ok := ctx.Value(correlationKey{}).(string); ok && id != "" {
			return id
		}
	}
	return uuid.New().String()
}

// extractTraceID uses the correlation ID; runs are not traced separately.
func extractTraceID(ctx context.Context) string {
	return extractCorrelationID(ctx)
}

func withWrappedError(envelope *errors.ErrorEnvelope, err error) *errors.ErrorEnvelope {
	if envelope == nil || err == nil {
		return envelope
	}

	envelope.Original = err
	return withContext(envelope, map[string]interface{}{
		"wrapped_error": err.Error(),
	})
}

func withContext(envelope *errors.ErrorEnvelope, values map[string]interface{}) *errors.ErrorEnvelope {
	merged := make(map[string]interface{}, len(envelope.Context)+len(values))
	for key, value := range envelope.Context {
		merged[key] = value
	}
	for key, value := range values {
		merged[key] = value
	}

	updated, err := envelope.WithContext(merged)
	if err != nil {
		return envelope
	}
	return updated
}
