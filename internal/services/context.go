package services

import "context"

type ctxKey int

const (
	projectIDKey ctxKey = iota
	stepKey
	requestIDKey
)

func withString(ctx context.Context, key ctxKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringFrom(ctx context.Context, key ctxKey) (string, bool) {
	if ctx == nil {
		return "", false
	}
	value, _ := ctx.Value(key).(string)
	return value, value != ""
}

// WithProjectID tags ctx with the project being worked on.
func WithProjectID(ctx context.Context, id string) context.Context {
	return withString(ctx, projectIDKey, id)
}

// ProjectIDFromContext returns the project id set by WithProjectID.
func ProjectIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, projectIDKey)
}

// WithStep tags ctx with the pipeline step (script, voice, background, lipsync).
func WithStep(ctx context.Context, step string) context.Context {
	return withString(ctx, stepKey, step)
}

// StepFromContext returns the step set by WithStep.
func StepFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, stepKey)
}

// WithRequestID tags ctx with the HTTP request or task id that started the work.
func WithRequestID(ctx context.Context, id string) context.Context {
	return withString(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the id set by WithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	return stringFrom(ctx, requestIDKey)
}
