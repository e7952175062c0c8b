package services

import "context"

type contextKey string

const (
	platformKey    contextKey = "platform"
	fingerprintKey contextKey = "fingerprint"
	stageKey       contextKey = "stage"
	runIDKey       contextKey = "run_id"
)

// WithPlatform annotates context with the platform being processed.
func WithPlatform(ctx context.Context, platform string) context.Context {
	if platform == "" {
		return ctx
	}
	return context.WithValue(ctx, platformKey, platform)
}

// PlatformFromContext returns the platform name if present.
func PlatformFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(platformKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithFingerprint annotates context with the item fingerprint.
func WithFingerprint(ctx context.Context, fingerprint string) context.Context {
	if fingerprint == "" {
		return ctx
	}
	return context.WithValue(ctx, fingerprintKey, fingerprint)
}

// FingerprintFromContext returns the item fingerprint if present.
func FingerprintFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(fingerprintKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithStage annotates context with the pipeline stage name.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext returns the stage name if present.
func StageFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(stageKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRunID annotates context with the run correlation identifier.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, id)
}

// RunIDFromContext extracts the run correlation identifier if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(runIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
