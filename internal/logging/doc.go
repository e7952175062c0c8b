// Package logging constructs the slog loggers used across gamesync and
// standardizes the structured field names shared by the pipeline, scanners,
// and CLI output.
package logging
