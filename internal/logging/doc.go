// Package logging builds the slog loggers used across fieldsync and
// standardizes the structured field keys emitted by every component.
//
// Two output formats are supported: a console handler that renders
// "TIMESTAMP LEVEL component: message key=value" lines for interactive
// use, and a JSON handler for machine consumption. Both honor the
// configured level and write to stdout plus the daemon log file.
package logging
