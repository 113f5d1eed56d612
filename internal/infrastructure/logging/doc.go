// Package logging provides structured logging for NoiseWatch Core.
//
// It wraps log/slog with configuration-driven format and level selection
// plus default service/version attributes. Leaf packages do not import this
// package directly; they declare a minimal local Logger interface that this
// Logger satisfies, keeping them free of infrastructure dependencies.
package logging
