package rng

import "go.uber.org/zap"

// Logged wraps a Source and counts draws, logging each one at debug level
// when the logger enables it.
type Logged struct {
	src    Source
	logger *zap.Logger
	draws  int
}

// NewLogged returns a Source that forwards to src and logs each draw.
//
// Precondition: src and logger must be non-nil.
func NewLogged(src Source, logger *zap.Logger) *Logged {
	return &Logged{src: src, logger: logger}
}

// Intn forwards to the wrapped source.
func (l *Logged) Intn(n int) int {
	v := l.src.Intn(n)
	l.draws++
	if ce := l.logger.Check(zap.DebugLevel, "rng draw"); ce != nil {
		ce.Write(zap.Int("n", n), zap.Int("value", v), zap.Int("draw", l.draws))
	}
	return v
}

// Draws returns how many values have been drawn.
func (l *Logged) Draws() int {
	return l.draws
}
