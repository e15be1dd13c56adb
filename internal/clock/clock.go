package clock

import (
	"time"

	"go.uber.org/fx"
)

// Clock is the time source used by services so tests can control it.
type Clock interface {
	Now() time.Time
}

var Module = fx.Provide(NewSystemClock)

type SystemClock struct{}

func NewSystemClock() Clock {
	return SystemClock{}
}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
