package recovery

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"
)

var Logger = slog.Default()

// Panic describes a recovered panic. The correlation id ties the short error
// shown to users to the full stack written to the log.
type Panic struct {
	CorrelationID string
	Value         interface{}
	Stack         string
}

func (p *Panic) Error() string {
	return fmt.Sprintf("panic: %v (correlation_id: %s)", p.Value, p.CorrelationID)
}

// WithRecoveryNamed runs fn and converts a panic into a *Panic. It returns nil
// when fn returns normally.
func WithRecoveryNamed(name string, fn func()) (recovered *Panic) {
	defer func() {
		if r := recover(); r != nil {
			recovered = &Panic{
				CorrelationID: uuid.NewString(),
				Value:         r,
				Stack:         string(debug.Stack()),
			}
			Logger.Error("named_panic_recovered",
				slog.String("worker_name", name),
				slog.String("correlation_id", recovered.CorrelationID),
				slog.String("error", fmt.Sprintf("%v", r)),
				slog.String("stack", recovered.Stack),
			)
		}
	}()
	fn()
	return nil
}
