package logger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewNamedLoggerIsConcurrencySafe(t *testing.T) {
	t.Setenv("LOG_DIR", t.TempDir())

	loggers := make([]*zap.SugaredLogger, 8)
	var wg sync.WaitGroup
	for i := range loggers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			loggers[i] = NewNamedLogger("component")
		}(i)
	}
	wg.Wait()

	for _, log := range loggers {
		assert.NotNil(t, log)
	}
}
