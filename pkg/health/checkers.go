package health

import (
	"context"
	"fmt"
	"runtime"
)

// GoroutineCountCheck fails when the process exceeds maxCount goroutines,
// catching runaway leaks before the scheduler does.
func GoroutineCountCheck(maxCount int) CheckFunc {
	return func(context.Context) error {
		if count := runtime.NumGoroutine(); count > maxCount {
			return fmt.Errorf("too many goroutines: %d > %d", count, maxCount)
		}
		return nil
	}
}
