// Closes open external connections before shutting down Saffron.
// Inspired from https://medium.com/tokopedia-engineering/gracefully-shutdown-your-go-application-9e7d5c73b5ac

package cleanup

import (
	"Saffron/pkg/log"
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"
)

// operation is a clean up function standard.
type Operation func(ctx context.Context) error

// GracefulShutdown function waits for termination system-calls and performs clean-up operations.
func GracefulShutdown(ctx context.Context, logger log.Logger, timeout time.Duration, operations map[string]Operation) <-chan bool {
	wait := make(chan bool)

	// buffered channel to receive shutdown signal, registered before returning so no signal is missed
	s := make(chan os.Signal, 1)
	signal.Notify(s, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		defer signal.Stop(s)
		<-s

		logger.Warn().Msg("Graceful shutdown in progress.")

		// Force exit after timeout duration has been elapsed
		force := time.AfterFunc(timeout, func() {
			logger.Warn().Msgf("Timeout of %fs has been elapsed. Forcing shutdown!", timeout.Seconds())
			os.Exit(3)
		})
		defer force.Stop()

		RunOperations(ctx, logger, operations)
		close(wait)
	}()

	return wait
}

// RunOperations executes every cleanup operation concurrently and waits for all of them.
// A failing operation is logged, the rest still run.
func RunOperations(ctx context.Context, logger log.Logger, operations map[string]Operation) {
	var wg sync.WaitGroup

	for opname, op := range operations {
		// Adding task to be executed asynchronously
		wg.Add(1)
		go func(opname string, op Operation) {
			defer wg.Done()
			logger.Info().Msgf("Shutting down: %s", opname)
			if err := op(ctx); err != nil {
				logger.Error().Err(err).Msgf("%s shutdown failed.", opname)
				return
			}
			logger.Info().Msgf("%s shutdown completed.", opname)
		}(opname, op)
	}
	// Wait for all of the tasks to finish
	wg.Wait()
}
