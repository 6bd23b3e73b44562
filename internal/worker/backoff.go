package worker

import (
	"math/rand"
	"time"
)

// BackoffDelay computes the retry delay before the given attempt number
// (1-indexed: attempt 1 has already happened). The base delay doubles per
// attempt, is capped, and carries up to 10% jitter to avoid thundering herds.
func BackoffDelay(attempt int, base, cap time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= cap {
			delay = cap
			break
		}
	}
	if delay > cap {
		delay = cap
	}

	jitter := time.Duration(rand.Int63n(int64(delay)/10 + 1))
	return delay + jitter
}
