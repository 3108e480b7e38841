package client

import (
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// linearBackOff 线性递增的重试间隔：step, 2*step, 3*step...
// backoff库现成的是指数退避，这里的上游配额模型更适合温和的线性间隔
type linearBackOff struct {
	step    time.Duration
	attempt int
}

func newLinearBackOff(step time.Duration) *linearBackOff {
	return &linearBackOff{step: step}
}

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * b.step
}

func (b *linearBackOff) Reset() {
	b.attempt = 0
}

var _ backoff.BackOff = (*linearBackOff)(nil)

// statusError 上游返回的非200状态码
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code %d", e.code)
}
