// Copyright © 2024 Rak Laptudirm <rak@laptudirm.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package llm

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"
)

// NewLimiter returns a limiter allowing perMinute requests every minute
// with bursts of up to burst requests. A non-positive rate means no limit.
func NewLimiter(perMinute float64, burst int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}

	return rate.NewLimiter(rate.Limit(perMinute/60), max(burst, 1))
}

// Limited is a Generator whose requests are throttled by a limiter which
// may be shared with other generators.
type Limited struct {
	Generator Generator
	Limiter   *rate.Limiter
}

// Wait blocks until the limiter allows another request.
func (limited Limited) Wait(ctx context.Context) error {
	if err := limited.Limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return contextError(ctx, err)
		}

		// the wait would outlast the deadline
		if _, found := ctx.Deadline(); found {
			return fmt.Errorf("%w: %w", ErrTimeout, err)
		}

		return errors.Join(ErrGeneration, err)
	}

	return nil
}

// Generate implements Generator.
func (limited Limited) Generate(ctx context.Context, messages []Message) (string, Usage, error) {
	if err := limited.Wait(ctx); err != nil {
		return "", Usage{}, err
	}

	return limited.Generator.Generate(ctx, messages)
}
