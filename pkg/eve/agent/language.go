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

package agent

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/notnil/chess"
	"github.com/sirupsen/logrus"

	"laptudirm.com/x/ladder/pkg/eve/llm"
)

// Language is an agent which asks a language model for its moves.
type Language struct {
	name string

	generator      llm.Generator
	representation Representation
	timeout        time.Duration

	rand *rand.Rand

	mu    sync.Mutex
	usage Usage
}

// Usage is the cumulative generation usage of a Language agent.
type Usage struct {
	Calls           int
	Failures        int
	Truncated       int // generations stopped by the token limit
	PromptTokens    int
	GeneratedTokens int
	Duration        time.Duration
}

// NewLanguage creates a language model agent. Each generation is given at
// most timeout to complete, with no limit if timeout is zero. The seed
// drives the shuffling of the legal moves shown to the model.
func NewLanguage(name string, generator llm.Generator, representation Representation, timeout time.Duration, seed int64) *Language {
	return &Language{
		name:           name,
		generator:      generator,
		representation: representation,
		timeout:        timeout,
		rand:           rand.New(rand.NewSource(seed)),
	}
}

// Play implements Agent.
func (language *Language) Play(ctx context.Context, position *chess.Position) (*chess.Move, error) {
	legal := position.ValidMoves()
	if len(legal) == 0 {
		return nil, ErrNoLegalMove
	}

	// the order of the moves must not hint at their quality
	moves := make([]string, len(legal))
	for i, move := range legal {
		moves[i] = chess.UCINotation{}.Encode(position, move)
	}

	language.rand.Shuffle(len(moves), func(i, j int) {
		moves[i], moves[j] = moves[j], moves[i]
	})

	// throttling is not charged to the move time
	generator := language.generator
	if limited, ok := generator.(llm.Limited); ok {
		if err := limited.Wait(ctx); err != nil {
			language.record(llm.Usage{}, err)
			if !IsForfeit(err) {
				err = fmt.Errorf("%w: %w", ErrGeneration, err)
			}

			return nil, err
		}

		generator = limited.Generator
	}

	if language.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, language.timeout)
		defer cancel()
	}

	messages := Conversation(language.representation, position.String(), moves)
	text, usage, err := generator.Generate(ctx, messages)
	language.record(usage, err)

	if err != nil {
		if !IsForfeit(err) {
			err = fmt.Errorf("%w: %w", ErrGeneration, err)
		}

		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"agent":     language.name,
		"generated": usage.GeneratedTokens,
		"reason":    usage.CompletionReason,
	}).Trace(text)

	token, err := ExtractAnswer(text)
	if err != nil {
		return nil, err
	}

	return DecodeMove(position, token)
}

func (language *Language) record(usage llm.Usage, err error) {
	language.mu.Lock()
	defer language.mu.Unlock()

	language.usage.Calls++
	if err != nil {
		language.usage.Failures++
	}

	if usage.CompletionReason == llm.ReasonLength {
		language.usage.Truncated++
	}

	language.usage.PromptTokens += usage.PromptTokens
	language.usage.GeneratedTokens += usage.GeneratedTokens
	language.usage.Duration += usage.Duration
}

// Usage returns the agent's cumulative generation usage.
func (language *Language) Usage() Usage {
	language.mu.Lock()
	defer language.mu.Unlock()
	return language.usage
}

// Close implements Agent. The backend session is stateless, so there is
// nothing to release.
func (language *Language) Close() error {
	return nil
}
