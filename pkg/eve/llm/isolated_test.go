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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoGenerator answers with the last message of the conversation.
type echoGenerator struct{}

func (echoGenerator) Generate(_ context.Context, messages []Message) (string, Usage, error) {
	last := messages[len(messages)-1].Content
	return "<answer>" + last + "</answer>", Usage{
		PromptTokens:     len(messages),
		GeneratedTokens:  1,
		CompletionReason: ReasonFinished,
	}, nil
}

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, []Message) (string, Usage, error) {
	return "", Usage{}, errors.New("backend unavailable")
}

// TestHelperProcess is not a real test. It is the body of the isolated
// generation processes started by the tests below.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("LADDER_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("LADDER_HELPER_MODE") {
	case "echo":
		_ = Serve(context.Background(), os.Stdin, os.Stdout, func(Options) (Generator, error) {
			return echoGenerator{}, nil
		})

	case "fail":
		if err := Serve(context.Background(), os.Stdin, os.Stdout, func(Options) (Generator, error) {
			return failingGenerator{}, nil
		}); err != nil {
			os.Exit(1)
		}

	case "crash":
		fmt.Fprintln(os.Stderr, "segmentation fault")
		os.Exit(2)

	case "hang":
		time.Sleep(time.Minute)
	}

	os.Exit(0)
}

func helper(mode string) *Isolated {
	return &Isolated{
		Command: []string{os.Args[0], "-test.run=^TestHelperProcess$"},
		Env: append(os.Environ(),
			"LADDER_HELPER_PROCESS=1",
			"LADDER_HELPER_MODE="+mode,
		),
		Options: Options{Backend: BackendOllama, Model: "m"},
	}
}

func TestIsolatedGenerate(t *testing.T) {
	text, usage, err := helper("echo").Generate(context.Background(), conversation)
	require.NoError(t, err)

	assert.Equal(t, "<answer>Your move.</answer>", text)
	assert.Equal(t, 2, usage.PromptTokens)
	assert.Equal(t, ReasonFinished, usage.CompletionReason)
	assert.NotZero(t, usage.Duration)
}

func TestIsolatedGenerationFailure(t *testing.T) {
	_, _, err := helper("fail").Generate(context.Background(), conversation)
	assert.ErrorIs(t, err, ErrGeneration)
	assert.Contains(t, err.Error(), "backend unavailable")
}

func TestIsolatedCrash(t *testing.T) {
	_, _, err := helper("crash").Generate(context.Background(), conversation)
	assert.ErrorIs(t, err, ErrGeneration)
	assert.Contains(t, err.Error(), "segmentation fault")
}

func TestIsolatedTimeoutKillsWorker(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, _, err := helper("hang").Generate(ctx, conversation)

	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestIsolatedWithoutCommand(t *testing.T) {
	_, _, err := (&Isolated{}).Generate(context.Background(), conversation)
	assert.ErrorIs(t, err, ErrGeneration)
}

func TestServe(t *testing.T) {
	payload, err := json.Marshal(Request{
		Options:  Options{Backend: BackendOpenAI, Model: "gpt"},
		Messages: conversation,
	})
	require.NoError(t, err)

	var opened Options
	var out bytes.Buffer
	err = Serve(context.Background(), bytes.NewReader(payload), &out, func(options Options) (Generator, error) {
		opened = options
		return echoGenerator{}, nil
	})
	require.NoError(t, err)

	var response Response
	require.NoError(t, json.Unmarshal(out.Bytes(), &response))

	assert.Equal(t, "gpt", opened.Model)
	assert.Equal(t, "<answer>Your move.</answer>", response.Text)
	assert.Empty(t, response.Error)
}

func TestServeMalformedRequest(t *testing.T) {
	var out bytes.Buffer
	err := Serve(context.Background(), strings.NewReader("{"), &out, func(Options) (Generator, error) {
		return echoGenerator{}, nil
	})
	assert.Error(t, err)

	var response Response
	require.NoError(t, json.Unmarshal(out.Bytes(), &response))
	assert.NotEmpty(t, response.Error)
}

func TestLimited(t *testing.T) {
	limited := Limited{Generator: echoGenerator{}, Limiter: NewLimiter(1, 1)}

	_, _, err := limited.Generate(context.Background(), conversation)
	require.NoError(t, err)

	// the next token is a minute away
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err = limited.Generate(ctx, conversation)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestUnlimited(t *testing.T) {
	limited := Limited{Generator: echoGenerator{}, Limiter: NewLimiter(0, 0)}
	for i := 0; i < 100; i++ {
		_, _, err := limited.Generate(context.Background(), conversation)
		require.NoError(t, err)
	}
}
