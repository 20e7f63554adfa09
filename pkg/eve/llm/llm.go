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

// Package llm talks to language model backends through a common chat
// generation interface.
package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"
)

var (
	ErrTimeout    = errors.New("llm: generation timed out")
	ErrGeneration = errors.New("llm: generation failed")
)

// Roles of the messages in a conversation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single message in a chat conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completion reasons reported in Usage.
const (
	ReasonFinished = "finished" // the model ended its answer
	ReasonLength   = "length"   // the token limit was hit
)

// Usage describes the resources consumed by a single generation.
type Usage struct {
	PromptTokens     int           `json:"prompt_tokens"`
	GeneratedTokens  int           `json:"generated_tokens"`
	CompletionReason string        `json:"completion_reason"`
	Duration         time.Duration `json:"duration"`
}

// Generator generates the next assistant message of a conversation.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, Usage, error)
}

// Backends which a Generator can be opened for.
const (
	BackendOllama = "ollama"
	BackendOpenAI = "openai"
)

// Options configures a generation backend.
type Options struct {
	Backend string `yaml:"backend" json:"backend"`
	Model   string `yaml:"model" json:"model"`

	// BaseURL overrides the backend's default endpoint.
	BaseURL string `yaml:"base-url" json:"base_url,omitempty"`

	// APIKeyEnv is the environment variable holding the API key.
	APIKeyEnv string `yaml:"api-key-env" json:"api_key_env,omitempty"`

	MaxTokens   int  `yaml:"max-tokens" json:"max_tokens"`
	ContextSize int  `yaml:"context-size" json:"context_size"`
	Accelerate  bool `yaml:"accelerate" json:"accelerate"`
}

// Default sizes of a generation.
const (
	DefaultMaxTokens   = 4000
	DefaultContextSize = 5000
)

func (options Options) withDefaults() Options {
	if options.MaxTokens <= 0 {
		options.MaxTokens = DefaultMaxTokens
	}

	if options.ContextSize <= 0 {
		options.ContextSize = DefaultContextSize
	}

	return options
}

// Open creates an in-process Generator for the backend named in options.
func Open(options Options) (Generator, error) {
	options = options.withDefaults()

	switch options.Backend {
	case BackendOllama:
		return NewOllama(options), nil

	case BackendOpenAI:
		key := ""
		if options.APIKeyEnv != "" {
			key = os.Getenv(options.APIKeyEnv)
		}

		return NewOpenAI(options, key), nil

	default:
		return nil, fmt.Errorf("llm: unknown backend %q", options.Backend)
	}
}

// contextError converts an error caused by the end of ctx into a
// generation error of the right kind.
func contextError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %w", ErrGeneration, err)
}
