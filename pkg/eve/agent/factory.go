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
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"laptudirm.com/x/ladder/pkg/eve/llm"
	"laptudirm.com/x/ladder/pkg/eve/uci"
)

// Settings configures the agents created by a Factory.
type Settings struct {
	// Engine is the reference engine used by every search agent.
	Engine uci.Config `yaml:"engine"`

	// Limit is the per-move budget of search agents, and EvalLimit the
	// per-position budget of the evaluator.
	Limit     uci.Limit `yaml:"limit"`
	EvalLimit uci.Limit `yaml:"eval-limit"`

	Language LanguageSettings `yaml:"language"`
}

// LanguageSettings configures language model agents.
type LanguageSettings struct {
	Representation Representation `yaml:"representation"`
	Timeout        time.Duration  `yaml:"timeout"`

	// Isolate runs every generation in a child process which is killed
	// when it runs out of time.
	Isolate bool `yaml:"isolate"`

	OllamaURL string `yaml:"ollama-url"`
	OpenAIURL string `yaml:"openai-url"`
	APIKeyEnv string `yaml:"api-key-env"`

	MaxTokens   int  `yaml:"max-tokens"`
	ContextSize int  `yaml:"context-size"`
	Accelerate  bool `yaml:"accelerate"`

	// RequestsPerMinute limits the generation requests of all agents
	// together; zero means no limit.
	RequestsPerMinute float64 `yaml:"requests-per-minute"`
	Burst             int     `yaml:"burst"`
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	return Settings{
		Engine: uci.Config{Cmd: "stockfish"},

		Limit:     uci.Limit{MoveTime: 100 * time.Millisecond},
		EvalLimit: uci.Limit{MoveTime: 10 * time.Millisecond},

		Language: LanguageSettings{
			Representation: FEN,
			Timeout:        30 * time.Second,
			Isolate:        true,

			OllamaURL: llm.DefaultOllamaURL,
			APIKeyEnv: "OPENAI_API_KEY",

			MaxTokens:   llm.DefaultMaxTokens,
			ContextSize: llm.DefaultContextSize,
		},
	}
}

// Factory creates agents from their specs.
type Factory struct {
	settings Settings

	// worker is the argv of the isolated generation process.
	worker []string

	limiter *rate.Limiter
	seed    atomic.Int64
}

// NewFactory creates a Factory. The worker command is used to start the
// isolated generation processes when isolation is enabled.
func NewFactory(settings Settings, worker []string) *Factory {
	factory := &Factory{
		settings: settings,
		worker:   worker,
		limiter:  llm.NewLimiter(settings.Language.RequestsPerMinute, settings.Language.Burst),
	}

	factory.seed.Store(time.Now().UnixNano())
	return factory
}

// Settings returns the factory's settings.
func (factory *Factory) Settings() Settings {
	return factory.settings
}

// New creates the agent described by spec.
func (factory *Factory) New(spec Spec) (Agent, error) {
	switch spec := spec.(type) {
	case SearchSpec:
		return StartSearch(factory.settings.Engine, spec, factory.settings.Limit)

	case LanguageSpec:
		generator, err := factory.Generator(spec)
		if err != nil {
			return nil, err
		}

		settings := factory.settings.Language
		return NewLanguage(
			spec.ID, generator,
			settings.Representation, settings.Timeout,
			factory.seed.Add(1),
		), nil

	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedConfig, spec)
	}
}

// NewEvaluator starts an engine at full strength for scoring positions.
func (factory *Factory) NewEvaluator() (Evaluator, error) {
	config := factory.settings.Engine
	config.Name = "evaluator"
	return StartSearch(config, SearchSpec{}, factory.settings.EvalLimit)
}

// Generator returns the generator used by the language agent for spec.
func (factory *Factory) Generator(spec LanguageSpec) (llm.Generator, error) {
	settings := factory.settings.Language

	options := llm.Options{
		Backend:     spec.Backend,
		Model:       spec.Model,
		APIKeyEnv:   settings.APIKeyEnv,
		MaxTokens:   settings.MaxTokens,
		ContextSize: settings.ContextSize,
		Accelerate:  settings.Accelerate,
	}

	switch spec.Backend {
	case llm.BackendOllama:
		options.BaseURL = settings.OllamaURL
	case llm.BackendOpenAI:
		options.BaseURL = settings.OpenAIURL
	}

	var generator llm.Generator
	if settings.Isolate {
		if len(factory.worker) == 0 {
			return nil, fmt.Errorf("%w: isolation requires a worker command", ErrUnsupportedConfig)
		}

		generator = &llm.Isolated{Command: factory.worker, Options: options}
	} else {
		var err error
		if generator, err = llm.Open(options); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedConfig, err)
		}
	}

	return llm.Limited{Generator: generator, Limiter: factory.limiter}, nil
}
