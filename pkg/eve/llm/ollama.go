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
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultOllamaURL is where a local ollama server listens.
const DefaultOllamaURL = "http://localhost:11434"

// Ollama generates with the chat endpoint of an ollama server.
type Ollama struct {
	httpClient *http.Client
	baseURL    string
	options    Options
}

type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message         Message `json:"message"`
	Done            bool    `json:"done"`
	DoneReason      string  `json:"done_reason"`
	PromptEvalCount int     `json:"prompt_eval_count"`
	EvalCount       int     `json:"eval_count"`
	TotalDuration   int64   `json:"total_duration"`
	Error           string  `json:"error"`
}

// NewOllama creates an ollama generator. Timeouts are left to the
// context passed to Generate.
func NewOllama(options Options) *Ollama {
	baseURL := options.BaseURL
	if baseURL == "" {
		baseURL = DefaultOllamaURL
	}

	return &Ollama{
		httpClient: &http.Client{},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		options:    options.withDefaults(),
	}
}

// Generate implements Generator.
func (o *Ollama) Generate(ctx context.Context, messages []Message) (string, Usage, error) {
	options := map[string]any{
		"num_ctx":     o.options.ContextSize,
		"num_predict": o.options.MaxTokens,
	}

	if !o.options.Accelerate {
		// keep every layer on the cpu
		options["num_gpu"] = 0
	}

	payload, err := json.Marshal(ollamaChatRequest{
		Model:    o.options.Model,
		Messages: messages,
		Stream:   false,
		Options:  options,
	})
	if err != nil {
		return "", Usage{}, fmt.Errorf("%w: marshal request: %w", ErrGeneration, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", Usage{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", Usage{}, contextError(ctx, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", Usage{}, contextError(ctx, err)
	}

	var response ollamaChatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return "", Usage{}, fmt.Errorf("%w: ollama returned %s: %w", ErrGeneration, resp.Status, err)
	}

	if resp.StatusCode != http.StatusOK || response.Error != "" {
		return "", Usage{}, fmt.Errorf("%w: ollama returned %s: %s", ErrGeneration, resp.Status, response.Error)
	}

	usage := Usage{
		PromptTokens:     response.PromptEvalCount,
		GeneratedTokens:  response.EvalCount,
		CompletionReason: ReasonFinished,
		Duration:         time.Since(start),
	}

	if response.DoneReason == "length" {
		usage.CompletionReason = ReasonLength
	}

	logrus.WithFields(logrus.Fields{
		"model":     o.options.Model,
		"prompt":    usage.PromptTokens,
		"generated": usage.GeneratedTokens,
		"reason":    usage.CompletionReason,
	}).Debug("ollama generation")

	if strings.TrimSpace(response.Message.Content) == "" {
		return "", usage, fmt.Errorf("%w: empty response", ErrGeneration)
	}

	return response.Message.Content, usage, nil
}
