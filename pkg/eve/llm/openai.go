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
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// OpenAI generates with an OpenAI compatible chat completions API.
type OpenAI struct {
	client  *openai.Client
	options Options
}

// NewOpenAI creates an OpenAI generator authenticated with the given key.
func NewOpenAI(options Options, key string) *OpenAI {
	config := openai.DefaultConfig(key)
	if options.BaseURL != "" {
		config.BaseURL = strings.TrimSuffix(options.BaseURL, "/")
	}

	return &OpenAI{
		client:  openai.NewClientWithConfig(config),
		options: options.withDefaults(),
	}
}

// Generate implements Generator.
func (o *OpenAI) Generate(ctx context.Context, messages []Message) (string, Usage, error) {
	req := openai.ChatCompletionRequest{
		Model:               o.options.Model,
		Messages:            make([]openai.ChatCompletionMessage, len(messages)),
		MaxCompletionTokens: o.options.MaxTokens,
	}

	for i, message := range messages {
		req.Messages[i] = openai.ChatCompletionMessage{
			Role:    message.Role,
			Content: message.Content,
		}
	}

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return "", Usage{}, contextError(ctx, err)
		}

		return "", Usage{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	if len(resp.Choices) == 0 {
		return "", Usage{}, fmt.Errorf("%w: no choices returned", ErrGeneration)
	}

	choice := resp.Choices[0]
	usage := Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		GeneratedTokens:  resp.Usage.CompletionTokens,
		CompletionReason: ReasonFinished,
		Duration:         time.Since(start),
	}

	if choice.FinishReason == openai.FinishReasonLength {
		usage.CompletionReason = ReasonLength
	}

	logrus.WithFields(logrus.Fields{
		"model":     o.options.Model,
		"prompt":    usage.PromptTokens,
		"generated": usage.GeneratedTokens,
		"reason":    choice.FinishReason,
	}).Debug("openai generation")

	if strings.TrimSpace(choice.Message.Content) == "" {
		return "", usage, fmt.Errorf("%w: empty response", ErrGeneration)
	}

	return choice.Message.Content, usage, nil
}
