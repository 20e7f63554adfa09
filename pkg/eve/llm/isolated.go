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
	"io"
	"os/exec"
	"strings"
	"time"
)

// Request is sent to an isolated generation process on its stdin.
type Request struct {
	Options  Options   `json:"options"`
	Messages []Message `json:"messages"`
}

// Response is written by an isolated generation process to its stdout.
type Response struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
	Error string `json:"error,omitempty"`
}

// Isolated runs every generation in a fresh child process, which is
// killed if the context ends before it answers. This bounds the time a
// generation takes even when the backend client ignores cancellation.
type Isolated struct {
	// Command is the child's argv. The child must answer a Request on its
	// stdin with a Response on its stdout, see Serve.
	Command []string
	Env     []string

	Options Options
}

// Generate implements Generator.
func (iso *Isolated) Generate(ctx context.Context, messages []Message) (string, Usage, error) {
	if len(iso.Command) == 0 {
		return "", Usage{}, fmt.Errorf("%w: no worker command", ErrGeneration)
	}

	payload, err := json.Marshal(Request{Options: iso.Options, Messages: messages})
	if err != nil {
		return "", Usage{}, fmt.Errorf("%w: %w", ErrGeneration, err)
	}

	var stdout, stderr bytes.Buffer

	child := exec.CommandContext(ctx, iso.Command[0], iso.Command[1:]...)
	child.Env = iso.Env
	child.Stdin = bytes.NewReader(payload)
	child.Stdout = &stdout
	child.Stderr = &stderr
	child.WaitDelay = time.Second

	start := time.Now()
	runErr := child.Run()

	if ctx.Err() != nil {
		// child has been killed
		return "", Usage{}, contextError(ctx, ctx.Err())
	}

	var response Response
	if err := json.Unmarshal(stdout.Bytes(), &response); err != nil {
		if runErr != nil {
			err = runErr
		}

		return "", Usage{}, fmt.Errorf(
			"%w: worker: %w: %s", ErrGeneration, err, strings.TrimSpace(stderr.String()),
		)
	}

	if response.Error != "" {
		return "", response.Usage, fmt.Errorf("%w: worker: %s", ErrGeneration, response.Error)
	}

	if runErr != nil {
		return "", response.Usage, fmt.Errorf("%w: worker: %w", ErrGeneration, runErr)
	}

	if response.Usage.Duration == 0 {
		response.Usage.Duration = time.Since(start)
	}

	return response.Text, response.Usage, nil
}

// Serve answers a single Request read from r with a Response written to
// w, generating with a Generator created by open. It is the body of an
// isolated generation process. Generation failures are reported inside
// the Response; the returned error is set as well so the process can
// exit with a failure status.
func Serve(ctx context.Context, r io.Reader, w io.Writer, open func(Options) (Generator, error)) error {
	var request Request
	var response Response

	err := json.NewDecoder(r).Decode(&request)
	if err == nil {
		var generator Generator
		if generator, err = open(request.Options); err == nil {
			response.Text, response.Usage, err = generator.Generate(ctx, request.Messages)
		}
	}

	if err != nil {
		response.Error = err.Error()
	}

	if encodeErr := json.NewEncoder(w).Encode(response); encodeErr != nil {
		return errors.Join(err, encodeErr)
	}

	return err
}
