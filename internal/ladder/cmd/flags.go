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

package cmd

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/cobra"

	"laptudirm.com/x/ladder/pkg/eve/agent"
	"laptudirm.com/x/ladder/pkg/eve/tournament"
	"laptudirm.com/x/ladder/pkg/eve/uci"
)

// loadConfig reads the configuration file given with --config. A missing
// default configuration file is not an error.
func loadConfig(cmd *cobra.Command) (tournament.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	config, err := tournament.LoadConfig(path)
	if err != nil && !cmd.Flag("config").Changed && errors.Is(err, fs.ErrNotExist) {
		return tournament.DefaultConfig(), nil
	}

	return config, err
}

// addAgentFlags registers the flags which override the agent settings.
func addAgentFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("engine", "", "Path of the reference UCI engine")
	flags.Duration("move-time", 0, "Move time of search agents")
	flags.Int("nodes", 0, "Node limit of search agents")
	flags.String("representation", "", "Board representation of language agents (fen, spaced, grid, natural)")
	flags.Duration("timeout", 0, "Generation timeout of language agents")
	flags.Bool("isolate", true, "Run every generation in a separate process")
	flags.Bool("accelerate", false, "Let the ollama backend use the gpu")
	flags.String("ollama-url", "", "Base url of the ollama server")
	flags.String("openai-url", "", "Base url of the openai compatible api")
	flags.Float64("rpm", 0, "Generation requests per minute of all agents together")
}

// applyAgentFlags overrides the settings with the flags which have been
// set on the command line.
func applyAgentFlags(cmd *cobra.Command, settings *agent.Settings) error {
	flags := cmd.Flags()

	if flags.Changed("engine") {
		settings.Engine.Cmd, _ = flags.GetString("engine")
	}

	// A move time and a node limit replace each other.
	if flags.Changed("move-time") {
		moveTime, _ := flags.GetDuration("move-time")
		settings.Limit = uci.Limit{MoveTime: moveTime}
	}

	if flags.Changed("nodes") {
		nodes, _ := flags.GetInt("nodes")
		settings.Limit = uci.Limit{Nodes: nodes}
	}

	if flags.Changed("representation") {
		name, _ := flags.GetString("representation")
		representation, err := agent.ParseRepresentation(name)
		if err != nil {
			return err
		}

		settings.Language.Representation = representation
	}

	if flags.Changed("timeout") {
		settings.Language.Timeout, _ = flags.GetDuration("timeout")
	}

	if flags.Changed("isolate") {
		settings.Language.Isolate, _ = flags.GetBool("isolate")
	}

	if flags.Changed("accelerate") {
		settings.Language.Accelerate, _ = flags.GetBool("accelerate")
	}

	if flags.Changed("ollama-url") {
		settings.Language.OllamaURL, _ = flags.GetString("ollama-url")
	}

	if flags.Changed("openai-url") {
		settings.Language.OpenAIURL, _ = flags.GetString("openai-url")
	}

	if flags.Changed("rpm") {
		settings.Language.RequestsPerMinute, _ = flags.GetFloat64("rpm")
	}

	return nil
}

// workerCommand returns the command which runs an isolated generation.
func workerCommand() []string {
	executable, err := os.Executable()
	if err != nil {
		return nil
	}

	return []string{executable, "generate"}
}

// timestamp names the output files of a run.
func timestamp() string {
	return time.Now().Format("2006-01-02-150405")
}
