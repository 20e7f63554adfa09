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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	for _, test := range []struct {
		score    Score
		winning  bool
		decisive bool
		text     string
	}{
		{Score{Value: 35}, true, false, "+0.35"},
		{Score{Value: -1300}, false, false, "-13.00"},
		{Score{Value: 1301}, true, true, "+13.01"},
		{Score{Value: -1450}, false, true, "-14.50"},
		{Score{Value: 3, Mate: true}, true, true, "#3"},
		{Score{Value: -2, Mate: true}, false, true, "#-2"},
		{Score{Value: 0, Mate: true}, false, true, "#0"},
	} {
		assert.Equal(t, test.winning, test.score.Winning(), test.text)
		assert.Equal(t, test.decisive, test.score.Decisive(1300), test.text)
		assert.Equal(t, test.text, test.score.String())
	}
}

func TestIsForfeit(t *testing.T) {
	for _, err := range []error{ErrTimeout, ErrGeneration, ErrExtraction, ErrIllegalMove} {
		assert.True(t, IsForfeit(fmt.Errorf("wrapped: %w", err)), err.Error())
	}

	for _, err := range []error{ErrNoLegalMove, ErrUnsupportedConfig, errors.New("broken pipe")} {
		assert.False(t, IsForfeit(err), err.Error())
	}
}

func TestParseSpec(t *testing.T) {
	spec, err := ParseSpec("Stockfish_1400")
	require.NoError(t, err)
	assert.Equal(t, SearchSpec{ID: "Stockfish_1400", Rating: 1400}, spec)

	rating, known := Rating(spec)
	assert.True(t, known)
	assert.Equal(t, 1400.0, rating)

	spec, err = ParseSpec("skill_7")
	require.NoError(t, err)
	require.IsType(t, SearchSpec{}, spec)
	assert.Equal(t, 7, *spec.(SearchSpec).Skill)

	_, known = Rating(spec)
	assert.False(t, known)

	spec, err = ParseSpec("Deepseek_deepseek-r1:1.5b")
	require.NoError(t, err)
	assert.Equal(t, LanguageSpec{ID: "Deepseek_deepseek-r1:1.5b", Backend: "ollama", Model: "deepseek-r1:1.5b"}, spec)

	spec, err = ParseSpec("OpenAI_gpt-4o")
	require.NoError(t, err)
	assert.Equal(t, "openai", spec.(LanguageSpec).Backend)
	assert.Equal(t, "OpenAI_gpt-4o", spec.Identity())
}

func TestParseSpecMalformed(t *testing.T) {
	for _, identity := range []string{
		"",
		"Stockfish",
		"Stockfish_",
		"_1400",
		"Stockfish_1400_extra",
		"Ollama_llama_3",
		"Komodo_3000",
		"Stockfish_strong",
		"Stockfish_-5",
		"Skill_21",
		"Skill_high",
	} {
		_, err := ParseSpec(identity)
		assert.ErrorIs(t, err, ErrUnsupportedConfig, identity)
	}
}

func TestSearchSpecValidate(t *testing.T) {
	skill := 5
	assert.ErrorIs(t, SearchSpec{ID: "x", Rating: 1500, Skill: &skill}.Validate(), ErrUnsupportedConfig)
	assert.NoError(t, SearchSpec{ID: "x", Skill: &skill}.Validate())
	assert.NoError(t, SearchSpec{}.Validate())
}
