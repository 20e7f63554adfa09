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
	"regexp"
	"strings"

	"github.com/notnil/chess"
)

var (
	answerRegexp = regexp.MustCompile(`(?s)<answer>(.*?)</answer>`)
	tokenRegexp  = regexp.MustCompile(`^[A-Za-z0-9 ]+$`)
)

// ExtractAnswer returns the contents of the first <answer></answer> span
// in a model's response, trimmed and stripped of surrounding quotes. The
// answer may only contain letters, digits, and spaces.
func ExtractAnswer(text string) (string, error) {
	match := answerRegexp.FindStringSubmatch(text)
	if match == nil {
		return "", fmt.Errorf("%w: no <answer> tags", ErrExtraction)
	}

	answer := strings.TrimSpace(match[1])
	if answer != "" && isQuote(answer[0]) {
		answer = answer[1:]
	}

	if answer != "" && isQuote(answer[len(answer)-1]) {
		answer = answer[:len(answer)-1]
	}

	if !tokenRegexp.MatchString(answer) {
		return "", fmt.Errorf("%w: answer %q has invalid characters", ErrExtraction, answer)
	}

	return answer, nil
}

func isQuote(char byte) bool {
	return char == '"' || char == '\''
}

// DecodeMove finds the legal move named by token in the position. The
// token may be in UCI or in standard algebraic notation.
func DecodeMove(position *chess.Position, token string) (*chess.Move, error) {
	uci := strings.ToLower(strings.ReplaceAll(token, " ", ""))
	if move, err := (chess.UCINotation{}).Decode(position, uci); err == nil {
		if legal := LegalMove(position, move); legal != nil {
			return legal, nil
		}
	}

	if move, err := (chess.AlgebraicNotation{}).Decode(position, strings.TrimSpace(token)); err == nil {
		if legal := LegalMove(position, move); legal != nil {
			return legal, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", ErrIllegalMove, token)
}

// LegalMove returns the legal move in the position which has the same
// squares and promotion as move, or nil if there is none.
func LegalMove(position *chess.Position, move *chess.Move) *chess.Move {
	for _, legal := range position.ValidMoves() {
		if legal.S1() == move.S1() && legal.S2() == move.S2() && legal.Promo() == move.Promo() {
			return legal
		}
	}

	return nil
}
