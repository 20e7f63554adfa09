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

package match

import "github.com/notnil/chess"

// adjudicate returns the outcome of the game under the rules of chess,
// claiming a threefold repetition or fifty-move rule draw as soon as
// either is available.
func adjudicate(game *chess.Game) (chess.Outcome, string) {
	if outcome := game.Outcome(); outcome != chess.NoOutcome {
		return outcome, describe(game.Method(), game.Position().Turn())
	}

	for _, method := range game.EligibleDraws() {
		switch method {
		case chess.ThreefoldRepetition, chess.FiftyMoveRule:
			if err := game.Draw(method); err == nil {
				return chess.Draw, describe(method, game.Position().Turn())
			}
		}
	}

	return chess.NoOutcome, ""
}

func describe(method chess.Method, toMove chess.Color) string {
	switch method {
	case chess.Checkmate:
		return toMove.Other().Name() + " mates"
	case chess.Stalemate:
		return "Stalemate"
	case chess.ThreefoldRepetition:
		return "Threefold Repetition"
	case chess.FivefoldRepetition:
		return "Fivefold Repetition"
	case chess.FiftyMoveRule:
		return "50-move Rule"
	case chess.SeventyFiveMoveRule:
		return "75-move Rule"
	case chess.InsufficientMaterial:
		return "Insufficient Material"
	default:
		return method.String()
	}
}
