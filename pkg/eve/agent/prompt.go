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
	"embed"
	"fmt"
	"strings"
	"sync"
	"unicode"

	"laptudirm.com/x/ladder/pkg/eve/llm"
)

// Representation is a way of showing a position to a language model.
type Representation string

const (
	FEN     Representation = "fen"     // plain FEN
	Spaced  Representation = "spaced"  // FEN with every character spaced out
	Grid    Representation = "grid"    // dotted 8x8 board
	Natural Representation = "natural" // english description
)

// Representations lists every supported representation.
var Representations = []Representation{FEN, Spaced, Grid, Natural}

// ParseRepresentation parses the name of a representation.
func ParseRepresentation(name string) (Representation, error) {
	for _, representation := range Representations {
		if strings.EqualFold(name, string(representation)) {
			return representation, nil
		}
	}

	return "", fmt.Errorf("%w: unknown board representation %q", ErrUnsupportedConfig, name)
}

//go:embed prompts/*.txt
var promptFiles embed.FS

// systemPrompts is built once on first use and never modified.
var systemPrompts = sync.OnceValue(func() map[Representation]string {
	common, err := promptFiles.ReadFile("prompts/common.txt")
	if err != nil {
		panic(err)
	}

	prompts := make(map[Representation]string, len(Representations))
	for _, representation := range Representations {
		description, err := promptFiles.ReadFile("prompts/" + string(representation) + ".txt")
		if err != nil {
			panic(err)
		}

		prompts[representation] = string(common) + "\n" + string(description)
	}

	return prompts
})

// SystemPrompt returns the system prompt for the representation.
func SystemPrompt(representation Representation) string {
	return systemPrompts()[representation]
}

// Conversation returns the messages asking for a move in the position
// given by fen, whose legal moves are listed in the given order.
func Conversation(representation Representation, fen string, moves []string) []llm.Message {
	var prompt strings.Builder
	prompt.WriteString("Position:\n")
	prompt.WriteString(representation.Format(fen))
	prompt.WriteString("\n\nLegal moves: ")
	prompt.WriteString(strings.Join(moves, " "))

	return []llm.Message{
		{Role: llm.RoleSystem, Content: SystemPrompt(representation)},
		{Role: llm.RoleUser, Content: prompt.String()},
	}
}

// Format formats the position given by fen in the representation.
func (representation Representation) Format(fen string) string {
	switch representation {
	case Spaced:
		return spacedFEN(fen)
	case Grid:
		return gridFEN(fen)
	case Natural:
		return naturalFEN(fen)
	default:
		return fen
	}
}

func spacedFEN(fen string) string {
	fen = strings.ReplaceAll(fen, " ", "  ")
	return strings.Join(strings.Split(fen, ""), " ")
}

// expandRanks turns the placement field of a fen into eight rows of eight
// squares each, from rank 8 down to rank 1, with '.' for empty squares.
func expandRanks(placement string) []string {
	ranks := strings.Split(placement, "/")
	for i, rank := range ranks {
		var row strings.Builder
		for _, char := range rank {
			if unicode.IsDigit(char) {
				row.WriteString(strings.Repeat(".", int(char-'0')))
				continue
			}

			row.WriteRune(char)
		}

		ranks[i] = row.String()
	}

	return ranks
}

// fenFields splits a fen into its six fields, filling in defaults for any
// missing trailing fields.
func fenFields(fen string) [6]string {
	fields := [6]string{"8/8/8/8/8/8/8/8", "w", "-", "-", "0", "1"}
	copy(fields[:], strings.Fields(fen))
	return fields
}

func sideName(side string) string {
	if side == "b" {
		return "Black"
	}

	return "White"
}

func gridFEN(fen string) string {
	fields := fenFields(fen)

	var grid strings.Builder
	for _, row := range expandRanks(fields[0]) {
		grid.WriteString(row)
		grid.WriteByte('\n')
	}

	fmt.Fprintf(&grid, "%s to move. Castling: %s. En passant: %s.", sideName(fields[1]), fields[2], fields[3])
	return grid.String()
}

var pieceNames = map[rune]string{
	'K': "White King", 'Q': "White Queen", 'R': "White Rook",
	'B': "White Bishop", 'N': "White Knight", 'P': "White Pawn",
	'k': "Black King", 'q': "Black Queen", 'r': "Black Rook",
	'b': "Black Bishop", 'n': "Black Knight", 'p': "Black Pawn",
}

func naturalFEN(fen string) string {
	fields := fenFields(fen)

	sentences := []string{sideName(fields[1]) + " to move."}

	for r, row := range expandRanks(fields[0]) {
		for c, piece := range row {
			if name, found := pieceNames[piece]; found {
				sentences = append(sentences, fmt.Sprintf("%s on %c%d.", name, 'a'+c, 8-r))
			}
		}
	}

	if castling := fields[2]; castling != "-" {
		rights := make([]string, 0, len(castling))
		for _, right := range castling {
			color, side := "Black", "Queen-side"
			if unicode.IsUpper(right) {
				color = "White"
			}

			if right == 'K' || right == 'k' {
				side = "King-side"
			}

			rights = append(rights, color+" "+side+" castling")
		}

		sentences = append(sentences, "Castling rights: "+strings.Join(rights, " ")+".")
	}

	if fields[3] != "-" {
		sentences = append(sentences, "En Passant available on "+fields[3]+".")
	}

	sentences = append(sentences, "Move number: "+fields[5]+".")
	return strings.Join(sentences, " ")
}
