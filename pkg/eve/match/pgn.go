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

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/notnil/chess"
)

// PGN returns the record in Portable Game Notation, terminated by a
// newline.
func (record Record) PGN() string {
	var pgn strings.Builder

	result := record.Result
	if result == "" {
		result = chess.NoOutcome
	}

	writeTag := func(key, value string) {
		fmt.Fprintf(&pgn, "[%s \"%s\"]\n", key, escapeTag(value))
	}

	writeTag("Event", orUnknown(record.Event))
	writeTag("Site", orUnknown(record.Site))
	writeTag("Date", orUnknown(record.Date))
	writeTag("Round", "-")
	writeTag("White", orUnknown(record.White))
	writeTag("Black", orUnknown(record.Black))
	writeTag("Result", string(result))

	if record.ID != "" {
		writeTag("GameId", record.ID)
	}

	if record.Start != "" && record.Start != StartFEN {
		writeTag("SetUp", "1")
		writeTag("FEN", record.Start)
	}

	if record.Termination != Ongoing {
		writeTag("Termination", record.Termination.tag(result))
	}

	if record.Reason != "" {
		writeTag("Reason", record.Reason)
	}

	writeTag("PlyCount", strconv.Itoa(record.Plies()))
	pgn.WriteByte('\n')

	// movetext, wrapped at 80 columns
	number, black := moveNumber(record.Start)
	column := 0
	write := func(token string) {
		if column > 0 && column+1+len(token) > 80 {
			pgn.WriteByte('\n')
			column = 0
		} else if column > 0 {
			pgn.WriteByte(' ')
			column++
		}

		pgn.WriteString(token)
		column += len(token)
	}

	for i, move := range record.Moves {
		switch {
		case !black:
			write(strconv.Itoa(number) + ". " + move)
		case i == 0:
			write(strconv.Itoa(number) + "... " + move)
		default:
			write(move)
		}

		if black {
			number++
		}

		black = !black
	}

	write(string(result))
	pgn.WriteByte('\n')
	return pgn.String()
}

// moveNumber returns the fullmove number and whether Black is to move in
// the position given by fen.
func moveNumber(fen string) (int, bool) {
	fields := strings.Fields(fen)
	if len(fields) < 6 {
		return 1, len(fields) > 1 && fields[1] == "b"
	}

	number, err := strconv.Atoi(fields[5])
	if err != nil || number < 1 {
		number = 1
	}

	return number, fields[1] == "b"
}

func orUnknown(value string) string {
	if value == "" {
		return "?"
	}

	return value
}

var tagReplacer = strings.NewReplacer(`"`, `'`, `\`, `/`, `[`, `(`, `]`, `)`, "\n", " ")

func escapeTag(value string) string {
	return tagReplacer.Replace(value)
}

// WritePGN writes the records to w, separated by blank lines.
func WritePGN(w io.Writer, records ...Record) error {
	for _, record := range records {
		if _, err := io.WriteString(w, record.PGN()+"\n"); err != nil {
			return err
		}
	}

	return nil
}

// ReadPGN reads every game in r back into records.
func ReadPGN(r io.Reader) ([]Record, error) {
	games, err := splitGames(r)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(games))
	for i, text := range games {
		record, err := decodeRecord(text)
		if err != nil {
			return records, fmt.Errorf("pgn: game %d: %w", i+1, err)
		}

		records = append(records, record)
	}

	return records, nil
}

// splitGames splits a pgn file into the text of each of its games. A
// game starts at the first tag line following a movetext line.
func splitGames(r io.Reader) ([]string, error) {
	var games []string
	var current strings.Builder
	inMoves := false

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			// blank lines separate sections
		case strings.HasPrefix(line, "["):
			if inMoves {
				games = append(games, current.String())
				current.Reset()
				inMoves = false
			}
		default:
			if !inMoves {
				current.WriteByte('\n')
			}

			inMoves = true
		}

		if line != "" {
			current.WriteString(line)
			current.WriteByte('\n')
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(current.String()) != "" {
		games = append(games, current.String())
	}

	return games, nil
}

func decodeRecord(text string) (Record, error) {
	pgn, err := chess.PGN(strings.NewReader(text))
	if err != nil {
		return Record{}, err
	}

	game := chess.NewGame(pgn)
	tag := func(key string) string {
		// "?" marks a tag whose value is unknown
		if pair := game.GetTagPair(key); pair != nil && pair.Value != "?" {
			return pair.Value
		}

		return ""
	}

	record := Record{
		ID:          tag("GameId"),
		Event:       tag("Event"),
		Site:        tag("Site"),
		Date:        tag("Date"),
		White:       tag("White"),
		Black:       tag("Black"),
		Result:      chess.Outcome(tag("Result")),
		Start:       tag("FEN"),
		Termination: parseTermination(tag("Termination")),
		Reason:      tag("Reason"),
	}

	if record.Result == "" {
		record.Result = game.Outcome()
	}

	if record.Start == "" {
		record.Start = StartFEN
	}

	positions := game.Positions()
	for i, move := range game.Moves() {
		record.Moves = append(record.Moves, chess.AlgebraicNotation{}.Encode(positions[i], move))
	}

	return record, nil
}

// PGNWriter appends records to a shared pgn stream. It is safe for use by
// multiple goroutines.
type PGNWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewPGNWriter creates a PGNWriter writing to w.
func NewPGNWriter(w io.Writer) *PGNWriter {
	return &PGNWriter{w: w}
}

// OpenPGN opens the pgn file at path for appending, creating it if
// needed.
func OpenPGN(path string) (*PGNWriter, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return NewPGNWriter(file), nil
}

// Write appends the record to the stream.
func (writer *PGNWriter) Write(record Record) error {
	writer.mu.Lock()
	defer writer.mu.Unlock()
	return WritePGN(writer.w, record)
}

// Close closes the underlying stream if it can be closed.
func (writer *PGNWriter) Close() error {
	writer.mu.Lock()
	defer writer.mu.Unlock()

	if closer, ok := writer.w.(io.Closer); ok {
		return closer.Close()
	}

	return nil
}

// ReadPGNFile reads every game in the pgn file at path.
func ReadPGNFile(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return ReadPGN(file)
}
