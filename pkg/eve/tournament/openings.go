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

package tournament

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"

	"github.com/notnil/chess"

	"laptudirm.com/x/ladder/pkg/eve/match"
)

// Opening orders of a Book.
const (
	OrderSequential = "sequential"
	OrderRandom     = "random"
)

// Book is a list of opening positions.
type Book struct {
	entries []string
}

// NewBook reads the opening file with the given name, which holds one
// position per line in fen or epd. The openings are shuffled if strategy
// is "random". An empty name is a book with the standard starting
// position only.
func NewBook(name string, strategy string) (*Book, error) {
	if name == "" {
		return &Book{entries: []string{match.StartFEN}}, nil
	}

	file, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	book, err := ReadBook(file)
	if err != nil {
		return nil, fmt.Errorf("book %s: %w", name, err)
	}

	switch strategy {
	case OrderRandom:
		rand.Shuffle(len(book.entries), func(i, j int) {
			book.entries[i], book.entries[j] = book.entries[j], book.entries[i]
		})
	case OrderSequential, "":
	default:
		return nil, fmt.Errorf("book %s: invalid order %q", name, strategy)
	}

	return book, nil
}

// ReadBook reads the openings from r. Blank lines and lines starting with
// a '#' are ignored.
func ReadBook(r io.Reader) (*Book, error) {
	var book Book

	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		entry := strings.Trim(scanner.Text(), "\n\r\t ")
		if entry == "" || strings.HasPrefix(entry, "#") {
			continue
		}

		fen, err := epdToFEN(entry)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		book.entries = append(book.entries, fen)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if len(book.entries) == 0 {
		return nil, ErrNoOpenings
	}

	return &book, nil
}

// Openings returns the positions in the book.
func (book *Book) Openings() []string {
	return book.entries
}

// epdToFEN converts an epd record into a fen with its move counters, and
// checks that the position is valid.
func epdToFEN(entry string) (string, error) {
	fields := strings.Fields(entry)
	if len(fields) < 4 {
		return "", fmt.Errorf("invalid position %q", entry)
	}

	counters := []string{"0", "1"}
	if len(fields) >= 6 && isNumber(fields[4]) && isNumber(fields[5]) {
		counters = fields[4:6]
	}

	fen := strings.Join(append(fields[:4:4], counters...), " ")
	if _, err := chess.FEN(fen); err != nil {
		return "", err
	}

	return fen, nil
}

func isNumber(field string) bool {
	_, err := strconv.Atoi(field)
	return err == nil
}
