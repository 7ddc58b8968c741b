// Package console is the terminal side of a game: it asks the local player for a cell and
// draws the board.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/rocketscienceinc/multisig-tictactoe/internal/entity"
)

var (
	ErrInvalidRowCol = errors.New("expected 0, 1, 2, first, second or third")
	ErrInputClosed   = errors.New("input closed")
)

// ParseRowCol reads a row or column index.
func ParseRowCol(s string) (uint8, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "first":
		return 0, nil
	case "1", "second":
		return 1, nil
	case "2", "third":
		return 2, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidRowCol, s)
	}
}

type Prompter struct {
	out io.Writer
	in  *bufio.Scanner

	once  sync.Once
	lines chan string
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		out:   out,
		in:    bufio.NewScanner(in),
		lines: make(chan string),
	}
}

// ChooseCell shows the board and asks for a row and a column until both parse.
func (that *Prompter) ChooseCell(ctx context.Context, game *entity.Game) (uint8, uint8, error) {
	if err := RenderBoard(that.out, game); err != nil {
		return 0, 0, err
	}

	row, err := that.ask(ctx, "row")
	if err != nil {
		return 0, 0, err
	}

	col, err := that.ask(ctx, "column")
	if err != nil {
		return 0, 0, err
	}

	return row, col, nil
}

func (that *Prompter) ask(ctx context.Context, what string) (uint8, error) {
	for {
		fmt.Fprintf(that.out, "Enter %s number (0-2) : ", what)

		line, err := that.readLine(ctx)
		if err != nil {
			return 0, err
		}

		v, err := ParseRowCol(line)
		if err == nil {
			return v, nil
		}
		fmt.Fprintln(that.out, err)
	}
}

// readLine waits for the next input line or for ctx to end, whichever comes first.
func (that *Prompter) readLine(ctx context.Context) (string, error) {
	that.once.Do(func() {
		go func() {
			defer close(that.lines)
			for that.in.Scan() {
				that.lines <- that.in.Text()
			}
		}()
	})

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-that.lines:
		if !ok {
			return "", ErrInputClosed
		}
		return line, nil
	}
}

// RenderBoard draws the board with row and column headers. Cells are stored column-major.
func RenderBoard(w io.Writer, game *entity.Game) error {
	var sb strings.Builder

	sb.WriteString("     0     1     2\n")
	sb.WriteString("  ┌-----┬-----┬-----┐\n")
	for row := uint8(0); row < 3; row++ {
		sb.WriteString(strconv.Itoa(int(row)) + " ")
		for col := uint8(0); col < 3; col++ {
			fmt.Fprintf(&sb, "|  %s  ", game.CellAt(row, col))
		}
		sb.WriteString("|\n")
		if row < 2 {
			sb.WriteString("  ├-----┼-----┼-----┤\n")
		}
	}
	sb.WriteString("  └-----┴-----┴-----┘\n")

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("failed to render board: %w", err)
	}
	return nil
}

// Outcome describes a finished game.
func Outcome(status entity.Status) string {
	switch status {
	case entity.StatusWinnerX:
		return "X won!"
	case entity.StatusWinnerO:
		return "O won!"
	case entity.StatusDraw:
		return "Draw"
	default:
		return "Game in progress"
	}
}
