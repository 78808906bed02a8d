// Package coord provides 1-based line/character addressing for document
// buffers, including reverse (negative) indexing and range arithmetic.
package coord

// Position is a 1-based location in a document.
//
// A value of 0 on either axis is never valid. A negative value counts
// from the end of the axis: Line -1 is the last line, Character -1 is
// the end-of-line slot (one past the last character). Negative values
// must be resolved against the current buffer bounds before use.
type Position struct {
	Line      int `json:"line"`
	Character int `json:"character"`
}

// IsBefore reports whether p sorts strictly before other.
// Both positions must be resolved.
func (p Position) IsBefore(other Position) bool {
	if p.Line != other.Line {
		return p.Line < other.Line
	}
	return p.Character < other.Character
}

// IsBeforeOrEqual reports whether p sorts before or equal to other.
func (p Position) IsBeforeOrEqual(other Position) bool {
	return p == other || p.IsBefore(other)
}

// Resolve turns a possibly-negative Position into concrete 1-based
// coordinates for a document with lineCount lines where the target line
// holds lineLength characters.
func (p Position) Resolve(lineCount, lineLength int) (Position, error) {
	line, err := ResolveLine(p.Line, lineCount)
	if err != nil {
		return Position{}, err
	}
	ch, err := ResolveCharacter(p.Character, lineLength)
	if err != nil {
		return Position{}, err
	}
	return Position{Line: line, Character: ch}, nil
}

// ResolveLine resolves a 1-based or negative line index against lineCount.
func ResolveLine(line, lineCount int) (int, error) {
	if line == 0 {
		return 0, &CoordinateError{Axis: AxisLine, Value: 0, Nearest: 1, Bound: lineCount}
	}
	if abs(line) > lineCount {
		nearest := lineCount
		if line < 0 {
			nearest = 1
		}
		return 0, &CoordinateError{Axis: AxisLine, Value: line, Nearest: nearest, Bound: lineCount}
	}
	if line < 0 {
		return lineCount + line + 1, nil
	}
	return line, nil
}

// ResolveCharacter resolves a 1-based or negative character index against
// the length of the target line. lineLength+1 is the end-of-line slot, so
// the valid magnitude range is [1, lineLength+1].
func ResolveCharacter(ch, lineLength int) (int, error) {
	if ch == 0 {
		return 0, &CoordinateError{Axis: AxisCharacter, Value: 0, Nearest: 1, Bound: lineLength + 1}
	}
	if abs(ch) > lineLength+1 {
		nearest := lineLength + 1
		if ch < 0 {
			nearest = 1
		}
		return 0, &CoordinateError{Axis: AxisCharacter, Value: ch, Nearest: nearest, Bound: lineLength + 1}
	}
	if ch < 0 {
		return lineLength + ch + 2, nil
	}
	return ch, nil
}

// FromLSP converts a 0-based wire position to a 1-based Position.
func FromLSP(line, character int) Position {
	return Position{Line: line + 1, Character: character + 1}
}

// ToLSP converts a resolved Position to 0-based wire coordinates.
func (p Position) ToLSP() (line, character int) {
	return p.Line - 1, p.Character - 1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
