package nibble

import (
	"fmt"
	"strconv"
	"strings"
)

// String renders the state as 16 hex digits, cell 0 first.
func (s State) String() string {
	var sb strings.Builder
	sb.Grow(StateSize)
	for _, c := range s {
		sb.WriteByte("0123456789abcdef"[c&mask])
	}
	return sb.String()
}

func (c Cell) String() string {
	return strconv.FormatUint(uint64(c&mask), 16)
}

// ParseState reads 16 hex digits into a state, first digit into cell 0.
func ParseState(hex string) (State, error) {
	return parseState(hex, false)
}

// ParseStateReversed reads 16 hex digits with the last digit going into cell 0.
func ParseStateReversed(hex string) (State, error) {
	return parseState(hex, true)
}

func parseState(hex string, reversed bool) (State, error) {
	var s State
	hex = strings.TrimSpace(hex)
	if len(hex) > 2 && (hex[:2] == "0x" || hex[:2] == "0X") {
		hex = hex[2:]
	}
	if len(hex) != StateSize {
		return s, fmt.Errorf("nibble: state %q has %d hex digits, want %d", hex, len(hex), StateSize)
	}
	for i := 0; i < StateSize; i++ {
		v, err := strconv.ParseUint(hex[i:i+1], 16, 4)
		if err != nil {
			return s, fmt.Errorf("nibble: bad hex digit %q at %d: %w", hex[i], i, err)
		}
		if reversed {
			s[StateSize-1-i] = Cell(v)
		} else {
			s[i] = Cell(v)
		}
	}
	return s, nil
}
