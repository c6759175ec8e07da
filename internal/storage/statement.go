package storage

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the fixed-width UTC layout QuestDB uses for timestamps in
// textual results. Lexical order of values in this layout equals time order.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

const placeholder = '?'

var (
	// ErrPlaceholderMismatch indicates the number of placeholders differs from the supplied arguments.
	ErrPlaceholderMismatch = errors.New("storage: placeholder count does not match arguments")
	// ErrInvalidIdentifier indicates a table or column name outside the identifier allow-list.
	ErrInvalidIdentifier = errors.New("storage: invalid identifier")

	identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

type valueKind int

const (
	kindString valueKind = iota + 1
	kindInt
	kindTimestamp
)

// Value is a typed statement argument. Integers and timestamps can only be
// built from Go numeric and time values, so they never carry raw client text.
type Value struct {
	kind    valueKind
	text    string
	number  int64
	instant time.Time
}

// String wraps a string argument.
func String(value string) Value {
	return Value{kind: kindString, text: value}
}

// Int wraps an integer argument.
func Int(value int64) Value {
	return Value{kind: kindInt, number: value}
}

// Timestamp wraps a timestamp argument, truncated to microseconds.
func Timestamp(value time.Time) Value {
	return Value{kind: kindTimestamp, instant: value.UTC().Truncate(time.Microsecond)}
}

// IsString reports whether the value wraps a string.
func (v Value) IsString() bool { return v.kind == kindString }

// IsInt reports whether the value wraps an integer.
func (v Value) IsInt() bool { return v.kind == kindInt }

// IsTimestamp reports whether the value wraps a timestamp.
func (v Value) IsTimestamp() bool { return v.kind == kindTimestamp }

// Text returns the wrapped string.
func (v Value) Text() string { return v.text }

// Number returns the wrapped integer.
func (v Value) Number() int64 { return v.number }

// Instant returns the wrapped timestamp.
func (v Value) Instant() time.Time { return v.instant }

// Native returns the value as a driver argument for transports with parameter binding.
func (v Value) Native() any {
	switch v.kind {
	case kindInt:
		return v.number
	case kindTimestamp:
		return v.instant
	default:
		return v.text
	}
}

// Literal renders the value for transports without parameter binding.
func (v Value) Literal() string {
	switch v.kind {
	case kindInt:
		return strconv.FormatInt(v.number, 10)
	case kindTimestamp:
		return QuoteString(FormatTimestamp(v.instant))
	default:
		return QuoteString(v.text)
	}
}

// QuoteString wraps value in single quotes, doubling embedded quotes.
func QuoteString(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Truncate(time.Microsecond).Format(TimestampLayout)
}

// ParseTimestamp converts a result cell into a time. Cells arrive as
// time.Time over PG wire, as text over HTTP and SQLite, and occasionally as
// epoch microseconds.
func ParseTimestamp(cell any) (time.Time, error) {
	switch value := cell.(type) {
	case time.Time:
		return value.UTC(), nil
	case string:
		parsed, err := time.Parse(TimestampLayout, value)
		if err == nil {
			return parsed.UTC(), nil
		}
		parsed, err = time.Parse(time.RFC3339Nano, value)
		if err != nil {
			return time.Time{}, fmt.Errorf("storage: parse timestamp %q: %w", value, err)
		}
		return parsed.UTC(), nil
	case int64:
		return time.UnixMicro(value).UTC(), nil
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("storage: unsupported timestamp cell %T", cell)
	}
}

// ValidIdentifier reports whether name may be embedded as a table or column name.
func ValidIdentifier(name string) bool {
	return identifierPattern.MatchString(name)
}

// Statement is a query with '?' placeholders and typed arguments.
type Statement struct {
	Text string
	Args []Value
}

// NewStatement builds a statement.
func NewStatement(text string, args ...Value) Statement {
	return Statement{Text: text, Args: args}
}

// Inline renders every placeholder as a literal.
func (s Statement) Inline() (string, error) {
	return s.rewrite(func(index int) string {
		return s.Args[index].Literal()
	})
}

// Numbered rewrites placeholders to $1..$n and returns native arguments.
func (s Statement) Numbered() (string, []any, error) {
	text, err := s.rewrite(func(index int) string {
		return "$" + strconv.Itoa(index+1)
	})
	if err != nil {
		return "", nil, err
	}
	return text, s.nativeArgs(), nil
}

// Positional keeps '?' placeholders and returns native arguments.
func (s Statement) Positional() (string, []any, error) {
	if _, err := s.rewrite(func(int) string { return "?" }); err != nil {
		return "", nil, err
	}
	return s.Text, s.nativeArgs(), nil
}

func (s Statement) nativeArgs() []any {
	args := make([]any, 0, len(s.Args))
	for _, arg := range s.Args {
		args = append(args, arg.Native())
	}
	return args
}

// rewrite replaces placeholders outside quoted literals.
func (s Statement) rewrite(replace func(index int) string) (string, error) {
	var builder strings.Builder
	builder.Grow(len(s.Text))
	index := 0
	quoted := false
	for i := 0; i < len(s.Text); i++ {
		char := s.Text[i]
		switch {
		case char == '\'':
			quoted = !quoted
			builder.WriteByte(char)
		case char == placeholder && !quoted:
			if index >= len(s.Args) {
				return "", fmt.Errorf("%w: more than %d placeholders", ErrPlaceholderMismatch, len(s.Args))
			}
			builder.WriteString(replace(index))
			index++
		default:
			builder.WriteByte(char)
		}
	}
	if index != len(s.Args) {
		return "", fmt.Errorf("%w: %d placeholders, %d arguments", ErrPlaceholderMismatch, index, len(s.Args))
	}
	return builder.String(), nil
}
