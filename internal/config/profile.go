package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/microflo/internal/board"
)

//go:embed schema.cue
var schemaSource string

// ProfileError reports a profile that fails to compile or to satisfy #Board.
type ProfileError struct {
	Source string
	Detail string
}

// Error implements the error interface.
func (e *ProfileError) Error() string {
	return fmt.Sprintf("board profile %s: %s", e.Source, e.Detail)
}

// ErrUnknownBoard is returned by Builtin for names it does not know.
var ErrUnknownBoard = errors.New("unknown board")

type schema struct {
	ctx   *cue.Context
	board cue.Value
	all   cue.Value
}

func compileSchema() (*schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile board schema: %w", err)
	}
	return &schema{
		ctx:   ctx,
		board: v.LookupPath(cue.ParsePath("#Board")),
		all:   v,
	}, nil
}

// ParseProfile compiles CUE source and validates it against #Board.
// filename is used in error messages only.
func ParseProfile(src []byte, filename string) (board.Profile, error) {
	s, err := compileSchema()
	if err != nil {
		return board.Profile{}, err
	}

	v := s.ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return board.Profile{}, cueError(filename, err)
	}
	return decode(filename, s.board.Unify(v))
}

// LoadProfile reads and parses a profile file.
func LoadProfile(path string) (board.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return board.Profile{}, fmt.Errorf("read board profile: %w", err)
	}
	return ParseProfile(data, path)
}

// Builtin returns one of the built-in board profiles.
func Builtin(name string) (board.Profile, error) {
	s, err := compileSchema()
	if err != nil {
		return board.Profile{}, err
	}

	v := s.all.LookupPath(cue.MakePath(cue.Str("boards"), cue.Str(name)))
	if !v.Exists() {
		return board.Profile{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownBoard, name, strings.Join(BuiltinNames(), ", "))
	}
	return decode(name, v)
}

// BuiltinNames lists the built-in board profiles, sorted.
func BuiltinNames() []string {
	s, err := compileSchema()
	if err != nil {
		return nil
	}

	iter, err := s.all.LookupPath(cue.ParsePath("boards")).Fields()
	if err != nil {
		return nil
	}
	var names []string
	for iter.Next() {
		names = append(names, iter.Selector().Unquoted())
	}
	sort.Strings(names)
	return names
}

// Resolve returns the profile named by arg: an existing file is loaded,
// anything else is looked up among the built-ins. An empty arg yields
// board.DefaultProfile.
func Resolve(arg string) (board.Profile, error) {
	if arg == "" {
		return board.DefaultProfile, nil
	}
	if _, err := os.Stat(arg); err == nil {
		return LoadProfile(arg)
	}
	return Builtin(arg)
}

func decode(source string, v cue.Value) (board.Profile, error) {
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return board.Profile{}, cueError(source, err)
	}

	var p board.Profile
	if err := v.Decode(&p); err != nil {
		return board.Profile{}, cueError(source, err)
	}
	if err := p.Validate(); err != nil {
		return board.Profile{}, &ProfileError{Source: source, Detail: err.Error()}
	}
	return p, nil
}

func cueError(source string, err error) error {
	return &ProfileError{
		Source: source,
		Detail: strings.TrimSpace(cueerrors.Details(err, nil)),
	}
}
