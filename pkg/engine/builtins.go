package engine

import (
	"fmt"
	"sort"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/interlock/pkg/module"
	"github.com/chazu/interlock/pkg/part"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites a module script into plain zygomys:
//
//  1. :keyword becomes the string literal "__kw_keyword", so keywords
//     never collide with user variables.
//  2. Kebab-case identifiers become snake case (my-size -> my_size);
//     zygomys reads a bare hyphen as subtraction.
//  3. ; line comments become // comments.
//
// String literals are copied untouched.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ':' && i+1 < len(b) {
			// := is assignment, not a keyword.
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// A hyphen between identifier characters; anything else is minus.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 is returned by vec3.
type sexpVec3 struct {
	vec [3]float64
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec[0], v.vec[1], v.vec[2])
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpSocket is returned by socket.
type sexpSocket struct {
	spec part.SocketSpec
}

func (s *sexpSocket) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(socket :diameter %g :depth %g)", s.spec.Diameter, s.spec.Depth)
}
func (s *sexpSocket) Type() *zygo.RegisteredType { return nil }

// sexpPeg is returned by peg.
type sexpPeg struct {
	spec part.PegSpec
}

func (p *sexpPeg) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(peg :diameter %g :length %g)", p.spec.Diameter, p.spec.Length)
}
func (p *sexpPeg) Type() *zygo.RegisteredType { return nil }

// sexpModule is returned by interlock.
type sexpModule struct {
	params module.Params
}

func (m *sexpModule) SexpString(ps *zygo.PrintState) string {
	d := m.params.Dims
	return fmt.Sprintf("(interlock %gx%gx%g :split-at %g)", d.X, d.Y, d.Z, m.params.SplitAt)
}
func (m *sexpModule) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW reports whether s is a preprocessed keyword and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds a parsed argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// only rejects positional arguments and keywords outside allowed.
func (a kwArgs) only(fn string, allowed ...string) error {
	if len(a.positional) > 0 {
		return fmt.Errorf("%s takes keyword arguments only, got %s", fn, a.positional[0].SexpString(nil))
	}
	var unknown []string
	for name := range a.kw {
		known := false
		for _, k := range allowed {
			if name == k {
				known = true
				break
			}
		}
		if !known {
			unknown = append(unknown, ":"+name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%s: unknown keyword %s", fn, strings.Join(unknown, ", "))
	}
	return nil
}

// float sets *dst from keyword name when present.
func (a kwArgs) float(fn, name string, dst *float64) error {
	v, ok := a.kw[name]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", fn, name, err)
	}
	*dst = f
	return nil
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toDimensions accepts a vec3 or a single number for a cube.
func toDimensions(s zygo.Sexp) (part.Dimensions, error) {
	if v, ok := s.(*sexpVec3); ok {
		return part.Dimensions{X: v.vec[0], Y: v.vec[1], Z: v.vec[2]}, nil
	}
	f, err := toFloat64(s)
	if err != nil {
		return part.Dimensions{}, fmt.Errorf("expected vec3 or number, got %T (%s)", s, s.SexpString(nil))
	}
	return part.Dimensions{X: f, Y: f, Z: f}, nil
}

func toSocket(s zygo.Sexp) (part.SocketSpec, error) {
	if v, ok := s.(*sexpSocket); ok {
		return v.spec, nil
	}
	return part.SocketSpec{}, fmt.Errorf("expected socket, got %T (%s)", s, s.SexpString(nil))
}

func toPeg(s zygo.Sexp) (part.PegSpec, error) {
	if v, ok := s.(*sexpPeg); ok {
		return v.spec, nil
	}
	return part.PegSpec{}, fmt.Errorf("expected peg, got %T (%s)", s, s.SexpString(nil))
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// scriptState collects what a script defines.
type scriptState struct {
	params *module.Params
}

// registerBuiltins installs the module script builtins into env. Source
// must go through preprocessSource first so keywords are recognizable.
func registerBuiltins(env *zygo.Zlisp, st *scriptState) {
	defaults := module.DefaultParams()

	// -----------------------------------------------------------------------
	// (vec3 30 30 20)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var v sexpVec3
		for i, axis := range []string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
			}
			v.vec[i] = f
		}
		return &v, nil
	})

	// -----------------------------------------------------------------------
	// (socket :diameter 5 :depth 3)
	// -----------------------------------------------------------------------
	env.AddFunction("socket", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("socket", "diameter", "depth"); err != nil {
			return zygo.SexpNull, err
		}
		spec := defaults.Magnet
		if err := pa.float("socket", "diameter", &spec.Diameter); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.float("socket", "depth", &spec.Depth); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpSocket{spec: spec}, nil
	})

	// -----------------------------------------------------------------------
	// (peg :diameter 4 :length 6)
	// -----------------------------------------------------------------------
	env.AddFunction("peg", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if err := pa.only("peg", "diameter", "length"); err != nil {
			return zygo.SexpNull, err
		}
		spec := defaults.Peg
		if err := pa.float("peg", "diameter", &spec.Diameter); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.float("peg", "length", &spec.Length); err != nil {
			return zygo.SexpNull, err
		}
		return &sexpPeg{spec: spec}, nil
	})

	// -----------------------------------------------------------------------
	// (interlock :size (vec3 30 30 30)
	//            :magnet (socket :diameter 5 :depth 3)
	//            :peg (peg :diameter 4 :length 6)
	//            :split-at 15
	//            :secondary (socket :diameter 5 :depth 3)
	//            :clearance 0.1)
	// -----------------------------------------------------------------------
	env.AddFunction("interlock", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if st.params != nil {
			return zygo.SexpNull, fmt.Errorf("interlock: module already defined")
		}
		pa := parseArgs(args)
		if err := pa.only("interlock", "size", "magnet", "peg", "split-at", "secondary", "clearance"); err != nil {
			return zygo.SexpNull, err
		}

		p := defaults
		if v, ok := pa.kw["size"]; ok {
			d, err := toDimensions(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("interlock: size: %w", err)
			}
			p.Dims = d
		}
		if v, ok := pa.kw["magnet"]; ok {
			s, err := toSocket(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("interlock: magnet: %w", err)
			}
			p.Magnet = s
		}
		if v, ok := pa.kw["peg"]; ok {
			pg, err := toPeg(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("interlock: peg: %w", err)
			}
			p.Peg = pg
		}
		if v, ok := pa.kw["secondary"]; ok {
			s, err := toSocket(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("interlock: secondary: %w", err)
			}
			p.Secondary = s
		}
		p.SplitAt = p.Dims.Z / 2
		if err := pa.float("interlock", "split-at", &p.SplitAt); err != nil {
			return zygo.SexpNull, err
		}
		if err := pa.float("interlock", "clearance", &p.Clearance); err != nil {
			return zygo.SexpNull, err
		}

		st.params = &p
		return &sexpModule{params: p}, nil
	})
}
