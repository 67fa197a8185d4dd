package engine

import (
	"fmt"
	"strings"

	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/perran/datum/pkg/doc"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms Datum script source code before passing it
// to zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: linear-pattern -> linear_pattern
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
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
		// Skip backtick-quoted string literals.
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
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
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
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
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

// sexpNode wraps a document node handle so builtins can chain operations.
type sexpNode struct {
	id  doc.NodeID
	tag string // op type tag, for display and mismatch errors
}

func (n *sexpNode) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(node %d %s)", n.id, n.tag)
}
func (n *sexpNode) Type() *zygo.RegisteredType { return nil }

// sexpVec3 wraps a doc.Vec3.
type sexpVec3 struct {
	vec doc.Vec3
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %.1f %.1f %.1f)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpVec2 wraps a sketch-plane point.
type sexpVec2 struct {
	pt doc.Vec2
}

func (v *sexpVec2) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec2 %.1f %.1f)", v.pt.X, v.pt.Y)
}
func (v *sexpVec2) Type() *zygo.RegisteredType { return nil }

// sexpSegment wraps one sketch segment produced by `line` or `arc`.
type sexpSegment struct {
	seg doc.SketchSegment
}

func (s *sexpSegment) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s (%.1f %.1f) (%.1f %.1f))",
		s.seg.Kind, s.seg.Start.X, s.seg.Start.Y, s.seg.End.X, s.seg.End.Y)
}
func (s *sexpSegment) Type() *zygo.RegisteredType { return nil }

// sexpSegments wraps a run of segments produced by the `rect` and
// `circle` profile helpers.
type sexpSegments struct {
	segs []doc.SketchSegment
}

func (s *sexpSegments) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(segments %d)", len(s.segs))
}
func (s *sexpSegments) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
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

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
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
				// Keyword at end with no value, treat as flag with nil.
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

// toInt extracts an int from a SexpInt.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toBool extracts a bool from a SexpBool.
func toBool(s zygo.Sexp) (bool, error) {
	if v, ok := s.(*zygo.SexpBool); ok {
		return v.Val, nil
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_steel) and plain strings ("steel").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toVec3 extracts a Vec3 from a sexpVec3.
func toVec3(s zygo.Sexp) (doc.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return doc.Vec3{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toVec2 extracts a Vec2 from a sexpVec2.
func toVec2(s zygo.Sexp) (doc.Vec2, error) {
	if v, ok := s.(*sexpVec2); ok {
		return v.pt, nil
	}
	return doc.Vec2{}, fmt.Errorf("expected vec2, got %T (%s)", s, s.SexpString(nil))
}

// toSizeVec accepts a vec3 or a single number meaning a uniform size.
func toSizeVec(s zygo.Sexp) (doc.Vec3, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	if f, err := toFloat64(s); err == nil {
		return doc.Vec3{X: f, Y: f, Z: f}, nil
	}
	return doc.Vec3{}, fmt.Errorf("expected vec3 or number, got %T (%s)", s, s.SexpString(nil))
}

// toNode extracts a NodeID from a sexpNode.
func toNode(s zygo.Sexp) (doc.NodeID, error) {
	if n, ok := s.(*sexpNode); ok {
		return n.id, nil
	}
	return 0, fmt.Errorf("expected solid or sketch reference, got %T (%s)", s, s.SexpString(nil))
}

// toSketch extracts a NodeID from a sexpNode and verifies the node it
// names is a sketch. Catching the mismatch here gives the script author
// an error at the offending call instead of a later evaluation failure.
func toSketch(d *doc.Document, s zygo.Sexp) (doc.NodeID, error) {
	id, err := toNode(s)
	if err != nil {
		return 0, err
	}
	n := d.Get(id)
	if n == nil {
		return 0, fmt.Errorf("node %d does not exist", id)
	}
	if _, ok := n.Op.(doc.SketchOp); !ok {
		return 0, fmt.Errorf("node %d is %s, not a sketch", id, doc.OpType(n.Op))
	}
	return id, nil
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs all Datum script builtins into a zygomys
// environment. The builtins operate on the provided document, populating
// it during evaluation. Geometry builtins allocate a node per call and
// return a reference; `part` names a node and registers it as a scene
// root; `material` extends the document's material table.
//
// Source code must be preprocessed with preprocessSource() before
// evaluation so that :keyword tokens are converted to recognizable
// string literals.
func registerBuiltins(env *zygo.Zlisp, d *doc.Document) {

	// node allocates a document node for an op and wraps its handle.
	node := func(op doc.Op) zygo.Sexp {
		n := d.NewNode("", op)
		return &sexpNode{id: n.ID, tag: doc.OpType(op)}
	}

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: y: %w", err)
		}
		z, err := toFloat64(args[2])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec3: z: %w", err)
		}
		return &sexpVec3{vec: doc.Vec3{X: x, Y: y, Z: z}}, nil
	})

	// -----------------------------------------------------------------------
	// (vec2 10 5)
	// -----------------------------------------------------------------------
	env.AddFunction("vec2", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("vec2 requires exactly 2 arguments, got %d", len(args))
		}
		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec2: y: %w", err)
		}
		return &sexpVec2{pt: doc.Vec2{X: x, Y: y}}, nil
	})

	// -----------------------------------------------------------------------
	// (cube :size (vec3 40 20 10))  or  (cube :size 25) for a uniform cube
	// -----------------------------------------------------------------------
	env.AddFunction("cube", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		op := doc.CubeOp{}
		if v, ok := pa.kw["size"]; ok {
			sz, err := toSizeVec(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cube: size: %w", err)
			}
			op.Size = sz
		}
		return node(op), nil
	})

	// -----------------------------------------------------------------------
	// (cylinder :radius 5 :height 20 :segments 64)
	// -----------------------------------------------------------------------
	env.AddFunction("cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		op := doc.CylinderOp{}
		if v, ok := pa.kw["radius"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: radius: %w", err)
			}
			op.Radius = f
		}
		if v, ok := pa.kw["height"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: height: %w", err)
			}
			op.Height = f
		}
		if v, ok := pa.kw["segments"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cylinder: segments: %w", err)
			}
			op.Segments = n
		}
		return node(op), nil
	})

	// -----------------------------------------------------------------------
	// (sphere :radius 8 :segments 48)
	// -----------------------------------------------------------------------
	env.AddFunction("sphere", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		op := doc.SphereOp{}
		if v, ok := pa.kw["radius"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sphere: radius: %w", err)
			}
			op.Radius = f
		}
		if v, ok := pa.kw["segments"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sphere: segments: %w", err)
			}
			op.Segments = n
		}
		return node(op), nil
	})

	// -----------------------------------------------------------------------
	// (cone :bottom-radius 8 :top-radius 2 :height 15 :segments 64)
	// -----------------------------------------------------------------------
	env.AddFunction("cone", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		op := doc.ConeOp{}
		if v, ok := pa.kw["bottom-radius"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cone: bottom-radius: %w", err)
			}
			op.BottomRadius = f
		}
		if v, ok := pa.kw["top-radius"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cone: top-radius: %w", err)
			}
			op.TopRadius = f
		}
		if v, ok := pa.kw["height"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cone: height: %w", err)
			}
			op.Height = f
		}
		if v, ok := pa.kw["segments"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("cone: segments: %w", err)
			}
			op.Segments = n
		}
		return node(op), nil
	})

	// -----------------------------------------------------------------------
	// (empty-solid)
	//
	// Note: registered as "empty_solid" because zygomys does not support
	// hyphens in identifiers. The preprocessor converts the kebab form in
	// the source; the same applies to the other hyphenated builtins below.
	// -----------------------------------------------------------------------
	env.AddFunction("empty_solid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 0 {
			return zygo.SexpNull, fmt.Errorf("empty-solid takes no arguments, got %d", len(args))
		}
		return node(doc.EmptyOp{}), nil
	})

	// -----------------------------------------------------------------------
	// (union a b ...)  (difference a b ...)  (intersection a b ...)
	//
	// The document stores binary booleans; extra arguments fold left, so
	// (difference a b c) builds ((a - b) - c).
	// -----------------------------------------------------------------------
	boolean := func(tag string, mk func(a, b doc.NodeID) doc.Op) func(*zygo.Zlisp, string, []zygo.Sexp) (zygo.Sexp, error) {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			if len(args) < 2 {
				return zygo.SexpNull, fmt.Errorf("%s requires at least 2 solids, got %d", tag, len(args))
			}
			acc, err := toNode(args[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: argument 1: %w", tag, err)
			}
			for i := 1; i < len(args); i++ {
				b, err := toNode(args[i])
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: argument %d: %w", tag, i+1, err)
				}
				acc = d.NewNode("", mk(acc, b)).ID
			}
			return &sexpNode{id: acc, tag: tag}, nil
		}
	}
	env.AddFunction("union", boolean(doc.OpUnion, func(a, b doc.NodeID) doc.Op {
		return doc.UnionOp{A: a, B: b}
	}))
	env.AddFunction("difference", boolean(doc.OpDifference, func(a, b doc.NodeID) doc.Op {
		return doc.DifferenceOp{A: a, B: b}
	}))
	env.AddFunction("intersection", boolean(doc.OpIntersection, func(a, b doc.NodeID) doc.Op {
		return doc.IntersectionOp{A: a, B: b}
	}))

	// -----------------------------------------------------------------------
	// (translate solid :by (vec3 0 0 10))
	// -----------------------------------------------------------------------
	env.AddFunction("translate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("translate requires a solid reference")
		}
		child, err := toNode(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("translate: %w", err)
		}
		op := doc.TranslateOp{Child: child}
		if v, ok := pa.kw["by"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("translate: by: %w", err)
			}
			op.Offset = vec
		}
		return node(op), nil
	})

	// -----------------------------------------------------------------------
	// (rotate solid :angles (vec3 0 0 90))   degrees, applied X then Y then Z
	// -----------------------------------------------------------------------
	env.AddFunction("rotate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("rotate requires a solid reference")
		}
		child, err := toNode(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rotate: %w", err)
		}
		op := doc.RotateOp{Child: child}
		if v, ok := pa.kw["angles"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("rotate: angles: %w", err)
			}
			op.Angles = vec
		}
		return node(op), nil
	})

	// -----------------------------------------------------------------------
	// (scale solid :factor (vec3 1 1 2))  or  (scale solid :factor 2)
	//
	// A missing factor leaves the child unscaled.
	// -----------------------------------------------------------------------
	env.AddFunction("scale", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("scale requires a solid reference")
		}
		child, err := toNode(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("scale: %w", err)
		}
		op := doc.ScaleOp{Child: child, Factor: doc.Vec3{X: 1, Y: 1, Z: 1}}
		if v, ok := pa.kw["factor"]; ok {
			vec, err := toSizeVec(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("scale: factor: %w", err)
			}
			op.Factor = vec
		}
		return node(op), nil
	})

	// -----------------------------------------------------------------------
	// (shell solid :thickness 2)  (fillet solid :radius 1)  (chamfer solid :distance 1)
	// -----------------------------------------------------------------------
	feature := func(tag, kw string, mk func(child doc.NodeID, v float64) doc.Op) func(*zygo.Zlisp, string, []zygo.Sexp) (zygo.Sexp, error) {
		return func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			if len(pa.positional) < 1 {
				return zygo.SexpNull, fmt.Errorf("%s requires a solid reference", tag)
			}
			child, err := toNode(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", tag, err)
			}
			v := 0.0
			if s, ok := pa.kw[kw]; ok {
				v, err = toFloat64(s)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("%s: %s: %w", tag, kw, err)
				}
			}
			return node(mk(child, v)), nil
		}
	}
	env.AddFunction("shell", feature(doc.OpShell, "thickness", func(c doc.NodeID, v float64) doc.Op {
		return doc.ShellOp{Child: c, Thickness: v}
	}))
	env.AddFunction("fillet", feature(doc.OpFillet, "radius", func(c doc.NodeID, v float64) doc.Op {
		return doc.FilletOp{Child: c, Radius: v}
	}))
	env.AddFunction("chamfer", feature(doc.OpChamfer, "distance", func(c doc.NodeID, v float64) doc.Op {
		return doc.ChamferOp{Child: c, Distance: v}
	}))

	// -----------------------------------------------------------------------
	// (linear-pattern solid :direction (vec3 1 0 0) :count 4 :spacing 12)
	// -----------------------------------------------------------------------
	env.AddFunction("linear_pattern", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("linear-pattern requires a solid reference")
		}
		child, err := toNode(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("linear-pattern: %w", err)
		}
		op := doc.LinearPatternOp{Child: child}
		if v, ok := pa.kw["direction"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("linear-pattern: direction: %w", err)
			}
			op.Direction = vec
		}
		if v, ok := pa.kw["count"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("linear-pattern: count: %w", err)
			}
			op.Count = n
		}
		if v, ok := pa.kw["spacing"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("linear-pattern: spacing: %w", err)
			}
			op.Spacing = f
		}
		return node(op), nil
	})

	// -----------------------------------------------------------------------
	// (circular-pattern solid :axis-origin (vec3 0 0 0) :axis-dir (vec3 0 0 1)
	//                   :count 6 :angle 360)
	// -----------------------------------------------------------------------
	env.AddFunction("circular_pattern", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("circular-pattern requires a solid reference")
		}
		child, err := toNode(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circular-pattern: %w", err)
		}
		op := doc.CircularPatternOp{Child: child}
		if v, ok := pa.kw["axis-origin"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("circular-pattern: axis-origin: %w", err)
			}
			op.AxisOrigin = vec
		}
		if v, ok := pa.kw["axis-dir"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("circular-pattern: axis-dir: %w", err)
			}
			op.AxisDir = vec
		}
		if v, ok := pa.kw["count"]; ok {
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("circular-pattern: count: %w", err)
			}
			op.Count = n
		}
		if v, ok := pa.kw["angle"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("circular-pattern: angle: %w", err)
			}
			op.AngleDeg = f
		}
		return node(op), nil
	})

	// -----------------------------------------------------------------------
	// (line (vec2 0 0) (vec2 10 0))
	// -----------------------------------------------------------------------
	env.AddFunction("line", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("line requires start and end points, got %d arguments", len(args))
		}
		start, err := toVec2(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("line: start: %w", err)
		}
		end, err := toVec2(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("line: end: %w", err)
		}
		return &sexpSegment{seg: doc.SketchSegment{
			Kind:  doc.SegmentLine,
			Start: start,
			End:   end,
		}}, nil
	})

	// -----------------------------------------------------------------------
	// (arc (vec2 10 0) (vec2 0 10) :center (vec2 0 0) :ccw false)
	//
	// Arcs default to counterclockwise winding.
	// -----------------------------------------------------------------------
	env.AddFunction("arc", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) != 2 {
			return zygo.SexpNull, fmt.Errorf("arc requires start and end points, got %d", len(pa.positional))
		}
		seg := doc.SketchSegment{Kind: doc.SegmentArc, CCW: true}
		start, err := toVec2(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("arc: start: %w", err)
		}
		seg.Start = start
		end, err := toVec2(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("arc: end: %w", err)
		}
		seg.End = end
		if v, ok := pa.kw["center"]; ok {
			c, err := toVec2(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("arc: center: %w", err)
			}
			seg.Center = c
		}
		if v, ok := pa.kw["ccw"]; ok {
			ccw, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("arc: ccw: %w", err)
			}
			seg.CCW = ccw
		}
		return &sexpSegment{seg: seg}, nil
	})

	// -----------------------------------------------------------------------
	// (rect 40 20)
	//
	// Four line segments with the minimum corner at the sketch origin,
	// wound counterclockwise.
	// -----------------------------------------------------------------------
	env.AddFunction("rect", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("rect requires width and height, got %d arguments", len(args))
		}
		w, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rect: width: %w", err)
		}
		h, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("rect: height: %w", err)
		}
		return &sexpSegments{segs: []doc.SketchSegment{
			{Kind: doc.SegmentLine, Start: doc.Vec2{}, End: doc.Vec2{X: w}},
			{Kind: doc.SegmentLine, Start: doc.Vec2{X: w}, End: doc.Vec2{X: w, Y: h}},
			{Kind: doc.SegmentLine, Start: doc.Vec2{X: w, Y: h}, End: doc.Vec2{Y: h}},
			{Kind: doc.SegmentLine, Start: doc.Vec2{Y: h}, End: doc.Vec2{}},
		}}, nil
	})

	// -----------------------------------------------------------------------
	// (circle 10)
	//
	// A full circle centered on the sketch origin, as two half arcs.
	// -----------------------------------------------------------------------
	env.AddFunction("circle", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("circle requires a radius, got %d arguments", len(args))
		}
		r, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("circle: radius: %w", err)
		}
		return &sexpSegments{segs: []doc.SketchSegment{
			{Kind: doc.SegmentArc, Start: doc.Vec2{X: r}, End: doc.Vec2{X: -r}, CCW: true},
			{Kind: doc.SegmentArc, Start: doc.Vec2{X: -r}, End: doc.Vec2{X: r}, CCW: true},
		}}, nil
	})

	// -----------------------------------------------------------------------
	// (sketch :origin (vec3 0 0 0) :x-dir (vec3 1 0 0) :y-dir (vec3 0 1 0)
	//         (line ...) (arc ...) ...)
	//
	// The plane defaults to world XY. Segment arguments may be single
	// segments or the runs produced by rect and circle.
	// -----------------------------------------------------------------------
	env.AddFunction("sketch", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		op := doc.SketchOp{XDir: doc.Vec3{X: 1}, YDir: doc.Vec3{Y: 1}}
		if v, ok := pa.kw["origin"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sketch: origin: %w", err)
			}
			op.Origin = vec
		}
		if v, ok := pa.kw["x-dir"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sketch: x-dir: %w", err)
			}
			op.XDir = vec
		}
		if v, ok := pa.kw["y-dir"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sketch: y-dir: %w", err)
			}
			op.YDir = vec
		}
		for i, a := range pa.positional {
			switch v := a.(type) {
			case *sexpSegment:
				op.Segments = append(op.Segments, v.seg)
			case *sexpSegments:
				op.Segments = append(op.Segments, v.segs...)
			default:
				return zygo.SexpNull, fmt.Errorf("sketch: segment %d: expected segment, got %T (%s)",
					i+1, a, a.SexpString(nil))
			}
		}
		if len(op.Segments) == 0 {
			return zygo.SexpNull, fmt.Errorf("sketch requires at least one segment")
		}
		return node(op), nil
	})

	// -----------------------------------------------------------------------
	// (extrude sketch :direction (vec3 0 0 10))
	// -----------------------------------------------------------------------
	env.AddFunction("extrude", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("extrude requires a sketch reference")
		}
		sk, err := toSketch(d, pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("extrude: %w", err)
		}
		op := doc.ExtrudeOp{Sketch: sk}
		if v, ok := pa.kw["direction"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("extrude: direction: %w", err)
			}
			op.Direction = vec
		}
		return node(op), nil
	})

	// -----------------------------------------------------------------------
	// (revolve sketch :axis-origin (vec3 0 0 0) :axis-dir (vec3 0 0 1) :angle 360)
	//
	// The angle defaults to a full revolution.
	// -----------------------------------------------------------------------
	env.AddFunction("revolve", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("revolve requires a sketch reference")
		}
		sk, err := toSketch(d, pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("revolve: %w", err)
		}
		op := doc.RevolveOp{Sketch: sk, AngleDeg: 360}
		if v, ok := pa.kw["axis-origin"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("revolve: axis-origin: %w", err)
			}
			op.AxisOrigin = vec
		}
		if v, ok := pa.kw["axis-dir"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("revolve: axis-dir: %w", err)
			}
			op.AxisDir = vec
		}
		if v, ok := pa.kw["angle"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("revolve: angle: %w", err)
			}
			op.AngleDeg = f
		}
		return node(op), nil
	})

	// -----------------------------------------------------------------------
	// (sweep sketch :from (vec3 0 0 0) :to (vec3 0 0 50)
	//        :twist 90 :scale-start 1 :scale-end 0.5)
	// -----------------------------------------------------------------------
	env.AddFunction("sweep", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("sweep requires a sketch reference")
		}
		sk, err := toSketch(d, pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sweep: %w", err)
		}
		op := doc.SweepOp{Sketch: sk, Path: doc.SweepPath{Kind: doc.PathLine}}
		if v, ok := pa.kw["from"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sweep: from: %w", err)
			}
			op.Path.Start = vec
		}
		if v, ok := pa.kw["to"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sweep: to: %w", err)
			}
			op.Path.End = vec
		}
		if err := sweepCommon(&op, pa, "sweep"); err != nil {
			return zygo.SexpNull, err
		}
		return node(op), nil
	})

	// -----------------------------------------------------------------------
	// (sweep-helix sketch :start (vec3 10 0 0) :radius 10 :pitch 8
	//              :height 40 :turns 5 :twist 0)
	// -----------------------------------------------------------------------
	env.AddFunction("sweep_helix", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("sweep-helix requires a sketch reference")
		}
		sk, err := toSketch(d, pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("sweep-helix: %w", err)
		}
		op := doc.SweepOp{Sketch: sk, Path: doc.SweepPath{Kind: doc.PathHelix}}
		if v, ok := pa.kw["start"]; ok {
			vec, err := toVec3(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("sweep-helix: start: %w", err)
			}
			op.Path.Start = vec
		}
		helixParams := []struct {
			kw  string
			dst *float64
		}{
			{"radius", &op.Path.Radius},
			{"pitch", &op.Path.Pitch},
			{"height", &op.Path.Height},
			{"turns", &op.Path.Turns},
		}
		for _, p := range helixParams {
			if v, ok := pa.kw[p.kw]; ok {
				f, err := toFloat64(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("sweep-helix: %s: %w", p.kw, err)
				}
				*p.dst = f
			}
		}
		if err := sweepCommon(&op, pa, "sweep-helix"); err != nil {
			return zygo.SexpNull, err
		}
		return node(op), nil
	})

	// -----------------------------------------------------------------------
	// (loft sketch1 sketch2 sketch3 :closed false)
	// -----------------------------------------------------------------------
	env.AddFunction("loft", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 2 {
			return zygo.SexpNull, fmt.Errorf("loft requires at least 2 sketches, got %d", len(pa.positional))
		}
		op := doc.LoftOp{}
		for i, a := range pa.positional {
			sk, err := toSketch(d, a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("loft: sketch %d: %w", i+1, err)
			}
			op.Sketches = append(op.Sketches, sk)
		}
		if v, ok := pa.kw["closed"]; ok {
			closed, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("loft: closed: %w", err)
			}
			op.Closed = closed
		}
		return node(op), nil
	})

	// -----------------------------------------------------------------------
	// (material "oak" :name "White Oak" :color "#8b5a2b" :density 0.75)
	//
	// Registers a material in the document table and returns its key for
	// use with (part ... :material ...). The built-in palette is already
	// loaded; this adds to or overrides it.
	// -----------------------------------------------------------------------
	env.AddFunction("material", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("material requires a key")
		}
		key, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("material: key: %w", err)
		}
		def := doc.MaterialDef{Name: key}
		if v, ok := pa.kw["name"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("material: name: %w", err)
			}
			def.Name = s
		}
		if v, ok := pa.kw["color"]; ok {
			s, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("material: color: %w", err)
			}
			def.Color = s
		}
		if v, ok := pa.kw["density"]; ok {
			f, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("material: density: %w", err)
			}
			def.Density = f
		}
		if def.Color == "" {
			return zygo.SexpNull, fmt.Errorf("material %q: color required", key)
		}
		d.Materials[doc.MaterialKey(key)] = def
		return &zygo.SexpStr{S: key}, nil
	})

	// -----------------------------------------------------------------------
	// (part "bracket" solid :material "steel")
	//
	// Names the node and registers it as a scene root. The material may
	// be a string or a keyword and must exist in the material table.
	// -----------------------------------------------------------------------
	env.AddFunction("part", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 2 {
			return zygo.SexpNull, fmt.Errorf("part requires a name and a solid reference")
		}
		partName, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part: name: %w", err)
		}
		id, err := toNode(pa.positional[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("part %q: %w", partName, err)
		}
		n := d.Get(id)
		if n == nil {
			return zygo.SexpNull, fmt.Errorf("part %q: node %d does not exist", partName, id)
		}
		if _, ok := n.Op.(doc.SketchOp); ok {
			return zygo.SexpNull, fmt.Errorf("part %q: node %d is a sketch, not a solid", partName, id)
		}
		key := doc.DefaultMaterial
		if v, ok := pa.kw["material"]; ok {
			s, err := toKeywordString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("part %q: material: %w", partName, err)
			}
			key = doc.MaterialKey(s)
		}
		if _, ok := d.Materials[key]; !ok {
			return zygo.SexpNull, fmt.Errorf("part %q: unknown material %q", partName, key)
		}
		n.Name = partName
		d.AddRoot(id, key)
		return pa.positional[1], nil
	})
}

// sweepCommon parses the twist and scale keywords shared by sweep and
// sweep-helix.
func sweepCommon(op *doc.SweepOp, pa kwArgs, tag string) error {
	if v, ok := pa.kw["twist"]; ok {
		f, err := toFloat64(v)
		if err != nil {
			return fmt.Errorf("%s: twist: %w", tag, err)
		}
		op.TwistDeg = f
	}
	if v, ok := pa.kw["scale-start"]; ok {
		f, err := toFloat64(v)
		if err != nil {
			return fmt.Errorf("%s: scale-start: %w", tag, err)
		}
		op.ScaleStart = f
	}
	if v, ok := pa.kw["scale-end"]; ok {
		f, err := toFloat64(v)
		if err != nil {
			return fmt.Errorf("%s: scale-end: %w", tag, err)
		}
		op.ScaleEnd = f
	}
	return nil
}
