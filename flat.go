package tricanvas

import (
	"errors"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
)

// ErrUnsupportedShader is returned by rasterizers that evaluate shaders on
// the CPU when a stage is outside the forms they understand.
var ErrUnsupportedShader = errors.New("tricanvas: shader not supported by rasterizer")

// FlatProgram is a program whose stages a CPU rasterizer can evaluate
// without running them per pixel. The vertex stage must return
// vec4(attr, z, w) for a vec2 attribute and constant z and w. The fragment
// stage must return either a uniform or a constant vec4.
type FlatProgram struct {
	Desc ProgramDescriptor

	// Position is the attribute the vertex stage places in clip space.
	Position AttributeBinding

	// Z and W are the constant clip-space depth and w of every vertex.
	Z, W float32

	// Uniform names the uniform the fragment stage returns. It is empty
	// when the fragment stage returns Constant.
	Uniform  string
	Constant Color
}

// Flatten validates d and reduces its stages to a FlatProgram.
func (d ProgramDescriptor) Flatten() (*FlatProgram, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	vmod, err := lowerWGSL(d.Vertex.Source)
	if err != nil {
		return nil, fmt.Errorf("tricanvas: %s vertex stage: %w", d.Label, err)
	}
	fmod := vmod
	if d.Fragment.Source != d.Vertex.Source {
		if fmod, err = lowerWGSL(d.Fragment.Source); err != nil {
			return nil, fmt.Errorf("tricanvas: %s fragment stage: %w", d.Label, err)
		}
	}

	f := &FlatProgram{Desc: d}
	if err := f.vertex(vmod); err != nil {
		return nil, fmt.Errorf("tricanvas: %s vertex stage %s: %w", d.Label, d.Vertex.EntryPoint, err)
	}
	if err := f.fragment(fmod); err != nil {
		return nil, fmt.Errorf("tricanvas: %s fragment stage %s: %w", d.Label, d.Fragment.EntryPoint, err)
	}
	return f, nil
}

// Clip returns v after the vertex stage and perspective division.
func (f *FlatProgram) Clip(v Vertex) Vertex {
	return Vertex{v[0] / f.W, v[1] / f.W}
}

// Depth returns the normalized device depth of every vertex.
func (f *FlatProgram) Depth() float32 {
	return f.Z / f.W
}

// Fill returns the fragment color for uniforms u, clamped to [0, 1].
func (f *FlatProgram) Fill(u Uniforms) Color {
	if f.Uniform == "" {
		return f.Constant.Clamped()
	}
	return u[f.Uniform].Clamped()
}

func lowerWGSL(source string) (*ir.Module, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse shader: %w", err)
	}
	mod, err := naga.Lower(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to lower shader: %w", err)
	}
	return mod, nil
}

func (f *FlatProgram) vertex(mod *ir.Module) error {
	fn, err := entryPoint(mod, f.Desc.Vertex.EntryPoint, ir.StageVertex)
	if err != nil {
		return err
	}
	ret, err := returnValue(fn)
	if err != nil {
		return err
	}
	ev := evaluator{mod: mod, fn: fn}
	comp, ok := ev.expr(ret).(ir.ExprCompose)
	if !ok || len(comp.Components) == 0 {
		return fmt.Errorf("%w: position must be vec4(attribute, z, w)", ErrUnsupportedShader)
	}

	arg, ok := ev.expr(comp.Components[0]).(ir.ExprFunctionArgument)
	if !ok || int(arg.Index) >= len(fn.Arguments) {
		return fmt.Errorf("%w: position must start with a vertex attribute", ErrUnsupportedShader)
	}
	loc, err := vec2Location(mod, fn.Arguments[arg.Index])
	if err != nil {
		return err
	}
	for _, a := range f.Desc.Attributes {
		if a.Location == loc {
			f.Position = a
		}
	}
	if f.Position.Buffer == nil {
		return fmt.Errorf("%w: no attribute bound to location %d", ErrInvalidProgram, loc)
	}

	var zw []float32
	for _, h := range comp.Components[1:] {
		v, err := ev.floats(h)
		if err != nil {
			return err
		}
		zw = append(zw, v...)
	}
	if len(zw) != 2 {
		return fmt.Errorf("%w: position needs constant z and w", ErrUnsupportedShader)
	}
	if zw[1] == 0 {
		return fmt.Errorf("%w: clip-space w is zero", ErrUnsupportedShader)
	}
	f.Z, f.W = zw[0], zw[1]
	return nil
}

func (f *FlatProgram) fragment(mod *ir.Module) error {
	fn, err := entryPoint(mod, f.Desc.Fragment.EntryPoint, ir.StageFragment)
	if err != nil {
		return err
	}
	ret, err := returnValue(fn)
	if err != nil {
		return err
	}
	ev := evaluator{mod: mod, fn: fn}

	if load, ok := ev.expr(ret).(ir.ExprLoad); ok {
		gv, ok := ev.expr(load.Pointer).(ir.ExprGlobalVariable)
		if !ok || int(gv.Variable) >= len(mod.GlobalVariables) {
			return fmt.Errorf("%w: fragment loads from a non-global pointer", ErrUnsupportedShader)
		}
		v := mod.GlobalVariables[gv.Variable]
		if v.Space != ir.SpaceUniform || v.Binding == nil {
			return fmt.Errorf("%w: fragment reads %q which is not a uniform", ErrUnsupportedShader, v.Name)
		}
		for _, u := range f.Desc.Uniforms {
			if u.Group == v.Binding.Group && u.Binding == v.Binding.Binding {
				f.Uniform = u.Name
				return nil
			}
		}
		return fmt.Errorf("%w: uniform %q at group %d binding %d is not declared",
			ErrInvalidProgram, v.Name, v.Binding.Group, v.Binding.Binding)
	}

	c, err := ev.floats(ret)
	if err != nil {
		return err
	}
	if len(c) != 4 {
		return fmt.Errorf("%w: fragment returns %d components, want 4", ErrUnsupportedShader, len(c))
	}
	f.Constant = Color{R: c[0], G: c[1], B: c[2], A: c[3]}
	return nil
}

func entryPoint(mod *ir.Module, name string, stage ir.ShaderStage) (*ir.Function, error) {
	for i := range mod.EntryPoints {
		ep := &mod.EntryPoints[i]
		if ep.Name == name && ep.Stage == stage {
			return &ep.Function, nil
		}
	}
	return nil, fmt.Errorf("%w: entry point %q not found", ErrInvalidProgram, name)
}

// returnValue accepts a body of emits followed by a single value return.
func returnValue(fn *ir.Function) (ir.ExpressionHandle, error) {
	for _, st := range fn.Body {
		switch k := st.Kind.(type) {
		case ir.StmtEmit:
		case ir.StmtReturn:
			if k.Value == nil {
				return 0, fmt.Errorf("%w: entry point returns no value", ErrUnsupportedShader)
			}
			if int(*k.Value) >= len(fn.Expressions) {
				return 0, fmt.Errorf("%w: return value out of range", ErrUnsupportedShader)
			}
			return *k.Value, nil
		default:
			return 0, fmt.Errorf("%w: statement %T", ErrUnsupportedShader, k)
		}
	}
	return 0, fmt.Errorf("%w: entry point has no return", ErrUnsupportedShader)
}

func vec2Location(mod *ir.Module, arg ir.FunctionArgument) (uint32, error) {
	if arg.Binding == nil {
		return 0, fmt.Errorf("%w: argument %q has no binding", ErrUnsupportedShader, arg.Name)
	}
	lb, ok := (*arg.Binding).(ir.LocationBinding)
	if !ok {
		return 0, fmt.Errorf("%w: argument %q is not a vertex attribute", ErrUnsupportedShader, arg.Name)
	}
	if int(arg.Type) >= len(mod.Types) {
		return 0, fmt.Errorf("%w: argument %q has unknown type", ErrUnsupportedShader, arg.Name)
	}
	vt, ok := mod.Types[arg.Type].Inner.(ir.VectorType)
	if !ok || vt.Size != ir.Vec2 || vt.Scalar.Kind != ir.ScalarFloat {
		return 0, fmt.Errorf("%w: attribute %q must be vec2<f32>", ErrUnsupportedShader, arg.Name)
	}
	return lb.Location, nil
}

// evaluator folds constant expressions. A nil fn evaluates in the module's
// global expression arena.
type evaluator struct {
	mod *ir.Module
	fn  *ir.Function
}

func (e evaluator) arena() []ir.Expression {
	if e.fn == nil {
		return e.mod.GlobalExpressions
	}
	return e.fn.Expressions
}

func (e evaluator) expr(h ir.ExpressionHandle) ir.ExpressionKind {
	a := e.arena()
	if int(h) >= len(a) {
		return nil
	}
	return a[h].Kind
}

func (e evaluator) floats(h ir.ExpressionHandle) ([]float32, error) {
	switch k := e.expr(h).(type) {
	case ir.Literal:
		v, ok := literalFloat(k.Value)
		if !ok {
			return nil, fmt.Errorf("%w: literal %T", ErrUnsupportedShader, k.Value)
		}
		return []float32{v}, nil
	case ir.ExprCompose:
		var out []float32
		for _, c := range k.Components {
			v, err := e.floats(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v...)
		}
		return out, nil
	case ir.ExprSplat:
		v, err := e.floats(k.Value)
		if err != nil {
			return nil, err
		}
		if len(v) != 1 {
			return nil, fmt.Errorf("%w: splat of a vector", ErrUnsupportedShader)
		}
		out := make([]float32, k.Size)
		for i := range out {
			out[i] = v[0]
		}
		return out, nil
	case ir.ExprZeroValue:
		n, err := e.width(k.Type)
		if err != nil {
			return nil, err
		}
		return make([]float32, n), nil
	case ir.ExprAs:
		if k.Kind != ir.ScalarFloat || k.Convert == nil {
			return nil, fmt.Errorf("%w: non-float conversion", ErrUnsupportedShader)
		}
		return e.floats(k.Expr)
	case ir.ExprConstant:
		if int(k.Constant) >= len(e.mod.Constants) {
			return nil, fmt.Errorf("%w: constant out of range", ErrUnsupportedShader)
		}
		global := evaluator{mod: e.mod}
		return global.floats(e.mod.Constants[k.Constant].Init)
	case nil:
		return nil, fmt.Errorf("%w: expression %d out of range", ErrUnsupportedShader, h)
	default:
		return nil, fmt.Errorf("%w: expression %T is not constant", ErrUnsupportedShader, k)
	}
}

func (e evaluator) width(t ir.TypeHandle) (int, error) {
	if int(t) >= len(e.mod.Types) {
		return 0, fmt.Errorf("%w: type out of range", ErrUnsupportedShader)
	}
	switch inner := e.mod.Types[t].Inner.(type) {
	case ir.ScalarType:
		return 1, nil
	case ir.VectorType:
		return int(inner.Size), nil
	default:
		return 0, fmt.Errorf("%w: zero value of %T", ErrUnsupportedShader, inner)
	}
}

func literalFloat(v ir.LiteralValue) (float32, bool) {
	switch l := v.(type) {
	case ir.LiteralF32:
		return float32(l), true
	case ir.LiteralF64:
		return float32(l), true
	case ir.LiteralF16:
		return float32(l), true
	case ir.LiteralAbstractFloat:
		return float32(l), true
	case ir.LiteralAbstractInt:
		return float32(l), true
	case ir.LiteralI32:
		return float32(l), true
	case ir.LiteralU32:
		return float32(l), true
	default:
		return 0, false
	}
}
