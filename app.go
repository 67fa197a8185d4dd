package main

import (
	"context"
	"log"

	"github.com/perran/datum/pkg/doc"
	"github.com/perran/datum/pkg/engine"
	"github.com/perran/datum/pkg/evaluate"
	"github.com/perran/datum/pkg/kernel"
	"github.com/perran/datum/pkg/kernel/sdfx"
	"github.com/perran/datum/pkg/session"
)

// colorPalette assigns distinct colors to parts left on the default
// material. A part with an explicit material shows the material color.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App is the Wails backend. It exposes methods to the frontend via
// bindings: script evaluation for the editor pane, and the session
// mutation API for direct modeling.
type App struct {
	ctx     context.Context
	engine  *engine.Engine
	kernel  kernel.Kernel
	session *session.Session
}

// MeshData is the JSON-serializable mesh format sent to the frontend.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	PartName string    `json:"partName"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON-serializable diagnostic for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// ClashData reports interpenetrating parts. A and B index into Meshes.
type ClashData struct {
	A      int     `json:"a"`
	B      int     `json:"b"`
	Volume float64 `json:"volume"` // mm^3 of overlap
}

// EvalResult is the full result returned to the frontend.
type EvalResult struct {
	Meshes   []MeshData      `json:"meshes"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
	Clashes  []ClashData     `json:"clashes"`
}

// PartInfoData carries the mass properties shown in the part panel.
type PartInfoData struct {
	Name        string     `json:"name"`
	Material    string     `json:"material"`
	Triangles   int        `json:"triangles"`
	Volume      float64    `json:"volume"`      // mm^3
	SurfaceArea float64    `json:"surfaceArea"` // mm^2
	Mass        float64    `json:"mass"`        // g
	Center      [3]float64 `json:"center"`
	BoundsMin   [3]float64 `json:"boundsMin"`
	BoundsMax   [3]float64 `json:"boundsMax"`
}

// JointSpec describes a joint for ConnectJoint. Parent at or below
// zero anchors the child to ground.
type JointSpec struct {
	Parent       int64      `json:"parent"`
	Child        int64      `json:"child"`
	Kind         string     `json:"kind"` // fixed, revolute, slider, cylindrical, ball
	Axis         [3]float64 `json:"axis"`
	ParentAnchor [3]float64 `json:"parentAnchor"`
	ChildAnchor  [3]float64 `json:"childAnchor"`
}

// NewApp creates a new App with an engine, the sdfx kernel, and an
// empty modeling session.
func NewApp() *App {
	k := sdfx.New()
	return &App{
		engine:  engine.NewEngine(),
		kernel:  k,
		session: session.Open(blankDocument(), k),
	}
}

// blankDocument is the document behind File > New: no geometry, the
// built-in material set.
func blankDocument() *doc.Document {
	d := doc.New()
	d.Materials = doc.DefaultMaterials()
	return d
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later if needed.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// --- Script evaluation ---

// Evaluate takes modeling script source and returns mesh data plus any
// diagnostics. This is the primary binding called by the editor pane;
// it does not touch the session document.
func (a *App) Evaluate(source string) EvalResult {
	result := newEvalResult()

	res, err := a.engine.Evaluate(source)
	if err != nil {
		// Fatal error (panic, timeout, etc.)
		log.Printf("Evaluate fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	collectDiagnostics(&result, res)
	if len(result.Errors) > 0 {
		return result
	}

	scene, err := evaluate.Evaluate(res.Document, a.kernel)
	if err != nil {
		log.Printf("scene evaluation error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: "evaluation failed: " + err.Error()})
		return result
	}
	appendScene(&result, res.Document, scene)
	return result
}

// LoadScript evaluates source and, on success, makes the result the
// session document, so the direct-modeling bindings continue from it.
// The session history starts over.
func (a *App) LoadScript(source string) EvalResult {
	result := newEvalResult()

	res, err := a.engine.Evaluate(source)
	if err != nil {
		log.Printf("LoadScript fatal error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: err.Error()})
		return result
	}
	collectDiagnostics(&result, res)
	if len(result.Errors) > 0 {
		return result
	}

	a.session = session.Open(res.Document, a.kernel)
	return a.sceneInto(result)
}

// NewDocument discards the session document for a blank one. The undo
// history is cleared.
func (a *App) NewDocument() {
	a.session = session.Open(blankDocument(), a.kernel)
}

// --- Session scene ---

// Scene evaluates the session document for display.
func (a *App) Scene() EvalResult {
	return a.sceneInto(newEvalResult())
}

func (a *App) sceneInto(result EvalResult) EvalResult {
	scene, err := a.session.Evaluate()
	if err != nil {
		log.Printf("scene evaluation error: %v", err)
		result.Errors = append(result.Errors, EvalErrorData{Message: "evaluation failed: " + err.Error()})
		return result
	}
	appendScene(&result, a.session.Document(), scene)
	return result
}

// PartInfo meshes the session document and reports per-part mass
// properties.
func (a *App) PartInfo() []PartInfoData {
	infos := []PartInfoData{}
	scene, err := a.session.Evaluate()
	if err != nil {
		log.Printf("part info error: %v", err)
		return infos
	}
	d := a.session.Document()
	for _, p := range scene.Parts {
		m := p.Mesh
		min, max := m.BoundingBox()
		info := PartInfoData{
			Name:        p.Name,
			Material:    string(p.Material),
			Triangles:   m.TriangleCount(),
			Volume:      m.Volume(),
			SurfaceArea: m.SurfaceArea(),
			Center:      m.CenterOfMass(),
			BoundsMin:   min,
			BoundsMax:   max,
		}
		if def, ok := d.Materials[p.Material]; ok {
			info.Mass = m.Volume() / 1000 * def.Density
		}
		infos = append(infos, info)
	}
	return infos
}

// Materials lists the materials parts can use.
func (a *App) Materials() map[string]doc.MaterialDef {
	src := a.session.Document().Materials
	out := make(map[string]doc.MaterialDef, len(src))
	for k, def := range src {
		out[string(k)] = def
	}
	return out
}

// --- Part edits ---
//
// These wrap the session mutation API one to one. Ids are node ids;
// 0 reports a refused edit. Drags call BeginGesture once, then mutate
// with skipUndo set, so the whole gesture undoes in one step.

// AddCube adds a cube part with size sx, sy, sz in mm.
func (a *App) AddCube(name string, sx, sy, sz float64, material string) int64 {
	return int64(a.session.AddPrimitive(name, doc.CubeOp{Size: doc.Vec3{X: sx, Y: sy, Z: sz}}, doc.MaterialKey(material)))
}

// AddCylinder adds a cylinder part, axis along Z.
func (a *App) AddCylinder(name string, radius, height float64, material string) int64 {
	return int64(a.session.AddPrimitive(name, doc.CylinderOp{Radius: radius, Height: height}, doc.MaterialKey(material)))
}

// AddSphere adds a sphere part.
func (a *App) AddSphere(name string, radius float64, material string) int64 {
	return int64(a.session.AddPrimitive(name, doc.SphereOp{Radius: radius}, doc.MaterialKey(material)))
}

// AddCone adds a truncated cone part, axis along Z.
func (a *App) AddCone(name string, bottomRadius, topRadius, height float64, material string) int64 {
	return int64(a.session.AddPrimitive(name, doc.ConeOp{BottomRadius: bottomRadius, TopRadius: topRadius, Height: height}, doc.MaterialKey(material)))
}

func (a *App) RemovePart(id int64) bool {
	return a.session.RemovePart(doc.NodeID(id))
}

func (a *App) RenamePart(id int64, name string) bool {
	return a.session.RenamePart(doc.NodeID(id), name)
}

// UpdateCube edits a cube's dimensions in place.
func (a *App) UpdateCube(id int64, sx, sy, sz float64, skipUndo bool) bool {
	return a.session.UpdatePrimitiveOp(doc.NodeID(id), doc.CubeOp{Size: doc.Vec3{X: sx, Y: sy, Z: sz}}, skipUndo)
}

func (a *App) UpdateCylinder(id int64, radius, height float64, skipUndo bool) bool {
	return a.session.UpdatePrimitiveOp(doc.NodeID(id), doc.CylinderOp{Radius: radius, Height: height}, skipUndo)
}

func (a *App) UpdateSphere(id int64, radius float64, skipUndo bool) bool {
	return a.session.UpdatePrimitiveOp(doc.NodeID(id), doc.SphereOp{Radius: radius}, skipUndo)
}

func (a *App) UpdateCone(id int64, bottomRadius, topRadius, height float64, skipUndo bool) bool {
	return a.session.UpdatePrimitiveOp(doc.NodeID(id), doc.ConeOp{BottomRadius: bottomRadius, TopRadius: topRadius, Height: height}, skipUndo)
}

// TranslatePart positions a part. The returned id is the node carrying
// the translation; keep it for the next call of a drag.
func (a *App) TranslatePart(id int64, x, y, z float64, skipUndo bool) int64 {
	nid, ok := a.session.SetTranslation(doc.NodeID(id), doc.Vec3{X: x, Y: y, Z: z}, skipUndo)
	if !ok {
		return 0
	}
	return int64(nid)
}

// RotatePart orients a part, Euler degrees applied X then Y then Z.
func (a *App) RotatePart(id int64, xDeg, yDeg, zDeg float64, skipUndo bool) int64 {
	nid, ok := a.session.SetRotation(doc.NodeID(id), doc.Vec3{X: xDeg, Y: yDeg, Z: zDeg}, skipUndo)
	if !ok {
		return 0
	}
	return int64(nid)
}

// ScalePart scales a part about the origin.
func (a *App) ScalePart(id int64, fx, fy, fz float64, skipUndo bool) int64 {
	nid, ok := a.session.SetScale(doc.NodeID(id), doc.Vec3{X: fx, Y: fy, Z: fz}, skipUndo)
	if !ok {
		return 0
	}
	return int64(nid)
}

// MirrorPart adds a mirrored copy of a part across the plane whose
// normal is the given axis.
func (a *App) MirrorPart(id int64, ax, ay, az float64) int64 {
	nid, ok := a.session.MirrorPart(doc.NodeID(id), doc.Vec3{X: ax, Y: ay, Z: az})
	if !ok {
		return 0
	}
	return int64(nid)
}

// ShellPart hollows a part. Refused when the kernel cannot realize it.
func (a *App) ShellPart(id int64, thickness float64) int64 {
	nid, ok := a.session.ApplyShell(doc.NodeID(id), thickness)
	if !ok {
		return 0
	}
	return int64(nid)
}

func (a *App) FilletPart(id int64, radius float64) int64 {
	nid, ok := a.session.ApplyFillet(doc.NodeID(id), radius)
	if !ok {
		return 0
	}
	return int64(nid)
}

func (a *App) ChamferPart(id int64, distance float64) int64 {
	nid, ok := a.session.ApplyChamfer(doc.NodeID(id), distance)
	if !ok {
		return 0
	}
	return int64(nid)
}

func (a *App) LinearPatternPart(id int64, dx, dy, dz float64, count int, spacing float64) int64 {
	nid, ok := a.session.ApplyLinearPattern(doc.NodeID(id), doc.Vec3{X: dx, Y: dy, Z: dz}, count, spacing)
	if !ok {
		return 0
	}
	return int64(nid)
}

func (a *App) CircularPatternPart(id int64, ox, oy, oz, ax, ay, az float64, count int, angleDeg float64) int64 {
	nid, ok := a.session.ApplyCircularPattern(doc.NodeID(id), doc.Vec3{X: ox, Y: oy, Z: oz}, doc.Vec3{X: ax, Y: ay, Z: az}, count, angleDeg)
	if !ok {
		return 0
	}
	return int64(nid)
}

// --- History ---

// BeginGesture records an undo snapshot before a drag starts.
func (a *App) BeginGesture() bool { return a.session.PushUndoSnapshot() }

func (a *App) Undo() bool { return a.session.Undo() }

func (a *App) Redo() bool { return a.session.Redo() }

func (a *App) CanUndo() bool { return a.session.CanUndo() }

func (a *App) CanRedo() bool { return a.session.CanRedo() }

// --- Assembly ---

// DefinePart registers the subtree at root as reusable geometry.
func (a *App) DefinePart(id, name string, root int64, material string) bool {
	return a.session.AddPartDef(doc.PartDefID(id), name, doc.NodeID(root), doc.MaterialKey(material))
}

// PlaceInstance places a defined part into the assembly.
func (a *App) PlaceInstance(def, name string) int64 {
	iid, ok := a.session.AddInstance(doc.PartDefID(def), name)
	if !ok {
		return 0
	}
	return int64(iid)
}

func (a *App) RemoveInstance(id int64) bool {
	return a.session.RemoveInstance(doc.InstanceID(id))
}

// ConnectJoint adds a joint between two instances. Refused when the
// kind is unknown, the child already has a parent, or the joint would
// close a loop.
func (a *App) ConnectJoint(spec JointSpec) int64 {
	kind, ok := doc.ParseJointKind(spec.Kind)
	if !ok {
		return 0
	}
	var parent *doc.InstanceID
	if spec.Parent > 0 {
		p := doc.InstanceID(spec.Parent)
		parent = &p
	}
	jid, ok := a.session.AddJoint(parent, doc.InstanceID(spec.Child), kind, vec3(spec.Axis), vec3(spec.ParentAnchor), vec3(spec.ChildAnchor))
	if !ok {
		return 0
	}
	return int64(jid)
}

// DriveJoint sets a joint's state vector, e.g. from a slider.
func (a *App) DriveJoint(id int64, s0, s1, s2 float64, skipUndo bool) bool {
	return a.session.SetJointState(doc.JointID(id), [3]float64{s0, s1, s2}, skipUndo)
}

// --- helpers ---

func newEvalResult() EvalResult {
	return EvalResult{
		Meshes:   []MeshData{},
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
		Clashes:  []ClashData{},
	}
}

// collectDiagnostics converts engine errors and warnings to the
// frontend format.
func collectDiagnostics(result *EvalResult, res *engine.EvalResult) {
	for _, w := range res.Warnings {
		result.Warnings = append(result.Warnings, EvalErrorData{Line: w.Line, Col: w.Col, Message: w.Message})
	}
	for _, e := range res.Errors {
		result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
	}
}

// appendScene converts an evaluated scene to the frontend format.
func appendScene(result *EvalResult, d *doc.Document, scene *evaluate.Scene) {
	for i, p := range scene.Parts {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: p.Mesh.Positions,
			Normals:  p.Mesh.Normals,
			Indices:  p.Mesh.Indices,
			PartName: p.Name,
			Color:    partColor(d, p, i),
		})
	}
	for _, c := range scene.Clashes {
		result.Clashes = append(result.Clashes, ClashData{A: c.A, B: c.B, Volume: c.Mesh.Volume()})
	}
}

// partColor returns the material color when the part has a material of
// its own, and a palette color keyed by part index otherwise.
func partColor(d *doc.Document, p evaluate.Part, idx int) string {
	if p.Material != doc.DefaultMaterial && p.Material != "" {
		if def, ok := d.Materials[p.Material]; ok && def.Color != "" {
			return def.Color
		}
	}
	return colorPalette[idx%len(colorPalette)]
}

func vec3(v [3]float64) doc.Vec3 {
	return doc.Vec3{X: v[0], Y: v[1], Z: v[2]}
}
