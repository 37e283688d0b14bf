package widget

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/dshills/revert/internal/commit"
	"github.com/dshills/revert/internal/snapshot"
)

// Opacity of selected and unselected objects.
const (
	SelectedOpacity   = 1.0
	UnselectedOpacity = 0.8
)

// spawnExtent is the edge length of the cube new objects are placed in.
const spawnExtent = 15.0

// TransformMode selects what a drag changes.
type TransformMode string

// Transform modes.
const (
	ModeTranslate TransformMode = "translate"
	ModeRotate    TransformMode = "rotate"
	ModeScale     TransformMode = "scale"
)

// SceneEditor is the 3D object editor model.
type SceneEditor struct {
	mu          sync.Mutex
	objects     []snapshot.Object
	selected    uuid.UUID
	mode        TransformMode
	initialSize float64
	rng         *rand.Rand

	pipeline *commit.Pipeline[snapshot.Scene]
}

// NewSceneEditor creates an empty scene.
func NewSceneEditor(opts ...Option) (*SceneEditor, error) {
	o := buildOptions(opts)

	e := &SceneEditor{
		mode:        ModeTranslate,
		initialSize: o.initialSize,
		rng:         o.rng,
	}

	p, err := newPipeline("scene", o, snapshot.SceneEqual, snapshot.SceneClone, e.capture, e.apply)
	if err != nil {
		return nil, err
	}
	e.pipeline = p
	return e, nil
}

// AddShape adds a shape of the initial size at a random position with a
// random hue, and returns its ID.
func (e *SceneEditor) AddShape(shape snapshot.Shape) (uuid.UUID, error) {
	if !shape.Valid() {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrUnknownShape, shape)
	}

	e.mu.Lock()
	obj := snapshot.Object{
		ID:    uuid.New(),
		Shape: shape,
		Size:  e.initialSize,
		Position: snapshot.Vec3{
			X: (e.rng.Float64() - 0.5) * spawnExtent,
			Y: (e.rng.Float64() - 0.5) * spawnExtent,
			Z: (e.rng.Float64() - 0.5) * spawnExtent,
		},
		Scale:   snapshot.Vec3{X: 1, Y: 1, Z: 1},
		Color:   colorful.Hsl(e.rng.Float64()*360, 0.7, 0.5).Hex(),
		Opacity: UnselectedOpacity,
	}
	e.objects = append(e.objects, obj)
	e.mu.Unlock()

	e.pipeline.Commit("Add " + string(shape))
	return obj.ID, nil
}

// Objects returns a copy of the scene objects.
func (e *SceneEditor) Objects() []snapshot.Object {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.objects)
}

// Selected returns the selected object ID, or uuid.Nil.
func (e *SceneEditor) Selected() uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected
}

// Select highlights the object with the given ID. Selection alone is not an
// edit and is recorded with the next commit.
func (e *SceneEditor) Select(id uuid.UUID) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	idx := slices.IndexFunc(e.objects, func(o snapshot.Object) bool { return o.ID == id })
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, id)
	}
	if e.selected == id {
		return nil
	}
	e.deselectLocked()
	e.selected = id
	e.objects[idx].Opacity = SelectedOpacity
	return nil
}

// Deselect clears the selection.
func (e *SceneEditor) Deselect() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.deselectLocked()
}

// SetMode selects the transform applied by Transform.
func (e *SceneEditor) SetMode(mode TransformMode) error {
	switch mode {
	case ModeTranslate, ModeRotate, ModeScale:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.mode = mode
	return nil
}

// Mode returns the current transform mode.
func (e *SceneEditor) Mode() TransformMode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// Transform applies delta to the selected object according to the current
// mode. Drags produce many small transforms, so the commit is debounced.
func (e *SceneEditor) Transform(delta snapshot.Vec3) error {
	e.mu.Lock()
	idx := e.selectedIndexLocked()
	if idx < 0 {
		e.mu.Unlock()
		return ErrNoSelection
	}

	obj := &e.objects[idx]
	label := "Move"
	switch e.mode {
	case ModeRotate:
		obj.Rotation = obj.Rotation.Add(delta)
		label = "Rotate"
	case ModeScale:
		obj.Scale = obj.Scale.Add(delta)
		label = "Scale"
	case ModeTranslate:
		obj.Position = obj.Position.Add(delta)
	}
	e.mu.Unlock()

	e.pipeline.Schedule(label)
	return nil
}

// SetColor recolors the selected object. hex must be a #rrggbb string.
func (e *SceneEditor) SetColor(hex string) error {
	c, err := colorful.Hex(hex)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidColor, hex)
	}

	e.mu.Lock()
	idx := e.selectedIndexLocked()
	if idx < 0 {
		e.mu.Unlock()
		return ErrNoSelection
	}
	e.objects[idx].Color = c.Hex()
	e.mu.Unlock()

	e.pipeline.Commit("Change color")
	return nil
}

// Clear removes every object.
func (e *SceneEditor) Clear() {
	e.mu.Lock()
	e.objects = nil
	e.selected = uuid.Nil
	e.mu.Unlock()

	e.pipeline.Commit("Clear")
}

// Undo restores the previous scene.
func (e *SceneEditor) Undo() bool {
	return e.pipeline.Undo()
}

// Redo restores the next undone scene.
func (e *SceneEditor) Redo() bool {
	return e.pipeline.Redo()
}

// CanUndo reports whether Undo would change the scene.
func (e *SceneEditor) CanUndo() bool {
	return e.pipeline.CanUndo()
}

// CanRedo reports whether Redo would change the scene.
func (e *SceneEditor) CanRedo() bool {
	return e.pipeline.CanRedo()
}

// Commit flushes a pending transform into history.
func (e *SceneEditor) Commit() {
	e.pipeline.Flush()
}

// Pipeline returns the commit pipeline.
func (e *SceneEditor) Pipeline() *commit.Pipeline[snapshot.Scene] {
	return e.pipeline
}

// Close stops pending commits.
func (e *SceneEditor) Close() {
	e.pipeline.Close()
}

func (e *SceneEditor) selectedIndexLocked() int {
	if e.selected == uuid.Nil {
		return -1
	}
	return slices.IndexFunc(e.objects, func(o snapshot.Object) bool { return o.ID == e.selected })
}

func (e *SceneEditor) deselectLocked() {
	if idx := e.selectedIndexLocked(); idx >= 0 {
		e.objects[idx].Opacity = UnselectedOpacity
	}
	e.selected = uuid.Nil
}

func (e *SceneEditor) capture() snapshot.Scene {
	e.mu.Lock()
	defer e.mu.Unlock()
	return snapshot.SceneClone(snapshot.Scene{Objects: e.objects, Selected: e.selected})
}

func (e *SceneEditor) apply(s snapshot.Scene) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.objects = s.Objects
	e.selected = s.Selected
}
