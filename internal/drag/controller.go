// Package drag turns pointer gestures into swap or reposition requests.
package drag

import (
	"errors"
	"fmt"
	"time"

	"github.com/hylla/labgantt/internal/domain"
	"github.com/hylla/labgantt/internal/layout"
)

// ErrDropResolutionFailed and ErrNotDraggable report gestures that change nothing.
var (
	ErrDropResolutionFailed = errors.New("drop outside every lane")
	ErrNotDraggable         = errors.New("item is not draggable")
)

// Button identifies a pointer button.
type Button int

// Button values.
const (
	ButtonPrimary Button = iota
	ButtonSecondary
	ButtonMiddle
	// ButtonOther covers back/forward and any extra pointer buttons.
	ButtonOther
)

// Editor receives the mutations a completed gesture resolves to.
type Editor interface {
	Swap(aID, bID string) error
	Reposition(id string, start time.Time, laneID string) error
}

// Scene is the read-only view of one render pass. Controllers never keep it
// beyond a single call.
type Scene interface {
	ItemAt(p Point, excludeID string) (domain.Item, Geometry, bool)
	Grid() Grid
	Bands() []layout.Band
}

// State is the controller state.
type State int

// State values.
const (
	StateIdle State = iota
	StateDragging
)

// OutcomeKind classifies a finished gesture.
type OutcomeKind int

// OutcomeKind values.
const (
	OutcomeNoop OutcomeKind = iota
	OutcomeSwap
	OutcomeReposition
)

// String returns a log-friendly name.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSwap:
		return "swap"
	case OutcomeReposition:
		return "reposition"
	default:
		return "noop"
	}
}

// Outcome describes what a pointer release did.
type Outcome struct {
	Kind    OutcomeKind
	ItemID  string
	OtherID string
	Drop    Drop
}

// Controller is the Idle/Dragging pointer state machine.
type Controller struct {
	editor Editor

	state   State
	item    domain.Item
	grabX   float64
	grabY   float64
	current Geometry
}

// NewController constructs an idle controller that applies results to editor.
func NewController(editor Editor) *Controller {
	return &Controller{editor: editor}
}

// State returns the current state.
func (c *Controller) State() State {
	return c.state
}

// Dragging reports whether an item is picked up.
func (c *Controller) Dragging() bool {
	return c.state == StateDragging
}

// Preview returns the floating geometry of the dragged item.
func (c *Controller) Preview() (domain.Item, Geometry, bool) {
	if c.state != StateDragging {
		return nil, Geometry{}, false
	}
	return c.item, c.current, true
}

// PointerDown picks up the draggable item under p on a primary press.
// Presses elsewhere or with another button leave the controller idle.
func (c *Controller) PointerDown(scene Scene, p Point, button Button) error {
	if c.state == StateDragging || button != ButtonPrimary {
		return nil
	}
	item, geom, ok := scene.ItemAt(p, "")
	if !ok {
		return nil
	}
	if !domain.Draggable(item) {
		return fmt.Errorf("%w: %s", ErrNotDraggable, item.Kind())
	}
	c.state = StateDragging
	c.item = item
	c.grabX = p.X - geom.Left
	c.grabY = p.Y - geom.Top
	c.current = geom
	return nil
}

// PointerMove translates the floating element. It never touches the model.
func (c *Controller) PointerMove(p Point) {
	if c.state != StateDragging {
		return
	}
	c.current.Left = p.X - c.grabX
	c.current.Top = p.Y - c.grabY
}

// PointerUp ends the gesture. Swaps win when the release lands on a
// compatible item; otherwise the element geometry is resolved into a new
// start date and lane. The controller is idle again whatever the result.
func (c *Controller) PointerUp(scene Scene, p Point) (Outcome, error) {
	if c.state != StateDragging {
		return Outcome{}, nil
	}
	c.PointerMove(p)
	dragged, elem := c.item, c.current
	c.Abort()

	id := dragged.Base().ID
	if target, _, ok := scene.ItemAt(p, id); ok && domain.SwapCompatible(dragged, target) {
		other := target.Base().ID
		if err := c.editor.Swap(id, other); err != nil {
			return Outcome{ItemID: id}, err
		}
		return Outcome{Kind: OutcomeSwap, ItemID: id, OtherID: other}, nil
	}

	drop, err := ResolveDrop(elem, scene.Grid(), scene.Bands())
	if err != nil {
		return Outcome{ItemID: id}, err
	}
	if err := c.editor.Reposition(id, drop.Start, drop.LaneID); err != nil {
		return Outcome{ItemID: id, Drop: drop}, err
	}
	return Outcome{Kind: OutcomeReposition, ItemID: id, Drop: drop}, nil
}

// Abort drops any in-flight gesture without applying it.
func (c *Controller) Abort() {
	c.state = StateIdle
	c.item = nil
	c.grabX, c.grabY = 0, 0
	c.current = Geometry{}
}
