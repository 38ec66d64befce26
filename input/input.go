// Package input defines the host independent events a display surface
// forwards to attached controls.
package input

type Key uint8

const (
	KeyUnknown Key = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
)

type Modifier uint8

const (
	ModShift Modifier = 1 << iota
	ModControl
	ModAlt
)

// Has returns true if all bits of m2 are set.
func (m Modifier) Has(m2 Modifier) bool {
	return m&m2 == m2
}

type Button uint8

const (
	ButtonLeft Button = iota
	ButtonRight
)

// A Handler receives input from the surface it is attached to. Surfaces
// invoke handlers from their event loop goroutine.
type Handler interface {
	// Key is invoked for key presses and repeats.
	Key(key Key, mods Modifier)

	// Drag is invoked while a pointer button is held down with the cursor
	// delta in pixels since the previous event.
	Drag(button Button, dx, dy float32)
}
