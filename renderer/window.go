package renderer

// WindowOptions configures a desktop window surface.
type WindowOptions struct {
	// Window title; also identifies the display target in logs.
	Title string

	Width  int
	Height int

	// Synchronize buffer swaps with the display refresh.
	VSync bool
}
