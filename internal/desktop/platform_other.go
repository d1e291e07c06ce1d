//go:build !windows

package desktop

// Platform returns the integrator for the current OS.
func Platform(home string) Integrator {
	return NewXDG(home)
}
