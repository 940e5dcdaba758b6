// Package revalidate tells the public read side which pages a write has
// made stale.
package revalidate

// Notifier is called by admin handlers after a successful write. Paths are
// exact request paths ("/", "/articles/some-slug"); prefixes invalidate
// every cached path that starts with them.
type Notifier interface {
	Revalidate(paths ...string)
	RevalidatePrefix(prefixes ...string)
}

// Nop discards every signal.
type Nop struct{}

func (Nop) Revalidate(...string)       {}
func (Nop) RevalidatePrefix(...string) {}

// Multi fans signals out to several notifiers.
type Multi []Notifier

func (m Multi) Revalidate(paths ...string) {
	for _, n := range m {
		n.Revalidate(paths...)
	}
}

func (m Multi) RevalidatePrefix(prefixes ...string) {
	for _, n := range m {
		n.RevalidatePrefix(prefixes...)
	}
}
