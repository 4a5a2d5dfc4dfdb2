// label.go provides the unique tag (label) name generator used by the code
// generator. The compiler's pipeline is single-threaded and synchronous (§5),
// so unlike the teacher's channel-based label server this is a plain counter
// guarded only by ordinary sequential use.

package util

import "fmt"

// TagAllocator hands out fresh tag names and tracks every tag name in use,
// whether generated or supplied by inline asm, so that collisions between the
// two namespaces are caught.
type TagAllocator struct {
	next int
	used map[string]bool
}

// NewTagAllocator returns a ready to use TagAllocator.
func NewTagAllocator() *TagAllocator {
	return &TagAllocator{used: make(map[string]bool)}
}

// New returns a fresh, compiler-generated tag name of the form "_L<n>".
func (t *TagAllocator) New() string {
	for {
		name := fmt.Sprintf("_L%d", t.next)
		t.next++
		if !t.used[name] {
			t.used[name] = true
			return name
		}
	}
}

// Reserve registers an inline-asm-supplied tag name. It returns false if the
// name is already in use (by a prior asm tag or a generated tag), signalling
// a TagCollision to the caller.
func (t *TagAllocator) Reserve(name string) bool {
	if t.used[name] {
		return false
	}
	t.used[name] = true
	return true
}

// Count returns the number of distinct tags allocated so far.
func (t *TagAllocator) Count() int {
	return len(t.used)
}
