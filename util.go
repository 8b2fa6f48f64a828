package andersen

import (
	"github.com/BarrensZeppelin/andersen/ir"
)

// PointerLike reports whether values of type t may point to heap objects.
// Flow of non-pointer-like values is not tracked.
func PointerLike(t *ir.Type) bool {
	return t == nil || t.IsReference()
}

// VarPointerLike reports whether the variable may point to heap objects.
func VarPointerLike(v *ir.Var) bool { return PointerLike(v.Type) }
