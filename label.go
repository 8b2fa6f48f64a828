package andersen

import (
	"fmt"

	"github.com/BarrensZeppelin/andersen/ir"
	"golang.org/x/tools/container/intsets"
)

// This file contains the definition of abstract objects: the targets of
// pointers in the analysed program.

// Object denotes an abstract heap object. There is one object per allocation
// site, standing in for every runtime object allocated there.
type Object struct {
	id   int
	Site *ir.New
}

// ID is the dense index of the object. IDs are assigned in the order the
// allocation sites are first processed.
func (o *Object) ID() int { return o.id }

// Type returns the allocated type.
func (o *Object) Type() *ir.Type { return o.Site.Type }

func (o *Object) String() string {
	return fmt.Sprintf("%s@%v", o.Site, o.Site.Parent())
}

// heap interns objects by allocation site.
type heap struct {
	objects []*Object
	bySite  map[*ir.New]*Object
}

func newHeap() *heap {
	return &heap{bySite: make(map[*ir.New]*Object)}
}

// object returns the abstract object for an allocation site, minting it the
// first time the site is seen.
func (h *heap) object(site *ir.New) *Object {
	if o, found := h.bySite[site]; found {
		return o
	}

	o := &Object{id: len(h.objects), Site: site}
	h.objects = append(h.objects, o)
	h.bySite[site] = o
	return o
}

func (h *heap) at(id int) *Object { return h.objects[id] }

// iterate calls f for each object in the set, in order of increasing ID.
func (h *heap) iterate(set *intsets.Sparse, f func(o *Object)) {
	var buf [32]int
	for _, id := range set.AppendTo(buf[:0]) {
		f(h.objects[id])
	}
}

func singleton(o *Object) *intsets.Sparse {
	var s intsets.Sparse
	s.Insert(o.id)
	return &s
}
