package ir

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSubtype(t *testing.T) {
	h := NewHierarchy()
	h.Declare("I", ClassDecl{Interface: true})
	h.Declare("J", ClassDecl{Interface: true, Interfaces: []string{"I"}})
	h.Declare("A", ClassDecl{Interfaces: []string{"J"}})
	h.Declare("B", ClassDecl{Super: "A"})
	h.Declare("C", ClassDecl{})

	obj := h.Object()
	for _, tc := range []struct {
		sub, sup string
		want     bool
	}{
		{"B", "B", true},
		{"B", "A", true},
		{"A", "B", false},
		{"B", "J", true},
		{"B", "I", true},
		{"C", "I", false},
		{"I", ObjectClass, true},
		{"null", "A", true},
		{"A", "null", false},
		{"int", "int", true},
		{"int", ObjectClass, false},
		{"B[]", "A[]", true},
		{"A[]", "B[]", false},
		{"B[]", "I[]", true},
		{"int[]", ObjectClass, true},
		{"int[]", "long[]", false},
		{"B[][]", "java.lang.Object[]", true},
		{"A[]", CloneableClass, true},
		{"A[]", SerializableClass, true},
		{"A[]", "I", false},
		{"A", "A[]", false},
	} {
		assert.Equal(t, tc.want, h.IsSubtype(h.Lookup(tc.sub), h.Lookup(tc.sup)),
			"%s <: %s", tc.sub, tc.sup)
	}

	// Memoized answers are stable.
	assert.True(t, h.IsSubtype(h.Lookup("B"), obj))
	assert.True(t, h.IsSubtype(h.Lookup("B"), obj))
}

func TestLookup(t *testing.T) {
	h := NewHierarchy()

	assert.Same(t, h.Lookup("A"), h.Class("A"))
	assert.Same(t, h.Lookup("A[]"), h.ArrayOf(h.Class("A")))
	assert.Same(t, h.Lookup("A[][]").Elem(), h.Lookup("A[]"))
	assert.Same(t, h.Null(), h.Lookup("null"))
	assert.Equal(t, PrimitiveKind, h.Lookup("int").Kind())
	assert.Equal(t, "A[][]", h.Lookup("A[][]").String())

	assert.False(t, h.Class("A").IsDeclared())
	h.Declare("A", ClassDecl{})
	assert.True(t, h.Class("A").IsDeclared())
	assert.Same(t, h.Object(), h.Class("A").Super)

	assert.Panics(t, func() { h.Primitive("A") })
}

func TestResolve(t *testing.T) {
	h := NewHierarchy()
	itf := h.Declare("I", ClassDecl{Interface: true})
	abs := h.Declare("Abs", ClassDecl{Abstract: true, Interfaces: []string{"I"}})
	impl := h.Declare("Impl", ClassDecl{Super: "Abs"})
	bare := h.Declare("Bare", ClassDecl{Super: "Abs"})

	itfRun := itf.AddMethod(MethodDecl{Name: "run", Abstract: true})
	itfDef := itf.AddMethod(MethodDecl{Name: "def"})
	absM := abs.AddMethod(MethodDecl{Name: "m", Abstract: true})
	implM := impl.AddMethod(MethodDecl{Name: "m"})
	implRun := impl.AddMethod(MethodDecl{Name: "run"})
	static := abs.AddMethod(MethodDecl{Name: "s", Static: true})

	t.Run("Virtual", func(t *testing.T) {
		m, err := h.ResolveVirtual(impl, "void m()")
		require.NoError(t, err)
		assert.Same(t, implM, m)

		m, err = h.ResolveVirtual(impl, "void run()")
		require.NoError(t, err)
		assert.Same(t, implRun, m)

		m, err = h.ResolveVirtual(bare, "void def()")
		require.NoError(t, err)
		assert.Same(t, itfDef, m, "default method")
	})

	t.Run("VirtualFailures", func(t *testing.T) {
		_, err := h.ResolveVirtual(bare, "void m()")
		var rerr *ResolutionError
		require.ErrorAs(t, err, &rerr)
		assert.Same(t, bare, rerr.Type)
		assert.Equal(t, "void m()", rerr.Subsignature)
		assert.Contains(t, rerr.Error(), "abstract")

		_, err = h.ResolveVirtual(bare, "void run()")
		assert.ErrorIs(t, err, ErrResolution)

		_, err = h.ResolveVirtual(bare, "void s()")
		assert.ErrorIs(t, err, ErrResolution, "static methods are not dispatched")

		_, err = h.ResolveVirtual(itf, "void run()")
		assert.ErrorIs(t, err, ErrResolution, "interfaces are not receiver types")

		// Failures are memoized too.
		_, err2 := h.ResolveVirtual(itf, "void run()")
		assert.Equal(t, err, err2)
	})

	t.Run("Method", func(t *testing.T) {
		m, err := h.ResolveMethod(impl, "void s()")
		require.NoError(t, err)
		assert.Same(t, static, m)

		m, err = h.ResolveMethod(bare, "void m()")
		require.NoError(t, err)
		assert.Same(t, absM, m, "declared resolution may find abstract methods")

		m, err = h.ResolveMethod(bare, "void run()")
		require.NoError(t, err)
		assert.Same(t, itfRun, m)

		_, err = h.ResolveMethod(h.Lookup("int"), "void m()")
		assert.ErrorIs(t, err, ErrResolution)
		_, err = h.ResolveMethod(impl, "void missing()")
		assert.ErrorIs(t, err, ErrResolution)
	})

	t.Run("ArrayReceiver", func(t *testing.T) {
		hash := h.Object().AddMethod(MethodDecl{Name: "hashCode2", Return: h.Primitive("int")})
		m, err := h.ResolveVirtual(h.Lookup("Impl[]"), "int hashCode2()")
		require.NoError(t, err)
		assert.Same(t, hash, m)
	})
}

func TestResolveDefaultMethods(t *testing.T) {
	h := NewHierarchy()
	j := h.Declare("J", ClassDecl{Interface: true})
	k := h.Declare("K", ClassDecl{Interface: true, Interfaces: []string{"J"}})
	l := h.Declare("L", ClassDecl{Interface: true})
	redecl := h.Declare("R", ClassDecl{Interface: true, Interfaces: []string{"J"}})

	jm := j.AddMethod(MethodDecl{Name: "m"})
	km := k.AddMethod(MethodDecl{Name: "m"})
	l.AddMethod(MethodDecl{Name: "m"})
	rm := redecl.AddMethod(MethodDecl{Name: "m", Abstract: true})

	t.Run("MostSpecific", func(t *testing.T) {
		c := h.Declare("C", ClassDecl{Interfaces: []string{"J", "K"}})
		m, err := h.ResolveVirtual(c, "void m()")
		require.NoError(t, err)
		assert.Same(t, km, m)

		m, err = h.ResolveMethod(c, "void m()")
		require.NoError(t, err)
		assert.Same(t, km, m)
	})

	t.Run("InheritedThroughSuperclass", func(t *testing.T) {
		h.Declare("Base", ClassDecl{Interfaces: []string{"J"}})
		d := h.Declare("D", ClassDecl{Super: "Base", Interfaces: []string{"K"}})
		m, err := h.ResolveVirtual(d, "void m()")
		require.NoError(t, err)
		assert.Same(t, km, m)
	})

	t.Run("Conflict", func(t *testing.T) {
		e := h.Declare("E", ClassDecl{Interfaces: []string{"K", "L"}})
		_, err := h.ResolveVirtual(e, "void m()")
		var rerr *ResolutionError
		require.ErrorAs(t, err, &rerr)
		assert.Contains(t, rerr.Reason, "conflicting default methods")
	})

	t.Run("AbstractRedeclaration", func(t *testing.T) {
		f := h.Declare("F", ClassDecl{Interfaces: []string{"R"}})
		_, err := h.ResolveVirtual(f, "void m()")
		assert.ErrorIs(t, err, ErrResolution)

		m, err := h.ResolveMethod(f, "void m()")
		require.NoError(t, err)
		assert.Same(t, rm, m)
	})

	t.Run("ClassOverridesDefaults", func(t *testing.T) {
		g := h.Declare("G", ClassDecl{Interfaces: []string{"K", "L"}})
		gm := g.AddMethod(MethodDecl{Name: "m"})
		m, err := h.ResolveVirtual(g, "void m()")
		require.NoError(t, err)
		assert.Same(t, gm, m)
	})

	m, err := h.ResolveVirtual(h.Declare("Plain", ClassDecl{Interfaces: []string{"J"}}), "void m()")
	require.NoError(t, err)
	assert.Same(t, jm, m)
}

func TestUndeclaredClass(t *testing.T) {
	h := NewHierarchy()
	str := h.Lookup("java.lang.String")
	assert.False(t, str.IsDeclared())
	assert.Same(t, h.Object(), str.Super)
	assert.Nil(t, h.Object().Super)

	toString := h.Object().AddMethod(MethodDecl{Name: "toString", Return: str})
	m, err := h.ResolveVirtual(str, "java.lang.String toString()")
	require.NoError(t, err)
	assert.Same(t, toString, m)

	m, err = h.ResolveMethod(str, "java.lang.String toString()")
	require.NoError(t, err)
	assert.Same(t, toString, m)

	// A name first seen as a superinterface becomes a root once declared.
	h.Declare("A", ClassDecl{Interfaces: []string{"Later"}})
	later := h.Declare("Later", ClassDecl{Interface: true})
	assert.Nil(t, later.Super)
	assert.True(t, h.IsSubtype(h.Class("A"), later))
}

func TestHierarchyConcurrentQueries(t *testing.T) {
	h := NewHierarchy()
	base := h.Declare("Base", ClassDecl{})
	run := base.AddMethod(MethodDecl{Name: "run"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				arr := h.Lookup(fmt.Sprintf("T%d[][]", (i+j)%5))
				assert.True(t, h.IsSubtype(arr, h.Object()))
				assert.Same(t, arr, h.ArrayOf(arr.Elem()))

				m, err := h.ResolveVirtual(base, "void run()")
				if assert.NoError(t, err) {
					assert.Same(t, run, m)
				}
			}
		}(i)
	}
	wg.Wait()

	// Base, Object, Cloneable, Serializable and T0..T4.
	assert.Len(t, h.Classes(), 9)
}

func TestFieldByName(t *testing.T) {
	h := NewHierarchy()
	a := h.Declare("A", ClassDecl{Interfaces: []string{"I"}})
	b := h.Declare("B", ClassDecl{Super: "A"})
	itf := h.Declare("I", ClassDecl{Interface: true})

	f := a.AddField("f", h.Object(), false)
	c := itf.AddField("C", h.Object(), true)
	shadow := b.AddField("g", h.Object(), false)
	a.AddField("g", h.Object(), false)

	assert.Same(t, f, h.FieldByName(b, "f"))
	assert.Same(t, c, h.FieldByName(b, "C"))
	assert.Same(t, shadow, h.FieldByName(b, "g"))
	assert.Nil(t, h.FieldByName(b, "missing"))

	assert.Equal(t, "<A: java.lang.Object f>", f.Signature())
	assert.Equal(t, []*Field{shadow}, b.Fields())
}
