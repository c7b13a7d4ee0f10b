package mival

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestMival(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Mival Suite")
}

var _ = Describe("Value", func() {
	Describe("scalar serialization", func() {
		It("quotes strings and escapes embedded quotes", func() {
			Expect(NewString(`say "hi"`).Serialize()).To(Equal(`"say \"hi\""`))
		})

		It("quotes booleans as the literal strings true/false", func() {
			Expect(NewBool(true).Serialize()).To(Equal(`"true"`))
			Expect(NewBool(false).Serialize()).To(Equal(`"false"`))
		})

		It("quotes integers even though they are numeric", func() {
			Expect(NewInt(-7).Serialize()).To(Equal(`"-7"`))
			Expect(NewUint(7).Serialize()).To(Equal(`"7"`))
		})
	})

	Describe("Array", func() {
		It("brackets elements and separates them with commas", func() {
			v := NewArray(NewInt(1), NewInt(2), NewInt(3))
			Expect(v.Serialize()).To(Equal(`["1","2","3"]`))
		})

		It("serializes an empty array as empty brackets", func() {
			Expect(NewArray().Serialize()).To(Equal(`[]`))
		})
	})

	Describe("Object", func() {
		It("serializes the root object without surrounding braces", func() {
			var v Value
			v.Set("a", NewInt(1))
			v.Set("b", NewString("x"))
			Expect(v.Serialize()).To(Equal(`a="1",b="x"`))
		})

		It("braces nested objects", func() {
			var inner Value
			inner.Set("x", NewInt(1))
			var outer Value
			outer.Set("frame", inner)
			Expect(outer.Serialize()).To(Equal(`frame={x="1"}`))
		})

		It("preserves insertion order across overwrites", func() {
			var v Value
			v.Set("a", NewInt(1))
			v.Set("b", NewInt(2))
			v.Set("a", NewInt(3))
			Expect(v.Serialize()).To(Equal(`a="3",b="2"`))
		})

		It("promotes a Null value to an Object on first Set", func() {
			var v Value
			Expect(v.Kind()).To(Equal(Null))
			v.Set("k", NewString("v"))
			Expect(v.Kind()).To(Equal(Object))
		})
	})

	Describe("ToMessage", func() {
		It("joins prefix and serialized body with a comma and trailing newline", func() {
			var v Value
			v.Set("features", NewArray())
			Expect(ToMessage("^done", v)).To(Equal("^done,features=[]\n"))
		})

		It("omits the comma when the value serializes to nothing", func() {
			var v Value
			Expect(ToMessage("^done", v)).To(Equal("^done\n"))
		})
	})

	Describe("type mismatch", func() {
		It("panics when Set is called on a non-Object, non-Null value", func() {
			v := NewInt(1)
			Expect(func() { v.Set("k", NewInt(2)) }).To(Panic())
		})

		It("panics when Append is called on a non-Array, non-Null value", func() {
			v := NewInt(1)
			Expect(func() { v.Append(NewInt(2)) }).To(Panic())
		})
	})
})
