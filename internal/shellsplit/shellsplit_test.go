package shellsplit

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestShellsplit(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Shellsplit Suite")
}

var _ = Describe("Split", func() {
	It("splits on whitespace", func() {
		Expect(Split("a b c")).To(Equal([]string{"a", "b", "c"}))
	})

	It("collapses runs of whitespace", func() {
		Expect(Split("a    b\t\tc")).To(Equal([]string{"a", "b", "c"}))
	})

	It("groups double-quoted spans into one word", func() {
		Expect(Split(`foo "bar baz" qux`)).To(Equal([]string{"foo", "bar baz", "qux"}))
	})

	It("groups single-quoted spans into one word", func() {
		Expect(Split(`foo 'bar baz' qux`)).To(Equal([]string{"foo", "bar baz", "qux"}))
	})

	It("returns no words for an empty string", func() {
		Expect(Split("")).To(BeEmpty())
	})

	It("stops scanning at a newline", func() {
		Expect(Split("a b\nc d")).To(Equal([]string{"a", "b"}))
	})

	It("allows adjacent quoted and unquoted text to form one word", func() {
		Expect(Split(`foo"bar baz"qux`)).To(Equal([]string{"foobar bazqux"}))
	})
})
