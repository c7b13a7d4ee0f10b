package cescape

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestCescape(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Cescape Suite")
}

var _ = Describe("Escape", func() {
	It("leaves plain strings untouched", func() {
		Expect(Escape("hello world")).To(Equal("hello world"))
	})

	It("escapes double quotes", func() {
		Expect(Escape(`say "hi"`)).To(Equal(`say \"hi\"`))
	})

	It("escapes newlines", func() {
		Expect(Escape("line1\nline2")).To(Equal(`line1\nline2`))
	})

	It("escapes combinations of quotes and newlines", func() {
		Expect(Escape("a\"b\nc")).To(Equal(`a\"b\nc`))
	})

	It("does not touch other control characters", func() {
		Expect(Escape("tab\there")).To(Equal("tab\there"))
	})
})
