package transport

import (
	"bytes"
	"strings"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestTransport(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Transport Suite")
}

var _ = Describe("Line", func() {
	It("reads a line up to and including the newline", func() {
		l := NewLine(strings.NewReader("hello\nworld\n"), &bytes.Buffer{})
		line, err := l.ReadLine()
		Expect(err).NotTo(HaveOccurred())
		Expect(line).To(Equal([]byte("hello\n")))
	})

	It("strips a trailing carriage return from CRLF input", func() {
		l := NewLine(strings.NewReader("hello\r\n"), &bytes.Buffer{})
		line, err := l.ReadLine()
		Expect(err).NotTo(HaveOccurred())
		Expect(line).To(Equal([]byte("hello\n")))
	})

	It("writes bytes verbatim on Send", func() {
		var out bytes.Buffer
		l := NewLine(strings.NewReader(""), &out)
		Expect(l.Send([]byte("(gdb)\n"))).To(Succeed())
		Expect(out.String()).To(Equal("(gdb)\n"))
	})

	It("fails Read when fewer than n bytes are available", func() {
		l := NewLine(strings.NewReader("ab"), &bytes.Buffer{})
		_, err := l.Read(5)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("HTTPStdio", func() {
	It("reads a well-formed Content-Length framed message", func() {
		raw := "Content-Length: 5\r\n\r\nhello"
		h := NewHTTPStdio(strings.NewReader(raw), &bytes.Buffer{})
		body, err := h.ReadMessage()
		Expect(err).NotTo(HaveOccurred())
		Expect(body).To(Equal([]byte("hello")))
	})

	It("frames Send as Content-Length plus body", func() {
		var out bytes.Buffer
		h := NewHTTPStdio(strings.NewReader(""), &out)
		Expect(h.Send([]byte(`{"a":1}`))).To(Succeed())
		Expect(out.String()).To(Equal("Content-Length: 7\r\n\r\n{\"a\":1}"))
	})

	It("rejects a message with no Content-Length header", func() {
		raw := "\r\nbody"
		h := NewHTTPStdio(strings.NewReader(raw), &bytes.Buffer{})
		_, err := h.ReadMessage()
		Expect(err).To(MatchError(ErrMissingHeader))
	})

	It("rejects a non-integer Content-Length value", func() {
		raw := "Content-Length: notanumber\r\n\r\n"
		h := NewHTTPStdio(strings.NewReader(raw), &bytes.Buffer{})
		_, err := h.ReadMessage()
		Expect(err).To(MatchError(ErrBadLength))
	})

	It("rejects a Content-Length below the minimum of 2", func() {
		raw := "Content-Length: 1\r\n\r\nx"
		h := NewHTTPStdio(strings.NewReader(raw), &bytes.Buffer{})
		_, err := h.ReadMessage()
		Expect(err).To(MatchError(ErrLengthTooSmall))
	})

	It("rejects an unrecognized header", func() {
		raw := "X-Custom: 1\r\n\r\n"
		h := NewHTTPStdio(strings.NewReader(raw), &bytes.Buffer{})
		_, err := h.ReadMessage()
		Expect(err).To(MatchError(ErrUnknownHeader))
	})
})
