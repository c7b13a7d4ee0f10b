package dap

import (
	"context"
	"io"
	"sync"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/go-logr/logr"

	"github.com/dd86k/aliceserver/internal/adapter"
	"github.com/dd86k/aliceserver/internal/dbgproto"
)

func TestDAP(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "DAP Adapter Suite")
}

// fakeTransport is an in-memory transport.Transport carrying raw JSON
// bodies (as an HTTPStdio transport would hand to an adapter, with
// Content-Length framing already stripped on read and added on send).
type fakeTransport struct {
	mu   sync.Mutex
	msgs [][]byte
	sent [][]byte
}

func newFakeTransport(msgs ...string) *fakeTransport {
	f := &fakeTransport{}
	for _, m := range msgs {
		f.msgs = append(f.msgs, []byte(m))
	}
	return f
}

func (f *fakeTransport) ReadLine() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.msgs) == 0 {
		return nil, io.EOF
	}
	m := f.msgs[0]
	f.msgs = f.msgs[1:]
	return m, nil
}

func (f *fakeTransport) Read(n int) ([]byte, error) { return nil, io.EOF }

func (f *fakeTransport) Send(b []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := append([]byte(nil), b...)
	f.sent = append(f.sent, cp)
	return nil
}

func engineDispatch() adapter.Dispatch {
	return func(req dbgproto.Request) (dbgproto.Reply, bool) {
		switch req.Kind {
		case dbgproto.Initialize:
			p := req.Payload.(dbgproto.InitializePayload)
			return dbgproto.OkWith(dbgproto.Capabilities{
				Client: p.ClientCapabilities,
				Server: dbgproto.DefaultServerCapabilities(),
			}), false
		case dbgproto.Close:
			return dbgproto.Ok(), true
		default:
			return dbgproto.Ok(), false
		}
	}
}

var _ = Describe("DAP adapter", func() {
	It("answers initialize with all server capabilities mapped true (S1)", func() {
		a := New(logr.Discard())
		ft := newFakeTransport(`{"seq":1,"type":"request","command":"initialize","arguments":{"adapterId":"test"}}`)

		Expect(a.Loop(context.Background(), engineDispatch(), ft)).To(Succeed())
		Expect(ft.sent).To(HaveLen(1))

		var resp map[string]any
		Expect(unmarshal(ft.sent[0], &resp)).To(Succeed())
		Expect(resp["seq"]).To(BeEquivalentTo(1))
		Expect(resp["request_seq"]).To(BeEquivalentTo(1))
		Expect(resp["type"]).To(Equal("response"))
		Expect(resp["success"]).To(Equal(true))
		Expect(resp["command"]).To(Equal("initialize"))

		body, ok := resp["body"].(map[string]any)
		Expect(ok).To(BeTrue())
		for _, name := range dbgproto.ServerCapabilityNames {
			Expect(body[name]).To(Equal(true), "capability %q", name)
		}
	})

	It("rejects attach with a missing pid (S2)", func() {
		a := New(logr.Discard())
		ft := newFakeTransport(
			`{"seq":1,"type":"request","command":"initialize","arguments":{"adapterId":"test"}}`,
			`{"seq":2,"type":"request","command":"attach","arguments":{}}`,
		)

		Expect(a.Loop(context.Background(), engineDispatch(), ft)).To(Succeed())
		Expect(ft.sent).To(HaveLen(2))

		var resp map[string]any
		Expect(unmarshal(ft.sent[1], &resp)).To(Succeed())
		Expect(resp["success"]).To(Equal(false))
		Expect(resp["request_seq"]).To(BeEquivalentTo(2))

		body, ok := resp["body"].(map[string]any)
		Expect(ok).To(BeTrue())
		Expect(body["error"]).To(ContainSubstring("pid"))
	})

	It("rejects any command before initialize", func() {
		a := New(logr.Discard())
		ft := newFakeTransport(`{"seq":1,"type":"request","command":"configurationDone"}`)

		Expect(a.Loop(context.Background(), engineDispatch(), ft)).To(Succeed())
		Expect(ft.sent).To(HaveLen(1))

		var resp map[string]any
		Expect(unmarshal(ft.sent[0], &resp)).To(Succeed())
		Expect(resp["success"]).To(Equal(false))
	})

	It("emits strictly increasing seq numbers across responses and events", func() {
		a := New(logr.Discard())
		ft := newFakeTransport(`{"seq":1,"type":"request","command":"initialize","arguments":{"adapterId":"test"}}`)

		Expect(a.Loop(context.Background(), engineDispatch(), ft)).To(Succeed())
		Expect(a.EmitEvent(dbgproto.Event{Kind: dbgproto.Exited, ExitCode: 0})).To(Succeed())
		Expect(ft.sent).To(HaveLen(2))

		var resp, evt map[string]any
		Expect(unmarshal(ft.sent[0], &resp)).To(Succeed())
		Expect(unmarshal(ft.sent[1], &evt)).To(Succeed())
		Expect(resp["seq"]).To(BeEquivalentTo(1))
		Expect(evt["seq"]).To(BeEquivalentTo(2))
		Expect(evt["type"]).To(Equal("event"))
		Expect(evt["event"]).To(Equal("exited"))
	})
})
