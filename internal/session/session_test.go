package session

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/stretchr/testify/mock"
	"golang.org/x/sync/errgroup"

	"github.com/go-logr/logr"

	"github.com/dd86k/aliceserver/internal/adapter"
	"github.com/dd86k/aliceserver/internal/dbgproto"
	"github.com/dd86k/aliceserver/internal/transport"
)

func TestSession(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Session Engine Suite")
}

// mockDebugger is a testify/mock double for debugger.Debugger, letting the
// engine's state machine be exercised without a real traced process.
type mockDebugger struct {
	mock.Mock
}

func (m *mockDebugger) Launch(ctx context.Context, exec string, args []string, cwd string) error {
	return m.Called(ctx, exec, args, cwd).Error(0)
}

func (m *mockDebugger) Attach(ctx context.Context, pid int) error {
	return m.Called(ctx, pid).Error(0)
}

func (m *mockDebugger) ContinueThread(tid int) error {
	return m.Called(tid).Error(0)
}

func (m *mockDebugger) Terminate() error {
	return m.Called().Error(0)
}

func (m *mockDebugger) Detach() error {
	return m.Called().Error(0)
}

func (m *mockDebugger) Wait() (dbgproto.Event, error) {
	args := m.Called()
	return args.Get(0).(dbgproto.Event), args.Error(1)
}

func (m *mockDebugger) Threads() ([]int, error) {
	args := m.Called()
	return args.Get(0).([]int), args.Error(1)
}

func (m *mockDebugger) Frame(tid int) (dbgproto.Frame, error) {
	args := m.Called(tid)
	return args.Get(0).(dbgproto.Frame), args.Error(1)
}

// noopAdapter is an adapter.Adapter stub that records emitted events and
// never actually reads a transport; Run's errgroup is driven directly by
// tests instead of through Loop in most specs.
type noopAdapter struct {
	events []dbgproto.Event
}

func (n *noopAdapter) Name() string { return "noop" }
func (n *noopAdapter) Loop(ctx context.Context, dispatch adapter.Dispatch, t transport.Transport) error {
	<-ctx.Done()
	return nil
}
func (n *noopAdapter) EmitEvent(evt dbgproto.Event) error {
	n.events = append(n.events, evt)
	return nil
}
func (n *noopAdapter) Capabilities() dbgproto.Capabilities { return dbgproto.Capabilities{} }

var _ = Describe("Engine state machine", func() {
	var (
		dbg *mockDebugger
		eng *Engine
		a   *noopAdapter
	)

	BeforeEach(func() {
		dbg = new(mockDebugger)
		eng = New(dbg, "1.2.3", logr.Discard())
		a = &noopAdapter{}
	})

	It("starts Idle", func() {
		Expect(eng.State()).To(Equal(dbgproto.Idle))
	})

	It("moves Idle -> Launched on a non-running launch", func() {
		dbg.On("Launch", mock.Anything, "/bin/true", []string(nil), "").Return(nil)

		reply := eng.doLaunch(dbgproto.LaunchPayload{Exec: "/bin/true", Run: false})
		Expect(reply.Success).To(BeTrue())
		Expect(reply.Running).To(BeFalse())
		Expect(eng.State()).To(Equal(dbgproto.Launched))
		dbg.AssertExpectations(GinkgoT())
	})

	It("moves Idle -> Running when the launch payload asks to run", func() {
		eng.adapter = a

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		g, gctx := errgroup.WithContext(ctx)
		eng.group = g
		eng.runCtx = gctx

		dbg.On("Launch", mock.Anything, "/bin/true", []string(nil), "").Return(nil)
		dbg.On("Wait").Return(dbgproto.Event{Kind: dbgproto.Exited, ExitCode: 0}, nil).Once()

		reply := eng.doLaunch(dbgproto.LaunchPayload{Exec: "/bin/true", Run: true})
		Expect(reply.Success).To(BeTrue())
		Expect(reply.Running).To(BeTrue())
		Expect(eng.State()).To(Equal(dbgproto.Running))

		Expect(g.Wait()).To(Succeed())
		Expect(a.events).To(HaveLen(1))
		Expect(eng.State()).To(Equal(dbgproto.Idle))
	})

	It("rejects launch from a non-Idle state", func() {
		eng.state = dbgproto.Running
		reply := eng.doLaunch(dbgproto.LaunchPayload{Exec: "/bin/true"})
		Expect(reply.Success).To(BeFalse())
		Expect(reply.Message).To(ContainSubstring("cannot launch"))
	})

	It("rejects continue when no process is active", func() {
		reply := eng.doContinue(dbgproto.ContinuePayload{})
		Expect(reply.Success).To(BeFalse())
		dbg.AssertNotCalled(GinkgoT(), "ContinueThread", mock.Anything)
	})

	It("continues a Stopped thread and moves to Running", func() {
		eng.state = dbgproto.Stopped
		dbg.On("ContinueThread", 7).Return(nil)

		reply := eng.doContinue(dbgproto.ContinuePayload{ThreadID: 7})
		Expect(reply.Success).To(BeTrue())
		Expect(reply.Running).To(BeTrue())
		Expect(eng.State()).To(Equal(dbgproto.Running))
	})

	It("terminates a Launched session on Close by default", func() {
		eng.state = dbgproto.Launched
		dbg.On("Terminate").Return(nil)

		reply, done := eng.doClose(dbgproto.ClosePayload{})
		Expect(done).To(BeTrue())
		Expect(reply.Success).To(BeTrue())
		Expect(eng.State()).To(Equal(dbgproto.Closed))
	})

	It("detaches an Attached session on Close unless told to terminate", func() {
		eng.state = dbgproto.Attached
		dbg.On("Detach").Return(nil)

		_, done := eng.doClose(dbgproto.ClosePayload{TerminateIfLaunched: false})
		Expect(done).To(BeTrue())
		dbg.AssertExpectations(GinkgoT())
	})

	It("terminates an Attached session on Close when asked to", func() {
		eng.state = dbgproto.Attached
		dbg.On("Terminate").Return(nil)

		_, done := eng.doClose(dbgproto.ClosePayload{TerminateIfLaunched: true})
		Expect(done).To(BeTrue())
		dbg.AssertExpectations(GinkgoT())
	})

	It("answers show version from its own version string", func() {
		reply := eng.doShow(dbgproto.ShowPayload{Arg: "version"})
		Expect(reply.Success).To(BeTrue())
		Expect(reply.Details).To(Equal("1.2.3"))
	})

	It("answers bare show with plain Ok, not an error", func() {
		reply := eng.doShow(dbgproto.ShowPayload{})
		Expect(reply.Success).To(BeTrue())
		Expect(reply.Details).To(BeNil())
	})
})
