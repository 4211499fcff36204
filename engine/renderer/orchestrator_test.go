package renderer

import (
	"errors"
	"fmt"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"

	"github.com/spaghettifunk/rebound/engine/core"
	"github.com/spaghettifunk/rebound/engine/math"
	"github.com/spaghettifunk/rebound/engine/renderer/components"
	"github.com/spaghettifunk/rebound/engine/renderer/metadata"
)

type fakeWindow struct {
	width, height int
	waits         int
	// sizes handed out by successive WaitEvents calls
	onWait [][2]int
}

func (w *fakeWindow) FramebufferSize() (int, int) { return w.width, w.height }

func (w *fakeWindow) WaitEvents() {
	w.waits++
	if len(w.onWait) > 0 {
		w.width, w.height = w.onWait[0][0], w.onWait[0][1]
		w.onWait = w.onWait[1:]
	}
}

type fakeSlot struct {
	signaled bool
	pending  bool
	uniforms []byte
}

// fakeBackend models fences and submissions. With deferred set, submitted work
// only completes when its fence is waited on, like a GPU that is always behind.
type fakeBackend struct {
	deferred bool
	slots    []*fakeSlot

	minExtent, maxExtent metadata.Extent2D
	generation           uint64
	surface              metadata.SurfaceDescription
	rebuilds             []metadata.Extent2D
	idleWaits            int

	indexCount uint32

	acquires    int
	staleOn     map[int]bool // acquire number -> out of date
	presentSick map[int]bool // present number -> suboptimal
	presents    int

	records, submits, draws int
	inFlight, maxInFlight   int
	failSubmit              error
	calls                   []string
}

func newFakeBackend(n int) *fakeBackend {
	b := &fakeBackend{
		minExtent:   metadata.Extent2D{Width: 1, Height: 1},
		maxExtent:   metadata.Extent2D{Width: 4096, Height: 4096},
		staleOn:     map[int]bool{},
		presentSick: map[int]bool{},
	}
	for i := 0; i < n; i++ {
		b.slots = append(b.slots, &fakeSlot{signaled: true, uniforms: make([]byte, metadata.UniformBufferObjectSize)})
	}
	return b
}

func (b *fakeBackend) Initialize() error      { return nil }
func (b *fakeBackend) Shutdown() error        { return nil }
func (b *fakeBackend) FramesInFlight() uint32 { return uint32(len(b.slots)) }
func (b *fakeBackend) UniformMemory(s uint32) []byte {
	return b.slots[s].uniforms
}

func (b *fakeBackend) WaitForFence(s uint32) error {
	b.calls = append(b.calls, fmt.Sprintf("wait%d", s))
	slot := b.slots[s]
	if slot.pending {
		slot.pending = false
		slot.signaled = true
		b.inFlight--
	}
	if !slot.signaled {
		return errors.New("deadlock: waiting on a fence nobody will signal")
	}
	return nil
}

func (b *fakeBackend) ResetFence(s uint32) error {
	b.calls = append(b.calls, fmt.Sprintf("reset%d", s))
	if !b.slots[s].signaled || b.slots[s].pending {
		return errors.New("fence reset while its work is in flight")
	}
	b.slots[s].signaled = false
	return nil
}

func (b *fakeBackend) AcquireNextImage(s uint32) (uint32, error) {
	b.acquires++
	b.calls = append(b.calls, fmt.Sprintf("acquire%d", s))
	if b.staleOn[b.acquires] {
		return 0, core.ErrSurfaceStale
	}
	return uint32(b.acquires) % b.surface.ImageCount, nil
}

func (b *fakeBackend) RecordCommands(s, image uint32) error {
	b.calls = append(b.calls, fmt.Sprintf("record%d", s))
	if b.slots[s].pending {
		return errors.New("recording a command buffer that is in flight")
	}
	if image >= b.surface.ImageCount {
		return errors.New("image index out of range")
	}
	b.records++
	if b.indexCount > 0 {
		b.draws++
	}
	return nil
}

func (b *fakeBackend) Submit(s uint32) error {
	b.calls = append(b.calls, fmt.Sprintf("submit%d", s))
	if b.failSubmit != nil {
		return b.failSubmit
	}
	b.submits++
	if b.deferred {
		b.slots[s].pending = true
		b.inFlight++
		if b.inFlight > b.maxInFlight {
			b.maxInFlight = b.inFlight
		}
		return nil
	}
	b.slots[s].signaled = true
	if b.maxInFlight < 1 {
		b.maxInFlight = 1
	}
	return nil
}

func (b *fakeBackend) Present(s, image uint32) error {
	b.presents++
	b.calls = append(b.calls, fmt.Sprintf("present%d", s))
	if b.presentSick[b.presents] {
		return core.ErrSurfaceStale
	}
	return nil
}

func (b *fakeBackend) RebuildSurface(window metadata.Extent2D) (metadata.SurfaceDescription, error) {
	b.calls = append(b.calls, "rebuild")
	b.rebuilds = append(b.rebuilds, window)
	b.generation++
	b.surface = metadata.SurfaceDescription{
		Generation: b.generation,
		ID:         uuid.New(),
		Extent: metadata.Extent2D{
			Width:  math.Clamp(window.Width, b.minExtent.Width, b.maxExtent.Width),
			Height: math.Clamp(window.Height, b.minExtent.Height, b.maxExtent.Height),
		},
		ColorFormat: 50,
		PresentMode: 1,
		ImageCount:  3,
	}
	return b.surface, nil
}

func (b *fakeBackend) WaitIdle() error {
	b.calls = append(b.calls, "idle")
	b.idleWaits++
	for _, s := range b.slots {
		if s.pending {
			s.pending = false
			s.signaled = true
			b.inFlight--
		}
	}
	return nil
}

func (b *fakeBackend) SetGeometry(mesh *metadata.MeshData) error {
	b.indexCount = mesh.IndexCount()
	return nil
}

func triangle() *metadata.MeshData {
	return &metadata.MeshData{
		Vertices: []math.Vertex3D{
			{Position: mgl32.Vec3{0, -0.5, 0}, Colour: mgl32.Vec3{1, 0, 0}},
			{Position: mgl32.Vec3{0.5, 0.5, 0}, Colour: mgl32.Vec3{0, 1, 0}},
			{Position: mgl32.Vec3{-0.5, 0.5, 0}, Colour: mgl32.Vec3{0, 0, 1}},
		},
		Indices: []uint32{0, 1, 2},
	}
}

func newTestRenderer(t *testing.T, b *fakeBackend, w *fakeWindow) *Renderer {
	t.Helper()
	r := New(b, components.NewCamera())
	if err := r.Initialize(w, triangle()); err != nil {
		t.Fatal(err)
	}
	return r
}

func TestTriangleFiveFrames(t *testing.T) {
	b := newFakeBackend(2)
	r := newTestRenderer(t, b, &fakeWindow{width: 800, height: 600})

	for i := 0; i < 5; i++ {
		if err := r.RenderFrame(metadata.NewRenderPacket(0.016)); err != nil {
			t.Fatalf("tick %d: %v", i, err)
		}
	}
	for i, s := range b.slots {
		if !s.signaled {
			t.Fatalf("slot %d fence not signaled", i)
		}
	}
	if b.submits != 5 || b.draws != 5 {
		t.Fatalf("submits=%d draws=%d", b.submits, b.draws)
	}
	if got := r.Orchestrator().FrameNumber(); got != 5 {
		t.Fatalf("frame number = %d", got)
	}
	// 5 ticks over 2 slots ends back on slot 1
	if got := r.Orchestrator().CurrentSlot(); got != 1 {
		t.Fatalf("current slot = %d", got)
	}
}

func TestTickOrder(t *testing.T) {
	b := newFakeBackend(2)
	r := newTestRenderer(t, b, &fakeWindow{width: 800, height: 600})
	b.calls = nil

	if err := r.RenderFrame(metadata.NewRenderPacket(0)); err != nil {
		t.Fatal(err)
	}
	want := []string{"wait0", "acquire0", "reset0", "record0", "submit0", "present0"}
	if fmt.Sprint(b.calls) != fmt.Sprint(want) {
		t.Fatalf("calls = %v, want %v", b.calls, want)
	}
}

func TestFramesInFlightBounded(t *testing.T) {
	for _, n := range []int{1, 2, 3} {
		t.Run(fmt.Sprintf("N=%d", n), func(t *testing.T) {
			b := newFakeBackend(n)
			b.deferred = true
			r := newTestRenderer(t, b, &fakeWindow{width: 800, height: 600})
			for k := 0; k < 50; k++ {
				if err := r.RenderFrame(metadata.NewRenderPacket(0.016)); err != nil {
					t.Fatalf("tick %d: %v", k, err)
				}
				if b.inFlight > n {
					t.Fatalf("tick %d: %d in flight", k, b.inFlight)
				}
			}
			if b.maxInFlight != n {
				t.Fatalf("max in flight = %d, want %d", b.maxInFlight, n)
			}
		})
	}
}

func TestStaleAcquireSkipsTick(t *testing.T) {
	b := newFakeBackend(2)
	b.staleOn[3] = true
	r := newTestRenderer(t, b, &fakeWindow{width: 800, height: 600})
	o := r.Orchestrator()

	for tick := 1; tick <= 2; tick++ {
		if err := r.RenderFrame(metadata.NewRenderPacket(0)); err != nil {
			t.Fatal(err)
		}
	}
	genBefore := o.Surface().Generation
	submitsBefore, recordsBefore := b.submits, b.records
	slotBefore := o.CurrentSlot()

	if err := r.RenderFrame(metadata.NewRenderPacket(0)); err != nil {
		t.Fatalf("stale acquire must not surface: %v", err)
	}
	if b.submits != submitsBefore || b.records != recordsBefore {
		t.Fatal("tick 3 recorded or submitted")
	}
	if got := o.Surface().Generation; got != genBefore+1 {
		t.Fatalf("generation %d -> %d, want exactly one increment", genBefore, got)
	}
	if o.CurrentSlot() != slotBefore {
		t.Fatal("slot advanced on an aborted tick")
	}
	if o.State() != SurfaceBuilt {
		t.Fatalf("state = %s", o.State())
	}

	if err := r.RenderFrame(metadata.NewRenderPacket(0)); err != nil {
		t.Fatal(err)
	}
	if b.submits != submitsBefore+1 {
		t.Fatal("tick 4 did not submit")
	}
	if got := o.Surface().Generation; got != genBefore+1 {
		t.Fatalf("generation moved again on tick 4: %d", got)
	}
}

func TestSuboptimalPresentRecreatesAfterPresenting(t *testing.T) {
	b := newFakeBackend(2)
	b.presentSick[1] = true
	r := newTestRenderer(t, b, &fakeWindow{width: 800, height: 600})
	b.calls = nil

	if err := r.RenderFrame(metadata.NewRenderPacket(0)); err != nil {
		t.Fatal(err)
	}
	want := []string{"wait0", "acquire0", "reset0", "record0", "submit0", "present0", "idle", "rebuild"}
	if fmt.Sprint(b.calls) != fmt.Sprint(want) {
		t.Fatalf("calls = %v, want %v", b.calls, want)
	}
	if r.Orchestrator().CurrentSlot() != 1 {
		t.Fatal("presented frame must still advance the slot")
	}
}

func TestResizeRebuildsWithWindowExtent(t *testing.T) {
	b := newFakeBackend(2)
	b.maxExtent = metadata.Extent2D{Width: 1920, Height: 1080}
	w := &fakeWindow{width: 800, height: 600}
	r := newTestRenderer(t, b, w)

	cases := []struct {
		w, h int
		want metadata.Extent2D
	}{
		{1024, 768, metadata.Extent2D{Width: 1024, Height: 768}},
		{4000, 3000, metadata.Extent2D{Width: 1920, Height: 1080}},
	}
	for _, tc := range cases {
		w.width, w.height = tc.w, tc.h
		r.NotifyResized()
		if err := r.RenderFrame(metadata.NewRenderPacket(0)); err != nil {
			t.Fatal(err)
		}
		if got := r.Orchestrator().Surface().Extent; got != tc.want {
			t.Fatalf("extent after resize to %dx%d = %+v, want %+v", tc.w, tc.h, got, tc.want)
		}
	}
}

func TestMinimizedWindowBlocksRecreation(t *testing.T) {
	b := newFakeBackend(2)
	w := &fakeWindow{width: 800, height: 600}
	r := newTestRenderer(t, b, w)

	w.width, w.height = 0, 0
	w.onWait = [][2]int{{0, 0}, {640, 480}}
	r.NotifyResized()
	if err := r.RenderFrame(metadata.NewRenderPacket(0)); err != nil {
		t.Fatal(err)
	}
	if w.waits != 2 {
		t.Fatalf("waited %d times, want 2", w.waits)
	}
	if got := r.Orchestrator().Surface().Extent; got != (metadata.Extent2D{Width: 640, Height: 480}) {
		t.Fatalf("extent = %+v", got)
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	b := newFakeBackend(2)
	r := newTestRenderer(t, b, &fakeWindow{width: 800, height: 600})
	o := r.Orchestrator()

	if err := o.Rebuild(); err != nil {
		t.Fatal(err)
	}
	first := o.Surface()
	if err := o.Rebuild(); err != nil {
		t.Fatal(err)
	}
	second := o.Surface()
	if !first.Equivalent(second) {
		t.Fatalf("rebuilds differ: %+v vs %+v", first, second)
	}
	if second.Generation != first.Generation+1 || first.ID == second.ID {
		t.Fatal("each rebuild must be a new generation")
	}
	if b.idleWaits < 2 {
		t.Fatal("rebuild must idle the device")
	}
}

func TestUniformsCarryTransformAndFlippedProjection(t *testing.T) {
	b := newFakeBackend(2)
	r := newTestRenderer(t, b, &fakeWindow{width: 800, height: 600})

	packet := metadata.NewRenderPacket(0)
	packet.Transform = mgl32.Translate3D(0.25, -1, 2)
	if err := r.RenderFrame(packet); err != nil {
		t.Fatal(err)
	}
	got, err := metadata.ReadUniformBufferObject(b.slots[0].uniforms)
	if err != nil {
		t.Fatal(err)
	}
	if got.Model != packet.Transform {
		t.Fatalf("model = %v", got.Model)
	}
	cam := r.Camera()
	if got.View != cam.GetView() {
		t.Fatalf("view = %v", got.View)
	}
	unflipped := math.NewMat4Perspective(cam.FovRadians, 800.0/600.0, cam.NearClip, cam.FarClip)
	for i := 0; i < 16; i++ {
		want := unflipped[i]
		if i == 5 {
			want = -want
		}
		if got.Projection[i] != want {
			t.Fatalf("projection[%d] = %f, want %f", i, got.Projection[i], want)
		}
	}
}

func TestEmptyMeshDrawsNothing(t *testing.T) {
	b := newFakeBackend(2)
	r := newTestRenderer(t, b, &fakeWindow{width: 800, height: 600})

	if err := r.ReplaceGeometry(&metadata.MeshData{}); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := r.RenderFrame(metadata.NewRenderPacket(0)); err != nil {
			t.Fatal(err)
		}
	}
	if b.draws != 0 || b.submits != 3 {
		t.Fatalf("draws=%d submits=%d", b.draws, b.submits)
	}
}

func TestFatalSubmitSurfaces(t *testing.T) {
	b := newFakeBackend(2)
	r := newTestRenderer(t, b, &fakeWindow{width: 800, height: 600})
	b.failSubmit = core.ErrDeviceLost

	err := r.RenderFrame(metadata.NewRenderPacket(0))
	var fatal *core.FatalRuntimeError
	if !errors.As(err, &fatal) || !errors.Is(err, core.ErrDeviceLost) {
		t.Fatalf("err = %v", err)
	}
}

func TestRenderBeforeInitialize(t *testing.T) {
	r := New(newFakeBackend(2), nil)
	if err := r.RenderFrame(metadata.NewRenderPacket(0)); !errors.Is(err, core.ErrNotInitialized) {
		t.Fatalf("err = %v", err)
	}
}

func TestNilPacketIsFatal(t *testing.T) {
	b := newFakeBackend(2)
	r := newTestRenderer(t, b, &fakeWindow{width: 800, height: 600})

	err := r.RenderFrame(nil)
	var fatal *core.FatalRuntimeError
	if !errors.As(err, &fatal) {
		t.Fatalf("err = %v, want a fatal runtime error", err)
	}
	if b.submits != 0 || b.acquires != 0 {
		t.Errorf("nil packet reached the backend: %d acquires, %d submits", b.acquires, b.submits)
	}
}
