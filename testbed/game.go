package testbed

import (
	"github.com/go-gl/mathgl/mgl32"

	"github.com/spaghettifunk/rebound/engine"
	"github.com/spaghettifunk/rebound/engine/core"
	"github.com/spaghettifunk/rebound/engine/math"
	"github.com/spaghettifunk/rebound/engine/renderer/metadata"
)

const (
	ballRadius  float32 = 0.5
	ballSectors         = 24
	ballStacks          = 12
	restitution float32 = 0.78
)

var (
	initialVelocity = mgl32.Vec3{1.5, 2.5, -1.8}
	// the ball surface stays inside [-roomHalfExtents, roomHalfExtents]
	roomHalfExtents = mgl32.Vec3{5.0, 4.0, 5.0}
)

type TestGame struct {
	*engine.Game
}

type gameState struct {
	position mgl32.Vec3
	velocity mgl32.Vec3
	bounces  uint64

	width  uint32
	height uint32
}

// NewTestGame returns the bouncing ball scene. The application config is
// left nil so the engine derives it from the config file.
func NewTestGame() *TestGame {
	tg := &TestGame{
		Game: &engine.Game{
			State: newGameState(),
		},
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnRender = tg.Render
	tg.FnOnResize = tg.OnResize

	return tg
}

func newGameState() *gameState {
	return &gameState{
		position: mgl32.Vec3{},
		velocity: initialVelocity,
	}
}

func (g *TestGame) Initialize() (*metadata.MeshData, error) {
	core.LogDebug("TestGame Initialize fn....")

	vertices, indices := math.GeometryGenerateSphere(ballRadius, ballSectors, ballStacks)
	core.LogInfo("ball mesh generated: %d vertices, %d indices", len(vertices), len(indices))
	return &metadata.MeshData{
		Name:     "ball",
		Vertices: vertices,
		Indices:  indices,
	}, nil
}

func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)
	if state.step(float32(deltaTime)) {
		state.bounces++
	}
	return nil
}

func (g *TestGame) Render(packet *metadata.RenderPacket) error {
	state := g.State.(*gameState)
	packet.Transform = math.NewMat4Translation(state.position)
	return nil
}

func (g *TestGame) OnResize(width uint32, height uint32) error {
	state := g.State.(*gameState)
	state.width = width
	state.height = height
	return nil
}

// step advances the ball by dt with explicit Euler. On contact with a wall
// the ball is pinned so its surface touches the wall, and the velocity
// component is reflected and damped. Reports whether any wall was hit.
func (s *gameState) step(dt float32) bool {
	s.position = s.position.Add(s.velocity.Mul(dt))

	bounced := false
	for axis := 0; axis < 3; axis++ {
		limit := roomHalfExtents[axis] - ballRadius
		switch {
		case s.position[axis] > limit:
			s.position[axis] = limit
			s.velocity[axis] = -s.velocity[axis] * restitution
			bounced = true
		case s.position[axis] < -limit:
			s.position[axis] = -limit
			s.velocity[axis] = -s.velocity[axis] * restitution
			bounced = true
		}
	}
	return bounced
}
