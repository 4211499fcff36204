package metadata

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

/**
 * @brief A structure which is generated by the application and sent once
 * to the renderer to render a given frame.
 */
type RenderPacket struct {
	DeltaTime float64
	/** @brief The model matrix of the single mesh being drawn. */
	Transform mgl32.Mat4
}

func NewRenderPacket(deltaTime float64) *RenderPacket {
	return &RenderPacket{
		DeltaTime: deltaTime,
		Transform: mgl32.Ident4(),
	}
}

type Extent2D struct {
	Width  uint32
	Height uint32
}

func (e Extent2D) IsZero() bool {
	return e.Width == 0 || e.Height == 0
}

/**
 * @brief Describes one build of the presentation surface. Two descriptions are
 * structurally equivalent when everything but Generation and ID match.
 */
type SurfaceDescription struct {
	Generation  uint64
	ID          uuid.UUID
	Extent      Extent2D
	ColorFormat int32
	ColorSpace  int32
	PresentMode int32
	ImageCount  uint32
}

func (s SurfaceDescription) Equivalent(other SurfaceDescription) bool {
	return s.Extent == other.Extent &&
		s.ColorFormat == other.ColorFormat &&
		s.ColorSpace == other.ColorSpace &&
		s.PresentMode == other.PresentMode &&
		s.ImageCount == other.ImageCount
}

type DebugSeverity uint8

const (
	DebugSeverityError DebugSeverity = iota
	DebugSeverityWarning
	DebugSeverityInfo
	DebugSeverityVerbose
)

func ParseDebugSeverity(s string) DebugSeverity {
	switch s {
	case "error":
		return DebugSeverityError
	case "info":
		return DebugSeverityInfo
	case "verbose":
		return DebugSeverityVerbose
	}
	return DebugSeverityWarning
}

func (s DebugSeverity) String() string {
	switch s {
	case DebugSeverityError:
		return "error"
	case DebugSeverityInfo:
		return "info"
	case DebugSeverityVerbose:
		return "verbose"
	}
	return "warning"
}

/**
 * @brief Everything the backend needs at start-up that does not come from
 * the window itself.
 */
type RendererBackendConfig struct {
	/** @brief The name of the application */
	ApplicationName  string
	FramesInFlight   uint32
	VertexShader     string
	FragmentShader   string
	ClearColour      mgl32.Vec4
	EnableValidation bool
	Severity         DebugSeverity
}
