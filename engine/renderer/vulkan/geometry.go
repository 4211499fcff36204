package vulkan

import (
	vk "github.com/goki/vulkan"

	"github.com/spaghettifunk/rebound/engine/core"
	"github.com/spaghettifunk/rebound/engine/renderer/metadata"
)

// uploadFunc fills a new device local buffer with data.
type uploadFunc func(context *VulkanContext, data []byte, usage vk.BufferUsageFlags) (*VulkanBuffer, error)

/**
 * @brief The device local vertex and index buffers of the one mesh the
 * renderer draws. Contents only change between frames, with the device idle.
 */
type GeometryBuffer struct {
	Name        string
	Vertices    *VulkanBuffer
	Indices     *VulkanBuffer
	VertexCount uint32
	IndexCount  uint32
	// incremented on every upload
	Generation uint32

	// nil means UploadToDeviceLocal
	upload uploadFunc
}

// SetContent replaces the buffers with the mesh. Both new buffers are filled
// before the old ones are destroyed, and on failure the old content stays in
// place. The device must be idle. An empty mesh still gets minimum sized
// buffers and draws nothing.
func (g *GeometryBuffer) SetContent(context *VulkanContext, mesh *metadata.MeshData) error {
	upload := g.upload
	if upload == nil {
		upload = UploadToDeviceLocal
	}

	vertices, err := upload(context, mesh.VertexBytes(), vk.BufferUsageFlags(vk.BufferUsageVertexBufferBit))
	if err != nil {
		return err
	}
	indices, err := upload(context, mesh.IndexBytes(), vk.BufferUsageFlags(vk.BufferUsageIndexBufferBit))
	if err != nil {
		vertices.Destroy(context)
		return err
	}

	g.destroyBuffers(context)
	g.Vertices = vertices
	g.Indices = indices
	g.VertexCount = mesh.VertexCount()
	g.IndexCount = mesh.IndexCount()
	g.Generation++
	g.Name = ""
	if mesh != nil {
		g.Name = mesh.Name
	}
	core.LogDebug("Geometry '%s' uploaded: %d vertices, %d indices (generation %d).", g.Name, g.VertexCount, g.IndexCount, g.Generation)
	return nil
}

// Draw binds both buffers and issues the indexed draw.
func (g *GeometryBuffer) Draw(commandBuffer *VulkanCommandBuffer) {
	if g.IndexCount == 0 || g.Vertices == nil || g.Indices == nil {
		return
	}
	vk.CmdBindVertexBuffers(commandBuffer.Handle, 0, 1, []vk.Buffer{g.Vertices.Handle}, []vk.DeviceSize{0})
	vk.CmdBindIndexBuffer(commandBuffer.Handle, g.Indices.Handle, 0, vk.IndexTypeUint32)
	vk.CmdDrawIndexed(commandBuffer.Handle, g.IndexCount, 1, 0, 0, 0)
}

func (g *GeometryBuffer) destroyBuffers(context *VulkanContext) {
	g.Vertices.Destroy(context)
	g.Indices.Destroy(context)
	g.Vertices = nil
	g.Indices = nil
	g.VertexCount = 0
	g.IndexCount = 0
}

func (g *GeometryBuffer) Destroy(context *VulkanContext) {
	g.destroyBuffers(context)
}
