package metadata

type ResourceType int

/** @brief Resource types the asset manager knows how to load. */
const (
	ResourceTypeNone ResourceType = iota
	/** @brief A compiled SPIR-V shader stage. */
	ResourceTypeShader
	/** @brief A Wavefront OBJ mesh. */
	ResourceTypeModel
)

func (t ResourceType) String() string {
	switch t {
	case ResourceTypeShader:
		return "shader"
	case ResourceTypeModel:
		return "model"
	}
	return "none"
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	Type ResourceType
	/** @brief The name of the resource. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/** @brief The resource data: []uint32 for shaders, *MeshData for models. */
	Data interface{}
}
