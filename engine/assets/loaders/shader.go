package loaders

import (
	"os"
	"path/filepath"

	pkgerrors "github.com/pkg/errors"

	"github.com/spaghettifunk/rebound/engine/core"
	"github.com/spaghettifunk/rebound/engine/renderer/metadata"
)

// SPIRVMagic is the first word of every SPIR-V module, little endian.
const SPIRVMagic uint32 = 0x07230203

type ShaderLoader struct{}

func (sl *ShaderLoader) Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	code, err := LoadSPIRV(path)
	if err != nil {
		return nil, err
	}
	return &metadata.Resource{
		Type:     metadata.ResourceTypeShader,
		Name:     filepath.Base(path),
		FullPath: path,
		DataSize: uint64(len(code) * 4),
		Data:     code,
	}, nil
}

func (sl *ShaderLoader) Unload(res *metadata.Resource) error {
	res.Data = nil
	res.DataSize = 0
	return nil
}

// LoadSPIRV reads a compiled shader stage. Unreadable files and blobs that
// are not SPIR-V both wrap core.ErrInvalidShader.
func LoadSPIRV(path string) ([]uint32, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pkgerrors.Wrapf(core.ErrInvalidShader, "read %s: %v", path, err)
	}
	code, err := ParseSPIRV(data)
	if err != nil {
		return nil, pkgerrors.Wrap(err, path)
	}
	return code, nil
}

// ParseSPIRV checks the blob length and magic number and converts it to the
// word slice vkCreateShaderModule expects.
func ParseSPIRV(data []byte) ([]uint32, error) {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, pkgerrors.Wrapf(core.ErrInvalidShader, "size %d is not a positive multiple of 4", len(data))
	}
	code := bytesToBytecode(data)
	if code[0] != SPIRVMagic {
		return nil, pkgerrors.Wrapf(core.ErrInvalidShader, "bad magic %#08x", code[0])
	}
	return code, nil
}

func bytesToBytecode(b []byte) []uint32 {
	byteCode := make([]uint32, len(b)/4)
	for i := range byteCode {
		byteIndex := i * 4
		byteCode[i] = uint32(b[byteIndex]) |
			uint32(b[byteIndex+1])<<8 |
			uint32(b[byteIndex+2])<<16 |
			uint32(b[byteIndex+3])<<24
	}
	return byteCode
}
