package assets

import "github.com/spaghettifunk/rebound/engine/renderer/metadata"

type Loader interface {
	Load(path string, assetType metadata.ResourceType, params interface{}) (*metadata.Resource, error)
	Unload(*metadata.Resource) error
}
