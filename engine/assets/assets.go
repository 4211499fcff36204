package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/rebound/engine/assets/loaders"
	"github.com/spaghettifunk/rebound/engine/containers"
	"github.com/spaghettifunk/rebound/engine/core"
	"github.com/spaghettifunk/rebound/engine/renderer/metadata"
)

// pending reloads beyond this are dropped until the engine drains the queue
const reloadQueueSize = 32

var ErrManagerClosed = errors.New("asset manager already closed")

type AssetInfo struct {
	Path       string
	Type       metadata.ResourceType
	LastLoaded time.Time
}

// ReloadRequest is queued by the watcher when a known asset changes on disk.
type ReloadRequest struct {
	Path string
	Type metadata.ResourceType
}

type AssetManager struct {
	assets  map[string]AssetInfo
	loaders map[metadata.ResourceType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	wg       sync.WaitGroup
	fsnotify *fsnotify.Watcher
	isClosed bool
	reloads  *containers.RingQueue[ReloadRequest]
}

func NewAssetManager() (*AssetManager, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	am := &AssetManager{
		assets:   make(map[string]AssetInfo),
		loaders:  make(map[metadata.ResourceType]Loader),
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		reloads:  containers.NewRingQueue[ReloadRequest](reloadQueueSize),
	}

	am.registerLoader(metadata.ResourceTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(metadata.ResourceTypeModel, &loaders.ModelLoader{})
	return am, nil
}

// Initialize indexes assetsDir. With watch set, changes below it are turned
// into reload requests until Shutdown.
func (am *AssetManager) Initialize(assetsDir string, watch bool) error {
	if am.isClosed {
		return ErrManagerClosed
	}
	if watch {
		am.wg.Add(1)
		go am.start()
	}
	if _, err := os.Stat(assetsDir); err != nil {
		if os.IsNotExist(err) {
			core.LogWarn("assets directory %s does not exist, nothing to index", assetsDir)
			return nil
		}
		return err
	}
	return am.watchRecursive(assetsDir, !watch)
}

// Watch starts watching the directory holding the named file so that writes
// to that file produce reload requests.
func (am *AssetManager) Watch(path string) error {
	if am.isClosed {
		return ErrManagerClosed
	}
	am.handleFileEvent(path)
	return am.fsnotify.Add(filepath.Dir(filepath.Clean(path)))
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType metadata.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// LoadAsset loads the file using the loader registered for resourceType.
// ResourceTypeNone picks the loader from the file extension.
func (am *AssetManager) LoadAsset(path string, resourceType metadata.ResourceType, params interface{}) (*metadata.Resource, error) {
	path = filepath.Clean(path)
	if resourceType == metadata.ResourceTypeNone {
		resourceType = determineAssetType(path)
	}

	loader, loaderExists := am.loaders[resourceType]
	if !loaderExists {
		return nil, fmt.Errorf("no loader registered for asset type: %s", resourceType)
	}

	res, err := loader.Load(path, resourceType, params)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	am.assets[path] = AssetInfo{Path: path, Type: resourceType, LastLoaded: time.Now()}
	am.mutex.Unlock()
	return res, nil
}

func (am *AssetManager) UnloadAsset(asset *metadata.Resource) error {
	if asset == nil {
		return nil
	}
	loader, ok := am.loaders[asset.Type]
	if !ok {
		return fmt.Errorf("no loader registered for asset type: %s", asset.Type)
	}
	return loader.Unload(asset)
}

// Lookup returns the index entry of a known asset.
func (am *AssetManager) Lookup(path string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[filepath.Clean(path)]
	return info, ok
}

// DrainReloads empties the reload queue. Repeated writes to the same file
// collapse into one request, in first-seen order.
func (am *AssetManager) DrainReloads() []ReloadRequest {
	var out []ReloadRequest
	seen := make(map[string]bool)
	for !am.reloads.IsEmpty() {
		r, err := am.reloads.Dequeue()
		if err != nil {
			break
		}
		if seen[r.Path] {
			continue
		}
		seen[r.Path] = true
		out = append(out, r)
	}
	return out
}

func (am *AssetManager) Shutdown() error {
	if am.isClosed {
		return nil
	}
	am.isClosed = true
	close(am.done)
	am.wg.Wait()
	return am.fsnotify.Close()
}

func (am *AssetManager) start() {
	defer am.wg.Done()
	for {
		select {
		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s != nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name, false); err != nil {
						core.LogWarn("failed to watch %s: %v", e.Name, err)
					}
				}
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				am.queueReload(e.Name)
			}
			// can't stat a deleted path, drop it from the index and the watch list
			if e.Op&fsnotify.Remove != 0 {
				am.removeAsset(e.Name)
				_ = am.fsnotify.Remove(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %v", err)

		case <-am.done:
			return
		}
	}
}

func (am *AssetManager) queueReload(path string) {
	path = filepath.Clean(path)
	assetType := am.handleFileEvent(path)
	if assetType == metadata.ResourceTypeNone {
		return
	}
	if err := am.reloads.Enqueue(ReloadRequest{Path: path, Type: assetType}); err != nil {
		core.LogWarn("dropping reload of %s: %v", path, err)
		return
	}
	core.LogDebug("queued %s reload of %s", assetType, path)
}

// watchRecursive adds all directories under the given one to the watch list
// and indexes the files found. With indexOnly set, nothing is watched.
func (am *AssetManager) watchRecursive(path string, indexOnly bool) error {
	return filepath.Walk(path, func(walkPath string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			if indexOnly {
				return nil
			}
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// handleFileEvent indexes a created or modified file and returns its type.
func (am *AssetManager) handleFileEvent(path string) metadata.ResourceType {
	path = filepath.Clean(path)
	assetType := determineAssetType(path)
	if assetType == metadata.ResourceTypeNone {
		return assetType
	}

	am.mutex.Lock()
	defer am.mutex.Unlock()
	info := am.assets[path]
	info.Path = path
	info.Type = assetType
	am.assets[path] = info
	return assetType
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(path string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()

	delete(am.assets, filepath.Clean(path))
}

func determineAssetType(path string) metadata.ResourceType {
	switch filepath.Ext(path) {
	case ".spv":
		return metadata.ResourceTypeShader
	case ".obj":
		return metadata.ResourceTypeModel
	default:
		return metadata.ResourceTypeNone
	}
}
