package assets

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spaghettifunk/gametemplate/engine/assets/loaders"
	"github.com/spaghettifunk/gametemplate/engine/core"
)

// CHANGE_QUIET_PERIOD is how long a file must stay untouched before its change
// is reported. Compilers write in several steps; one save yields one change.
const CHANGE_QUIET_PERIOD = 150 * time.Millisecond

type AssetInfo struct {
	Path       string
	Type       loaders.ResourceType
	LastLoaded time.Time
}

// AssetManager loads game files through registered loaders and, when watching,
// reports changes to known asset files on the Changes channel.
type AssetManager struct {
	root string
	fsys fs.FS

	assets  map[string]AssetInfo
	loaders map[loaders.ResourceType]Loader

	mutex sync.RWMutex

	done     chan struct{}
	fsnotify *fsnotify.Watcher
	isClosed bool
	changes  chan string
	wg       sync.WaitGroup

	// QuietPeriod overrides CHANGE_QUIET_PERIOD when set before Watch.
	QuietPeriod time.Duration
}

// NewAssetManager serves files below root from the OS file system.
func NewAssetManager(root string) *AssetManager {
	return newAssetManager(os.DirFS(root), root)
}

// NewAssetManagerFS serves files from fsys. Watching is not available.
func NewAssetManagerFS(fsys fs.FS) *AssetManager {
	return newAssetManager(fsys, "")
}

func newAssetManager(fsys fs.FS, root string) *AssetManager {
	am := &AssetManager{
		root:    root,
		fsys:    fsys,
		assets:  make(map[string]AssetInfo),
		loaders: make(map[loaders.ResourceType]Loader),
		changes: make(chan string, 16),
		done:    make(chan struct{}),
	}
	am.registerLoader(loaders.ResourceTypeBinary, &loaders.BinaryLoader{})
	am.registerLoader(loaders.ResourceTypeShader, &loaders.ShaderLoader{})
	am.registerLoader(loaders.ResourceTypeSpriteFont, &loaders.SpriteFontLoader{})
	am.registerLoader(loaders.ResourceTypeBitmapFont, &loaders.BitmapFontLoader{ResourcePath: am.root})
	am.registerLoader(loaders.ResourceTypeSystemFont, &loaders.SystemFontLoader{})
	return am
}

// Register loaders for each asset type
func (am *AssetManager) registerLoader(assetType loaders.ResourceType, loader Loader) {
	am.loaders[assetType] = loader
}

// Root returns the OS directory assets are served from, or "" for an fs.FS manager.
func (am *AssetManager) Root() string {
	return am.root
}

// Watch starts watching dirs (relative to the root) and their sub-directories.
func (am *AssetManager) Watch(dirs ...string) error {
	if am.root == "" {
		return errors.New("asset manager has no OS root to watch")
	}
	if am.isClosed {
		return errors.New("asset manager already closed")
	}
	if am.fsnotify == nil {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		am.fsnotify = w
		am.wg.Add(1)
		go am.start()
	}
	for _, d := range dirs {
		if err := am.watchRecursive(filepath.Join(am.root, filepath.FromSlash(d)), false); err != nil {
			return fmt.Errorf("watching %s: %w", d, err)
		}
	}
	return nil
}

// Changes delivers the slash separated, root relative path of every created or
// modified asset file once writes to it have been quiet for the quiet period.
// Events are dropped while the channel is full.
func (am *AssetManager) Changes() <-chan string {
	return am.changes
}

// LoadAsset loads name with the loader registered for resourceType.
func (am *AssetManager) LoadAsset(name string, resourceType loaders.ResourceType, params interface{}) (*loaders.Resource, error) {
	loader, ok := am.loaders[resourceType]
	if !ok {
		return nil, fmt.Errorf("no loader registered for asset type: %s", resourceType)
	}
	res, err := loader.Load(am.fsys, name, params)
	if err != nil {
		return nil, err
	}

	am.mutex.Lock()
	am.assets[name] = AssetInfo{Path: name, Type: resourceType, LastLoaded: time.Now()}
	am.mutex.Unlock()
	return res, nil
}

func (am *AssetManager) UnloadAsset(resource *loaders.Resource) error {
	if resource == nil {
		return nil
	}
	loader, ok := am.loaders[resource.Type]
	if !ok {
		return fmt.Errorf("no loader registered for asset type: %s", resource.Type)
	}
	return loader.Unload(resource)
}

// Asset returns what is known about a loaded or watched asset.
func (am *AssetManager) Asset(name string) (AssetInfo, bool) {
	am.mutex.RLock()
	defer am.mutex.RUnlock()
	info, ok := am.assets[name]
	return info, ok
}

// Close stops the watcher goroutine.
func (am *AssetManager) Close() error {
	if am.isClosed {
		return nil
	}
	am.isClosed = true
	close(am.done)
	am.wg.Wait()
	return nil
}

func (am *AssetManager) start() {
	defer am.wg.Done()

	quiet := am.QuietPeriod
	if quiet <= 0 {
		quiet = CHANGE_QUIET_PERIOD
	}
	// Paths written since the last flush, in first-seen order.
	var pending []string
	seen := map[string]bool{}
	var flush <-chan time.Time

	for {
		select {
		case <-flush:
			for _, rel := range pending {
				am.notify(rel)
			}
			pending = pending[:0]
			seen = map[string]bool{}
			flush = nil

		case e, ok := <-am.fsnotify.Events:
			if !ok {
				return
			}
			s, err := os.Stat(e.Name)
			if err == nil && s.IsDir() {
				if e.Op&fsnotify.Create != 0 {
					if err := am.watchRecursive(e.Name, false); err != nil {
						core.LogWarn("watching new directory %s: %s", e.Name, err)
					}
				}
				continue
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				if rel, ok := am.handleFileEvent(e.Name); ok {
					if !seen[rel] {
						seen[rel] = true
						pending = append(pending, rel)
					}
					flush = time.After(quiet)
				}
			}
			// A removed directory cannot be stat'ed, so always try to drop the watch.
			if e.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
				am.removeAsset(e.Name)
				_ = am.fsnotify.Remove(e.Name)
			}

		case err, ok := <-am.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-am.done:
			am.fsnotify.Close()
			return
		}
	}
}

func (am *AssetManager) notify(rel string) {
	select {
	case am.changes <- rel:
	default:
		core.LogDebug("asset change for %s dropped, queue full", rel)
	}
}

// watchRecursive adds all directories under the given one to the watch list.
func (am *AssetManager) watchRecursive(dir string, unWatch bool) error {
	return filepath.WalkDir(dir, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if unWatch {
				return am.fsnotify.Remove(walkPath)
			}
			return am.fsnotify.Add(walkPath)
		}
		am.handleFileEvent(walkPath)
		return nil
	})
}

// handleFileEvent indexes a created or modified file and returns its root
// relative path when it is a known asset type.
func (am *AssetManager) handleFileEvent(osPath string) (string, bool) {
	rel := am.relative(osPath)
	assetType := DetermineAssetType(rel)
	if assetType == loaders.ResourceTypeNone {
		return "", false
	}
	am.mutex.Lock()
	defer am.mutex.Unlock()
	am.assets[rel] = AssetInfo{
		Path:       rel,
		Type:       assetType,
		LastLoaded: time.Now(),
	}
	return rel, true
}

// Remove the asset from the index if it was deleted
func (am *AssetManager) removeAsset(osPath string) {
	am.mutex.Lock()
	defer am.mutex.Unlock()
	delete(am.assets, am.relative(osPath))
}

func (am *AssetManager) relative(osPath string) string {
	rel, err := filepath.Rel(am.root, osPath)
	if err != nil {
		return filepath.ToSlash(osPath)
	}
	return filepath.ToSlash(rel)
}

// DetermineAssetType maps a file extension onto the loader that handles it.
func DetermineAssetType(name string) loaders.ResourceType {
	switch strings.ToLower(path.Ext(name)) {
	case ".cso", ".spv":
		return loaders.ResourceTypeShader
	case ".spritefont":
		return loaders.ResourceTypeSpriteFont
	case ".fnt":
		return loaders.ResourceTypeBitmapFont
	case ".ttf", ".otf", ".ttc":
		return loaders.ResourceTypeSystemFont
	default:
		return loaders.ResourceTypeNone
	}
}
