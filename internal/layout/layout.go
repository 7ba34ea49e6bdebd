// Package layout names the directories of a packaged asset:
//
//	<root>/<AssetType>/<Subcategory>/<AssetID>/
//	    Data/paths.json
//	    Textures/<owner>/
//	    Geometry/<type>/[<sequence>/]
//	    Thumbnail/
//	    metadata.json
package layout

import (
	"path"
	"path/filepath"
	"strings"

	"assetlib/internal/textutil"
)

const (
	DataDir       = "Data"
	TexturesDir   = "Textures"
	GeometryDir   = "Geometry"
	ThumbnailDir  = "Thumbnail"
	PathsFile     = "paths.json"
	MetadataFile  = "metadata.json"
	SceneFile     = "scene.yaml"
	sharedOwner   = "Shared"
	unknownFolder = "Misc"
)

// Skeleton lists the directories created for every asset.
var Skeleton = []string{DataDir, TexturesDir, GeometryDir, ThumbnailDir}

// AssetDir returns the absolute asset directory for a hierarchy and asset ID.
func AssetDir(root, assetType, subcategory, assetID string) string {
	return filepath.Join(root, Folder(assetType), Folder(subcategory), assetID)
}

// Folder converts a hierarchy label into a folder segment.
func Folder(label string) string {
	if name := textutil.FolderName(label); name != "" {
		return name
	}
	return unknownFolder
}

// OwnerFolder converts an owner label into a texture folder segment.
func OwnerFolder(owner string) string {
	name := textutil.SanitizeFileName(owner)
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.Trim(name, ".")
	if name == "" {
		return sharedOwner
	}
	return name
}

// TextureFolder returns the asset-relative folder for textures of owner.
func TextureFolder(owner string) string {
	return path.Join(TexturesDir, OwnerFolder(owner))
}

// GeometryFolder returns the asset-relative folder for geometry with the
// given (possibly compound) extension: ".bgeo.sc" lands in Geometry/bgeo.
func GeometryFolder(ext string) string {
	return path.Join(GeometryDir, GeometryType(ext))
}

// GeometryType returns the first segment of an extension, lower-cased.
func GeometryType(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if i := strings.IndexByte(ext, '.'); i >= 0 {
		ext = ext[:i]
	}
	if ext == "" {
		return "other"
	}
	return ext
}

// DataPath returns the absolute path of a file under Data/.
func DataPath(assetDir, name string) string {
	return filepath.Join(assetDir, DataDir, name)
}
