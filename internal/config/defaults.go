package config

const (
	defaultConfigPath         = "~/.config/assetlib/config.toml"
	defaultLibraryDir         = "~/assets"
	defaultLogDir             = "~/.local/share/assetlib/logs"
	registryFileName          = "registry.db"
	lockFileName              = ".assetlib.lock"
	defaultDimension          = "3D"
	defaultRenderEngine       = "Redshift"
	defaultDefaultTile        = "1001"
	defaultListingCacheSize   = 256
	defaultFrameFloor         = 1001
	defaultFrameMinLength     = 18
	defaultPackagingWorkers   = 4
	defaultMinWordLength      = 3
	defaultIngestionTimeout   = 15
	defaultIngestionAttempts  = 5
	defaultIngestionBaseDelay = 1000
	defaultIngestionMaxDelay  = 10000
	defaultNotifyTimeout      = 10
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

var (
	defaultFrameTokens = []string{"$F4", "$F3", "$F2", "$F", "<FRAME>", "<F>", "%04d", "####"}
	defaultTileTokens  = []string{"<UDIM>", "<udim>", "%(UDIM)d", "$UDIM"}
	defaultOwnerTokens = []string{"$OS", "<OWNER>"}

	defaultTextureExtensions = []string{
		".png", ".jpg", ".jpeg", ".exr", ".tif", ".tiff", ".tx", ".rat", ".hdr", ".tga", ".bmp",
	}
	defaultGeometryExtensions = []string{
		".bgeo.sc", ".bgeo.gz", ".bgeo", ".geo", ".abc", ".obj", ".fbx",
		".usd", ".usda", ".usdc", ".usdz", ".vdb", ".ply",
	}

	defaultStopwords = []string{
		"the", "and", "for", "with", "from", "this", "that", "into", "over", "under",
		"asset", "assets", "version", "final", "new", "old", "copy", "test",
	}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LibraryDir: defaultLibraryDir,
			StateDir:   defaultStateDir(),
			LogDir:     defaultLogDir,
		},
		Library: Library{
			DefaultDimension:    defaultDimension,
			DefaultRenderEngine: defaultRenderEngine,
		},
		References: References{
			FrameTokens:        append([]string(nil), defaultFrameTokens...),
			TileTokens:         append([]string(nil), defaultTileTokens...),
			OwnerTokens:        append([]string(nil), defaultOwnerTokens...),
			TextureExtensions:  append([]string(nil), defaultTextureExtensions...),
			GeometryExtensions: append([]string(nil), defaultGeometryExtensions...),
		},
		Sequences: Sequences{
			DefaultTile:      defaultDefaultTile,
			ListingCacheSize: defaultListingCacheSize,
		},
		FrameRange: FrameRange{
			Floor:     defaultFrameFloor,
			MinLength: defaultFrameMinLength,
		},
		Packaging: Packaging{
			Workers:      defaultPackagingWorkers,
			VerifyCopies: true,
		},
		Tags: Tags{
			MinWordLength: defaultMinWordLength,
			Stopwords:     append([]string(nil), defaultStopwords...),
		},
		Ingestion: Ingestion{
			TimeoutSeconds:   defaultIngestionTimeout,
			MaxAttempts:      defaultIngestionAttempts,
			RetryBaseDelayMS: defaultIngestionBaseDelay,
			RetryMaxDelayMS:  defaultIngestionMaxDelay,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
