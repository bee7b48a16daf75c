package app

// Build information, injected at link time.
var (
	Version   = "dev"
	GitTag    = ""
	BuildTime = ""
)
