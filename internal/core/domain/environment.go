package domain

// Environment is a directory of manifests and modules a node compiles against.
type Environment struct {
	// Name is the environment name.
	Name string

	// Path is the real (symlink-resolved) root directory of the environment.
	Path string

	// StaticCatalogs reports whether the environment allows static catalogs.
	StaticCatalogs bool
}
