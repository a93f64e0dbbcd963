package execution

// ContainerRegistry tracks the containers created during one workflow
// run. It maps image names to container ids so jobs sharing an image
// can reuse a container, and remembers every id for cleanup.
type ContainerRegistry struct {
	byImage map[string]string
	all     []string
}

// NewContainerRegistry creates an empty registry.
func NewContainerRegistry() *ContainerRegistry {
	return &ContainerRegistry{byImage: make(map[string]string)}
}

// Lookup returns the reusable container for an image, if any.
func (r *ContainerRegistry) Lookup(image string) (string, bool) {
	id, ok := r.byImage[image]
	return id, ok
}

// Record remembers a container for cleanup; when reusable is true it
// also becomes the shared container for its image.
func (r *ContainerRegistry) Record(image, id string, reusable bool) {
	r.all = append(r.all, id)
	if reusable {
		r.byImage[image] = id
	}
}

// IDs returns every recorded container id.
func (r *ContainerRegistry) IDs() []string {
	return r.all
}
