package docker

// ContainerInfo is a minimal container representation used by the smoke
// harness to avoid leaking the Docker SDK into the probe package. Fields
// cover the data the checks need.
type ContainerInfo struct {
	ID           string
	Name         string
	Image        string
	Running      bool
	HealthStatus string
	User         string
	Labels       map[string]string
}

// ExecResult is the outcome of a command executed inside a container.
type ExecResult struct {
	ExitCode int
	Output   string
}

// PortBinding maps a container port onto a host address.
type PortBinding struct {
	ContainerPort string
	HostIP        string
	HostPort      string
}
