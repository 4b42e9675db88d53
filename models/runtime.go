package models

const ContainerStatusRunning = "running"

type Network struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Container struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"` // created | running | exited | ...
}

// ContainerSpec is everything the runtime needs to create a service container.
type ContainerSpec struct {
	Name    string
	Service string
	Image   string
	Network string

	// Container port -> host port
	Ports map[int]int

	Env    []string
	Labels map[string]string
}

// Labels put on every container and network stagehand creates.
const (
	LabelService = "stagehand.service"
	LabelNetwork = "stagehand.network"
	LabelRun     = "stagehand.run"
)
