package registry

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/ezenkico/deploy-commander/stagehand/models"
	"github.com/ezenkico/deploy-commander/stagehand/pkg/logging"
)

var errAlreadyLoaded = errors.New("registry already loaded")

// Registry holds the service definitions of one invocation. Once Load has
// succeeded the dependency graph is closed, acyclic and read-only.
type Registry struct {
	definitions []*models.ServiceDefinition
	byName      map[string]*models.ServiceDefinition
	loaded      bool
}

// New creates a registry over an explicit list of definitions.
func New(defs ...*models.ServiceDefinition) *Registry {
	return &Registry{
		definitions: defs,
		byName:      make(map[string]*models.ServiceDefinition),
	}
}

// Load validates the definitions, drops the excluded ones, resolves
// dependency names into references and rejects cycles.
func (r *Registry) Load(excluded []string) error {
	if r.loaded {
		return errAlreadyLoaded
	}
	if len(r.definitions) == 0 {
		return &models.LoadError{Kind: models.ErrNoServicesDefined}
	}

	exclude := make(map[string]struct{}, len(excluded))
	for _, name := range excluded {
		name = strings.TrimSpace(name)
		if name != "" {
			exclude[name] = struct{}{}
		}
	}

	known := make(map[string]struct{}, len(r.definitions))
	for _, def := range r.definitions {
		if def == nil {
			return &models.LoadError{Kind: models.ErrInvalidDefinition, Detail: "nil definition"}
		}
		if err := def.Validate(); err != nil {
			return err
		}
		known[def.Name] = struct{}{}
	}
	for name := range exclude {
		if _, ok := known[name]; !ok {
			logging.Warn("Registry", "Excluded service %s is not defined", name)
		}
	}

	kept := make([]*models.ServiceDefinition, 0, len(r.definitions))
	counts := make(map[string]int, len(r.definitions))
	for _, def := range r.definitions {
		if _, ok := exclude[def.Name]; ok {
			continue
		}
		for _, dep := range def.DependsOn {
			if _, ok := exclude[dep]; ok {
				return &models.LoadError{
					Kind:    models.ErrExcludedDependency,
					Service: def.Name,
					Detail:  fmt.Sprintf("%s is to be excluded, but %s depends on it", dep, def.Name),
				}
			}
		}
		counts[def.Name]++
		kept = append(kept, def)
	}

	var multiples []string
	for name, count := range counts {
		if count > 1 {
			multiples = append(multiples, name)
		}
	}
	if len(multiples) > 0 {
		sort.Strings(multiples)
		return &models.LoadError{
			Kind:   models.ErrRepeatedServiceName,
			Detail: strings.Join(multiples, ","),
		}
	}

	byName := make(map[string]*models.ServiceDefinition, len(kept))
	for _, def := range kept {
		byName[def.Name] = def
	}
	if err := checkDependenciesExist(kept, byName); err != nil {
		return err
	}

	for _, def := range kept {
		def.Dependencies = make([]*models.ServiceDefinition, 0, len(def.DependsOn))
		def.Dependants = nil
	}
	for _, def := range kept {
		for _, depName := range def.DependsOn {
			dep := byName[depName]
			def.Dependencies = append(def.Dependencies, dep)
			dep.Dependants = append(dep.Dependants, def)
		}
	}

	if err := checkCircularDependencies(kept); err != nil {
		return err
	}

	r.definitions = kept
	r.byName = byName
	r.loaded = true
	logging.Debug("Registry", "Loaded %d service definitions (excluded: %d)", len(kept), len(exclude))
	return nil
}

func (r *Registry) Len() int {
	return len(r.byName)
}

func (r *Registry) Get(name string) (*models.ServiceDefinition, bool) {
	def, ok := r.byName[name]
	return def, ok
}

// Names returns the loaded service names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the loaded definitions in declaration order.
func (r *Registry) All() []*models.ServiceDefinition {
	out := make([]*models.ServiceDefinition, len(r.definitions))
	copy(out, r.definitions)
	return out
}

// StartOrder returns one valid start order, breaking ties by name.
func (r *Registry) StartOrder() []string {
	remaining := make(map[string]int, len(r.byName))
	var ready []string
	for name, def := range r.byName {
		remaining[name] = len(def.Dependencies)
		if len(def.Dependencies) == 0 {
			ready = append(ready, name)
		}
	}

	order := make([]string, 0, len(r.byName))
	for len(ready) > 0 {
		sort.Strings(ready)
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)
		for _, dependant := range r.byName[name].Dependants {
			remaining[dependant.Name]--
			if remaining[dependant.Name] == 0 {
				ready = append(ready, dependant.Name)
			}
		}
	}
	return order
}

func checkDependenciesExist(defs []*models.ServiceDefinition, byName map[string]*models.ServiceDefinition) error {
	for _, def := range defs {
		for _, dep := range def.DependsOn {
			if _, ok := byName[dep]; !ok {
				return &models.LoadError{
					Kind:    models.ErrUnknownDependency,
					Service: def.Name,
					Detail:  fmt.Sprintf("dependency %s of service %s not among services", dep, def.Name),
				}
			}
		}
	}
	return nil
}

func checkCircularDependencies(defs []*models.ServiceDefinition) error {
	for _, def := range defs {
		if len(def.Dependencies) == 0 {
			continue
		}
		if path := findCycle(def, len(defs)); path != nil {
			return &models.LoadError{
				Kind:    models.ErrCircularDependency,
				Service: def.Name,
				Detail:  formatPath(path),
			}
		}
	}
	return nil
}

// findCycle walks the dependency closure of origin depth-first and returns
// the path back to origin if there is one. At most budget nodes are expanded.
func findCycle(origin *models.ServiceDefinition, budget int) []string {
	type frame struct {
		node *models.ServiceDefinition
		next int
	}

	visited := map[string]bool{origin.Name: true}
	stack := []frame{{node: origin}}
	steps := 0

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(top.node.Dependencies) {
			stack = stack[:len(stack)-1]
			continue
		}
		dep := top.node.Dependencies[top.next]
		top.next++

		if dep.Name == origin.Name {
			path := make([]string, 0, len(stack)+1)
			for _, f := range stack {
				path = append(path, f.node.Name)
			}
			return append(path, origin.Name)
		}
		if visited[dep.Name] {
			continue
		}
		if steps >= budget {
			return nil
		}
		steps++
		visited[dep.Name] = true
		stack = append(stack, frame{node: dep})
	}
	return nil
}

func formatPath(path []string) string {
	quoted := make([]string, len(path))
	for i, s := range path {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return strings.Join(quoted, " -> ")
}
