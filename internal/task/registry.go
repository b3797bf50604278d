package task

import (
	"medminer/internal/config"
	"medminer/internal/tool"
	"medminer/internal/vocab"
	pkghttp "medminer/pkg/http"
	"medminer/pkg/ratelimiter"
)

// Registry is an ordered catalog of task definitions. Registration order is
// preserved for listing and filtering; re-registering a name replaces the
// definition in place.
type Registry struct {
	order []string
	defs  map[string]*Definition
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*Definition)}
}

// Register adds a definition, overwriting any previous one with the same
// name.
func (r *Registry) Register(def *Definition) {
	if _, ok := r.defs[def.Name]; !ok {
		r.order = append(r.order, def.Name)
	}
	r.defs[def.Name] = def
}

// Get returns the definition with the given name.
func (r *Registry) Get(name string) (*Definition, bool) {
	def, ok := r.defs[name]
	return def, ok
}

// All returns every definition in registration order.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.defs[name])
	}
	return out
}

// Filter returns the definitions whose names are in the given list, in
// registration order. Unknown names are ignored.
func (r *Registry) Filter(names []string) []*Definition {
	wanted := make(map[string]struct{}, len(names))
	for _, name := range names {
		wanted[name] = struct{}{}
	}
	var out []*Definition
	for _, def := range r.All() {
		if _, ok := wanted[def.Name]; ok {
			out = append(out, def)
		}
	}
	return out
}

// AllSettings aggregates the settings of every registered task. Settings
// shared by several tasks appear once, with each dependent task name
// accumulated on the setting's UI metadata.
func (r *Registry) AllSettings() []tool.Setting {
	index := make(map[string]int)
	var out []tool.Setting
	for _, def := range r.All() {
		for _, setting := range def.Settings() {
			if i, ok := index[setting.ID]; ok {
				out[i].UI.Dependent = append(out[i].UI.Dependent, def.Name)
				continue
			}
			// Copy before mutating: definitions share setting values.
			entry := setting
			entry.UI.Dependent = []string{def.Name}
			index[setting.ID] = len(out)
			out = append(out, entry)
		}
	}
	return out
}

// DefaultRegistry builds the standard catalog: the five extraction tasks
// wired to vocabulary clients built from the configuration.
func DefaultRegistry(cfg *config.AppConfig, hc *pkghttp.Client, rl ratelimiter.RateLimiter) *Registry {
	rx := vocab.NewRxNormClient(cfg.Vocab.RxNorm.BaseURL, hc, rl)

	r := NewRegistry()
	for _, def := range []*Definition{
		MedicationTask(rx),
		HistoryTask(cfg.Vocab.ICD, hc),
		ProcedureTask(hc, rl),
		BooleanTask(rx),
		DiagnoseTask(),
	} {
		def.MaxSteps = cfg.LLM.MaxSteps
		r.Register(def)
	}
	return r
}
