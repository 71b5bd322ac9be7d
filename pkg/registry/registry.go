package registry

import (
	"sort"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/getmockd/pesh/pkg/command"
)

// DefaultHelp is the help text attached to every registered family.
const DefaultHelp = "help"

var (
	// ErrNotFound is returned by Get for a name that has no family and by
	// Remove for a series that does not exist under a known family.
	ErrNotFound = errors.New("metric not found")

	// ErrRegister marks errors from registering a new family with the surface.
	ErrRegister = errors.New("failed to register metric")

	// ErrUnregister marks errors from unregistering an emptied family. The
	// family is already gone from the Registry when this is returned.
	ErrUnregister = errors.New("failed to unregister metric")
)

// Surface is the exposition side of the registry: families are registered on
// it and snapshots are gathered from it. *prometheus.Registry satisfies it.
type Surface interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// FamilyInfo describes one registered family.
type FamilyInfo struct {
	Name       string
	LabelNames []string
	Series     int
}

type family struct {
	gauge      *prometheus.GaugeVec
	labelNames []string
	// series tracks the label-value tuples that currently exist in gauge,
	// keyed by labelsKey. GaugeVec creates children on lookup, so reads go
	// through this set first.
	series map[string]struct{}
}

// Registry is a concurrency-safe map from metric name to gauge family.
type Registry struct {
	mu       sync.Mutex
	surface  Surface
	families map[string]*family
}

// New creates a Registry that registers its families on surface.
func New(surface Surface) *Registry {
	return &Registry{
		surface:  surface,
		families: make(map[string]*family),
	}
}

// NewWithRegistry creates a Registry backed by a fresh prometheus.Registry.
func NewWithRegistry() *Registry {
	return New(prometheus.NewRegistry())
}

// Add sets the series identified by m to value, creating and registering the
// family if the name is new.
func (r *Registry) Add(m command.Metric, value float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if f, ok := r.families[m.Name]; ok {
		values := f.resolve(m.Tags)
		child, err := f.gauge.GetMetricWithLabelValues(values...)
		if err != nil {
			return errors.Wrapf(err, "set %s", m)
		}
		child.Set(value)
		f.series[labelsKey(values)] = struct{}{}
		return nil
	}

	labelNames := m.Keys()
	gauge := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: m.Name,
		Help: DefaultHelp,
	}, labelNames)
	f := &family{
		gauge:      gauge,
		labelNames: labelNames,
		series:     make(map[string]struct{}),
	}

	// The child is created before registration so a rejected label value
	// leaves nothing behind on the surface.
	values := f.resolve(m.Tags)
	child, err := gauge.GetMetricWithLabelValues(values...)
	if err != nil {
		return errors.Wrapf(err, "set %s", m)
	}
	if err := r.surface.Register(gauge); err != nil {
		return errors.Mark(errors.Wrapf(err, "failed to register metric %q", m.Name), ErrRegister)
	}

	child.Set(value)
	f.series[labelsKey(values)] = struct{}{}
	r.families[m.Name] = f
	return nil
}

// Get returns the value of the series identified by m. A series that does not
// exist under a known family reads as 0.
func (r *Registry) Get(m command.Metric) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.families[m.Name]
	if !ok {
		return 0, errors.Wrapf(ErrNotFound, "get %s", m.Name)
	}

	values := f.resolve(m.Tags)
	if _, ok := f.series[labelsKey(values)]; !ok {
		return 0, nil
	}

	gauge, err := f.gauge.GetMetricWithLabelValues(values...)
	if err != nil {
		return 0, errors.Wrapf(err, "get %s", m.Name)
	}
	var out dto.Metric
	if err := gauge.Write(&out); err != nil {
		return 0, errors.Wrapf(err, "read %s", m.Name)
	}
	return out.GetGauge().GetValue(), nil
}

// Remove deletes the series identified by m. When that leaves the family
// without series, the family is dropped and unregistered from the surface.
// Removing from an unknown name is a no-op; removing a series the family does
// not hold returns ErrNotFound and changes nothing.
func (r *Registry) Remove(m command.Metric) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.families[m.Name]
	if !ok {
		return nil
	}

	values := f.resolve(m.Tags)
	key := labelsKey(values)
	if _, ok := f.series[key]; !ok {
		return errors.Wrapf(ErrNotFound, "del %s", m)
	}
	f.gauge.DeleteLabelValues(values...)
	delete(f.series, key)
	if len(f.series) > 0 {
		return nil
	}

	delete(r.families, m.Name)
	if !r.surface.Unregister(f.gauge) {
		return errors.Mark(errors.Newf("failed to unregister metric %q", m.Name), ErrUnregister)
	}
	return nil
}

// Gather implements prometheus.Gatherer. The snapshot is taken under the
// registry lock.
func (r *Registry) Gather() ([]*dto.MetricFamily, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.surface.Gather()
}

// Len returns the number of registered families.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.families)
}

// Names returns the registered family names in ascending order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.families))
	for name := range r.families {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Families describes every registered family, ordered by name.
func (r *Registry) Families() []FamilyInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]FamilyInfo, 0, len(r.families))
	for name, f := range r.families {
		infos = append(infos, FamilyInfo{
			Name:       name,
			LabelNames: append([]string(nil), f.labelNames...),
			Series:     len(f.series),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}

// resolve maps tags onto the family's label names. Missing keys become "".
func (f *family) resolve(tags map[string]string) []string {
	values := make([]string, len(f.labelNames))
	for i, name := range f.labelNames {
		values[i] = tags[name]
	}
	return values
}

// labelsKey generates a unique key for a set of label values.
func labelsKey(values []string) string {
	return strings.Join(values, "\x00")
}
