package jobs

// Observer is the presentation side of the registry.
//
// OnRegistryChanged is called after every mutation, ShowJobsPanel when a job
// is added while the "open jobs panel on add" preference is set. Both run on
// the goroutine that mutated the registry, outside its lock.
type Observer interface {
	OnRegistryChanged()
	ShowJobsPanel()
}

// ObserverFuncs adapts plain functions to Observer
type ObserverFuncs struct {
	Changed   func()
	ShowPanel func()
}

// OnRegistryChanged calls Changed if set
func (o ObserverFuncs) OnRegistryChanged() {
	if o.Changed != nil {
		o.Changed()
	}
}

// ShowJobsPanel calls ShowPanel if set
func (o ObserverFuncs) ShowJobsPanel() {
	if o.ShowPanel != nil {
		o.ShowPanel()
	}
}

// Preferences are the persisted user flags the registry consults
type Preferences interface {
	RenderSequentially() bool
	OpenPanelOnAdd() bool
}

// StaticPreferences is a fixed Preferences value
type StaticPreferences struct {
	Sequential bool
	OpenOnAdd  bool
}

// RenderSequentially implements Preferences
func (p StaticPreferences) RenderSequentially() bool { return p.Sequential }

// OpenPanelOnAdd implements Preferences
func (p StaticPreferences) OpenPanelOnAdd() bool { return p.OpenOnAdd }
