package systems

// Periodic task IDs. The scheduler, logs and perf output share these names.
const (
	TaskGrowth   = "growth"
	TaskBehavior = "behavior"
	TaskReport   = "report"
)

// SystemInfo describes a periodic task for logs and perf output.
type SystemInfo struct {
	ID          string // Internal identifier (used for perf tracking)
	Name        string // Display name
	Description string // What this task does
}

// SystemRegistry holds metadata about all periodic tasks.
// This centralizes task naming so the scheduler and perf tracker stay in sync.
type SystemRegistry struct {
	systems []SystemInfo
	byID    map[string]SystemInfo
}

// NewSystemRegistry creates a registry with all known tasks.
func NewSystemRegistry() *SystemRegistry {
	reg := &SystemRegistry{
		byID: make(map[string]SystemInfo),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds all known tasks to the registry.
func (r *SystemRegistry) registerDefaults() {
	r.Register(SystemInfo{ID: TaskGrowth, Name: "Growth", Description: "Adds plants to every cell"})
	r.Register(SystemInfo{ID: TaskBehavior, Name: "Behavior", Description: "Runs eat, move and reproduce for every animal"})
	r.Register(SystemInfo{ID: TaskReport, Name: "Report", Description: "Counts animals and plants"})
}

// Register adds a task to the registry.
func (r *SystemRegistry) Register(info SystemInfo) {
	if _, ok := r.byID[info.ID]; !ok {
		r.systems = append(r.systems, info)
	}
	r.byID[info.ID] = info
}

// Get returns task info by ID.
func (r *SystemRegistry) Get(id string) (SystemInfo, bool) {
	info, ok := r.byID[id]
	return info, ok
}

// GetName returns the display name for a task ID.
// Falls back to the ID itself if not found.
func (r *SystemRegistry) GetName(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}

// IDs returns all task IDs in registration order.
func (r *SystemRegistry) IDs() []string {
	ids := make([]string, len(r.systems))
	for i, info := range r.systems {
		ids[i] = info.ID
	}
	return ids
}
