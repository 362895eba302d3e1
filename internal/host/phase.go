package host

// Phase 是宿主生命周期阶段，只会单调前进。
type Phase int

const (
	PhaseInit Phase = iota
	PhaseDiscover
	PhaseBuilderSetup
	PhaseFinalize
	PhaseRuntimeSetup
	PhaseServing
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseDiscover:
		return "discover"
	case PhaseBuilderSetup:
		return "builder_setup"
	case PhaseFinalize:
		return "finalize"
	case PhaseRuntimeSetup:
		return "runtime_setup"
	case PhaseServing:
		return "serving"
	case PhaseStopped:
		return "stopped"
	default:
		return "unknown"
	}
}
