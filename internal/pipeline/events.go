package pipeline

// ProgressEvent is emitted on every phase state transition so a UI can
// render without polling.
type ProgressEvent struct {
	Phase       int
	PhaseName   string
	PhaseIndex  int // 0-based position in execution order.
	TotalPhases int // Excluding skipped phases.
	Percent     float64
	Message     string
}

// Events holds the orchestrator's notification callbacks. All callbacks
// are optional and fire synchronously from the orchestrator's goroutine;
// they must not call back into the orchestrator.
type Events struct {
	PhaseStart         func(ProgressEvent)
	PhaseComplete      func(ProgressEvent)
	ValidationComplete func(ValidationResult)
	BuildComplete      func(Progress)
	Error              func(phase int, err error)
}

func (e Events) phaseStart(evt ProgressEvent) {
	if e.PhaseStart != nil {
		e.PhaseStart(evt)
	}
}

func (e Events) phaseComplete(evt ProgressEvent) {
	if e.PhaseComplete != nil {
		e.PhaseComplete(evt)
	}
}

func (e Events) validationComplete(v ValidationResult) {
	if e.ValidationComplete != nil {
		e.ValidationComplete(v)
	}
}

func (e Events) buildComplete(p Progress) {
	if e.BuildComplete != nil {
		e.BuildComplete(p)
	}
}

func (e Events) reportError(phase int, err error) {
	if e.Error != nil {
		e.Error(phase, err)
	}
}
