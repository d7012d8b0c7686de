package capture

import "fmt"

// State is the readiness of the capture pipeline.
type State int

const (
	StateUnknown State = iota
	StateReady
	StateError
	StateDenied
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateReady:
		return "ready"
	case StateError:
		return "error"
	case StateDenied:
		return "denied"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether the state needs a new component to recover.
func (s State) Terminal() bool {
	return s == StateError || s == StateDenied
}

// Action is work requested before the pipeline could perform it.
type Action int

const (
	ActionNone Action = iota
	ActionLivePreview
)

// InputKind enumerates what can drive the machine.
type InputKind int

const (
	PermissionGranted InputKind = iota
	PermissionDenied
	DeviceConfigured
	ConfigureFailed
	RuntimeFailed
	PreviewFailed
	StartRequested
	StopRequested
)

var inputNames = map[InputKind]string{
	PermissionGranted: "permission_granted",
	PermissionDenied:  "permission_denied",
	DeviceConfigured:  "device_configured",
	ConfigureFailed:   "configure_failed",
	RuntimeFailed:     "runtime_failed",
	PreviewFailed:     "preview_failed",
	StartRequested:    "start_requested",
	StopRequested:     "stop_requested",
}

func (k InputKind) String() string {
	if s, ok := inputNames[k]; ok {
		return s
	}
	return fmt.Sprintf("InputKind(%d)", int(k))
}

// Input is one externally driven transition. Err is set for failures.
type Input struct {
	Kind InputKind
	Err  error
}

// EffectKind enumerates the side effects a transition asks for.
type EffectKind int

const (
	NotifyReady EffectKind = iota
	NotifyError
	StartPreview
	StopPreview
)

func (k EffectKind) String() string {
	switch k {
	case NotifyReady:
		return "notify_ready"
	case NotifyError:
		return "notify_error"
	case StartPreview:
		return "start_preview"
	case StopPreview:
		return "stop_preview"
	default:
		return fmt.Sprintf("EffectKind(%d)", int(k))
	}
}

// Effect is a side effect to perform after a transition.
type Effect struct {
	Kind EffectKind
	Err  error // For NotifyError
}

// Machine is the capture pipeline state machine. It is a value; Next
// returns the successor and never mutates the receiver.
type Machine struct {
	State      State
	Pending    Action
	Previewing bool

	permitted  bool
	configured bool
}

// Next applies in and returns the new machine with the effects to run,
// in order.
func (m Machine) Next(in Input) (Machine, []Effect) {
	var effects []Effect

	switch in.Kind {
	case PermissionDenied:
		effects = m.halt(effects)
		m.State = StateDenied
		effects = append(effects, Effect{Kind: NotifyError, Err: ErrPermissionDenied})

	case ConfigureFailed, RuntimeFailed, PreviewFailed:
		err := in.Err
		if err == nil {
			err = ErrUndefined
		}
		effects = m.halt(effects)
		if IsDenied(err) {
			m.State = StateDenied
		} else if m.State != StateDenied {
			m.State = StateError
		}
		effects = append(effects, Effect{Kind: NotifyError, Err: err})

	case PermissionGranted:
		if m.State.Terminal() {
			break
		}
		m.permitted = true
		effects = m.promote(effects)

	case DeviceConfigured:
		if m.State.Terminal() {
			break
		}
		m.configured = true
		effects = m.promote(effects)

	case StartRequested:
		switch m.State {
		case StateUnknown:
			m.Pending = ActionLivePreview
		case StateReady:
			if !m.Previewing {
				m.Previewing = true
				effects = append(effects, Effect{Kind: StartPreview})
			}
		}

	case StopRequested:
		m.Pending = ActionNone
		if m.Previewing {
			m.Previewing = false
			effects = append(effects, Effect{Kind: StopPreview})
		}
	}

	return m, effects
}

// promote moves to ready once both prerequisites hold, resuming any
// pending live preview.
func (m *Machine) promote(effects []Effect) []Effect {
	if m.State != StateUnknown || !m.permitted || !m.configured {
		return effects
	}
	m.State = StateReady
	effects = append(effects, Effect{Kind: NotifyReady})
	if m.Pending == ActionLivePreview {
		m.Pending = ActionNone
		m.Previewing = true
		effects = append(effects, Effect{Kind: StartPreview})
	}
	return effects
}

// halt drops pending work and stops a running preview.
func (m *Machine) halt(effects []Effect) []Effect {
	m.Pending = ActionNone
	if m.Previewing {
		m.Previewing = false
		effects = append(effects, Effect{Kind: StopPreview})
	}
	return effects
}
