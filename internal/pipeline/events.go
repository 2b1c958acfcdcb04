// Package pipeline runs the multi-step provisioning and teardown flows
// that back `spuff up`/`spuff down`, reporting their progress over a
// channel of Events so internal/cli can render it however it likes.
// Grounded on original_source/src/cli/commands/up.rs, up/agent_upload.rs,
// and down.rs.
package pipeline

// StepState is where one step (or sub-step) of a pipeline currently
// stands, mirroring the StepState enum referenced from up.rs's tui module.
type StepState int

const (
	StepPending StepState = iota
	StepInProgress
	StepDone
	StepFailed
)

// Step indexes the top-level stages of Provision, in the order up.rs
// defines STEP_CLOUD_INIT..STEP_BOOTSTRAP (plus this port's
// StepUnmountVolumes/StepGracefulShutdown/StepSnapshot/StepDestroy
// stages, folded in from down.rs for Teardown).
type Step int

const (
	StepCloudInit Step = iota
	StepCreate
	StepWaitReady
	StepWaitSSH
	StepBootstrap
	StepMountVolumes
	StepTriggerDevtools
)

const (
	StepGracefulShutdown Step = iota + 100
	StepUnmountVolumes
	StepSnapshot
	StepDestroy
)

// Bootstrap sub-step indices, matching up.rs's SUB_PACKAGES/SUB_AGENT.
const (
	SubPackages = 0
	SubAgent    = 1
)

// EventKind discriminates an Event's payload, standing in for the
// ProgressMessage enum's variants in up.rs's tui module.
type EventKind int

const (
	EventSetStep EventKind = iota
	EventSetDetail
	EventSetSubSteps
	EventSetSubStep
	EventComplete
	EventFailed
	EventCancelled
	EventClose
)

// Event is one progress update emitted onto a pipeline's channel.
type Event struct {
	Kind     EventKind
	Step     Step
	Sub      int
	SubNames []string
	State    StepState
	Detail   string
	Err      error

	InstanceName string
	InstanceIP   string
}

func setStep(step Step, state StepState) Event {
	return Event{Kind: EventSetStep, Step: step, State: state}
}

func setDetail(detail string) Event {
	return Event{Kind: EventSetDetail, Detail: detail}
}

func setSubSteps(step Step, names []string) Event {
	return Event{Kind: EventSetSubSteps, Step: step, SubNames: names}
}

func setSubStep(step Step, sub int, state StepState) Event {
	return Event{Kind: EventSetSubStep, Step: step, Sub: sub, State: state}
}

func failed(err error) Event {
	return Event{Kind: EventFailed, Err: err}
}

func complete(name, ip string) Event {
	return Event{Kind: EventComplete, InstanceName: name, InstanceIP: ip}
}

func cancelled(reason string) Event {
	return Event{Kind: EventCancelled, Detail: reason}
}

func emit(ch chan<- Event, ev Event) {
	ch <- ev
}
