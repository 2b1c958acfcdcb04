package cli

import (
	"fmt"

	"spuff/internal/cliutil"
	"spuff/internal/pipeline"
)

var stepLabels = map[pipeline.Step]string{
	pipeline.StepCloudInit:       "Preparing cloud-init",
	pipeline.StepCreate:          "Creating instance",
	pipeline.StepWaitReady:       "Waiting for instance",
	pipeline.StepWaitSSH:         "Waiting for SSH",
	pipeline.StepBootstrap:       "Bootstrapping",
	pipeline.StepMountVolumes:    "Mounting volumes",
	pipeline.StepTriggerDevtools: "Installing AI tools",

	pipeline.StepGracefulShutdown: "Shutting down",
	pipeline.StepUnmountVolumes:   "Unmounting volumes",
	pipeline.StepSnapshot:         "Snapshotting",
	pipeline.StepDestroy:          "Destroying instance",
}

func stepIcon(state pipeline.StepState) string {
	switch state {
	case pipeline.StepDone:
		return cliutil.StyleSuccess("[x]")
	case pipeline.StepInProgress:
		return cliutil.StyleWarn("[>]")
	case pipeline.StepFailed:
		return cliutil.StyleError("[!]")
	default:
		return cliutil.StyleDim("[ ]")
	}
}

// renderProgress drains a pipeline event channel to stdout, returning the
// terminal InstanceName/InstanceIP (on EventComplete) and an error when the
// run failed or was cancelled.
func renderProgress(events <-chan pipeline.Event) (name, ip string, err error) {
	for ev := range events {
		switch ev.Kind {
		case pipeline.EventSetStep:
			label := stepLabels[ev.Step]
			if label == "" {
				label = fmt.Sprintf("step %d", ev.Step)
			}
			fmt.Printf("%s %s\n", stepIcon(ev.State), label)
		case pipeline.EventSetSubStep, pipeline.EventSetSubSteps:
			// Sub-step detail is folded into EventSetDetail lines below;
			// nothing extra to render here.
		case pipeline.EventSetDetail:
			fmt.Println("    " + cliutil.StyleDim(ev.Detail))
		case pipeline.EventComplete:
			name, ip = ev.InstanceName, ev.InstanceIP
		case pipeline.EventFailed:
			err = ev.Err
		case pipeline.EventCancelled:
			err = fmt.Errorf("%s", ev.Detail)
		}
	}
	return name, ip, err
}
