package tracing

import "github.com/sarchlab/ringnet/sim"

// A Tracer can collect task traces.
type Tracer interface {
	StartTask(task Task)
	StepTask(task Task)
	EndTask(task Task)
}

// CollectTrace attaches a hook to the domain that forwards the domain's
// tasks to the tracer.
func CollectTrace(domain NamedHookable, tracer Tracer) {
	hook := &traceHook{tracer: tracer}
	domain.AcceptHook(hook)
}

type traceHook struct {
	tracer Tracer
}

// Func forwards task hook invocations to the tracer.
func (h *traceHook) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case HookPosTaskStart:
		h.tracer.StartTask(ctx.Item.(Task))
	case HookPosTaskStep:
		h.tracer.StepTask(ctx.Item.(Task))
	case HookPosTaskEnd:
		h.tracer.EndTask(ctx.Item.(Task))
	}
}
