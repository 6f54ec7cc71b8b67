// services/consts/consts.go

// Package consts holds the bus topic tokens and control verbs shared by
// the services that speak the irq topic space.
package consts

// Top-level topics
const (
	TokConfig     = "config"
	TokIRQ        = "irq"
	TokController = "controller"
	TokDevice     = "device"
	TokInfo       = "info"
	TokState      = "state"
	TokEvent      = "event"
	TokControl    = "control"
	TokStats      = "stats"
)

// Control verbs
const (
	CtrlEnable        = "enable"
	CtrlDisable       = "disable"
	CtrlSetPriority   = "set_priority"
	CtrlSetThreshold  = "set_threshold"
	CtrlVectorEnable  = "vector_enable"
	CtrlVectorDisable = "vector_disable"
	CtrlGetPriority   = "get_priority"
	CtrlGetThreshold  = "get_threshold"
	CtrlMtimecmpSet   = "mtimecmp_set"
	CtrlCommand       = "command"
	CtrlFire          = "fire"
)

const (
	LinkUp       = "up"
	LinkDown     = "down"
	LinkDegraded = "degraded"
)
