package stage

// Health is a stage's readiness as shown by "storybuilder check".
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs a Health record that blocks the stage, with the reason.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Detail: detail}
}

// Summary is the one-line status shown next to the stage name.
func (h Health) Summary() string {
	switch {
	case h.Ready && h.Detail != "":
		return "Ready (" + h.Detail + ")"
	case h.Ready:
		return "Ready"
	case h.Detail != "":
		return h.Detail
	default:
		return "not ready"
	}
}
