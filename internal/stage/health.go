package stage

import "reelcast/internal/services"

// Health is one stage's readiness as reported by /api/health and the CLI.
// ErrorKind is services.Kind of the failing check, e.g. "configuration" for a
// missing provider key.
type Health struct {
	Name      string `json:"name"`
	Ready     bool   `json:"ready"`
	Detail    string `json:"detail,omitempty"`
	ErrorKind string `json:"errorKind,omitempty"`
}

func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

func Unhealthy(name, detail string) Health {
	return Health{Name: name, Detail: detail}
}

// HealthFromError reports name as ready when err is nil.
func HealthFromError(name string, err error) Health {
	if err == nil {
		return Healthy(name)
	}
	h := Unhealthy(name, err.Error())
	h.ErrorKind = services.Kind(err)
	return h
}
