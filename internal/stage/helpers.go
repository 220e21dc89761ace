package stage

import (
	"strings"

	"reelcast/internal/project"
	"reelcast/internal/services"
)

// CheckPrerequisites returns an ErrPrerequisite error naming the fields step
// needs that p lacks.
func CheckPrerequisites(p *project.Project, step project.Step) error {
	missing := p.Missing(step)
	if len(missing) == 0 {
		return nil
	}
	return services.Wrap(
		services.ErrPrerequisite, string(step), "check prerequisites",
		"project "+p.ID+" is missing "+strings.Join(missing, ", "), nil)
}
