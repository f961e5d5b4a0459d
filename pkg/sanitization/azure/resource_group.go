package azure

import (
	"fmt"

	"github.com/klothoplatform/fabric/pkg/sanitization"
)

// ResourceGroupName is the name of the group that scopes every resource of a (project, env) stack.
// Direct deletion relies on deriving the same name without any stack state.
func ResourceGroupName(project, env string) string {
	return sanitization.Sanitize(fmt.Sprintf("rg-%s-%s", project, env))
}
