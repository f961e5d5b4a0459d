package azure

import (
	"regexp"

	"github.com/klothoplatform/fabric/pkg/sanitization"
)

// KeyVaultSanitizer returns a sanitized key vault name when applied.
var KeyVaultSanitizer = sanitization.NewSanitizer(
	[]sanitization.Rule{
		{
			Pattern:     regexp.MustCompile(`[^a-zA-Z0-9-]`),
			Replacement: "-",
		},
		// Name must start with a letter
		{
			Pattern:     regexp.MustCompile(`^[^a-zA-Z]+`),
			Replacement: "",
		},
		// Name must not contain consecutive hyphens
		{
			Pattern:     regexp.MustCompile(`--+`),
			Replacement: "-",
		},
	},
	24,
	// Name must not end with a hyphen
	sanitization.Rule{
		Pattern:     regexp.MustCompile(`-+$`),
		Replacement: "",
	},
)

// KeyVaultName returns a vault name of 3 to 24 characters.
func KeyVaultName(desired string) string {
	name := KeyVaultSanitizer.Apply(desired)
	if len(name) < 3 {
		name = sanitization.Truncate(name+"kvx", 3)
	}
	return name
}
