package azure

import (
	"regexp"
	"strings"

	"github.com/klothoplatform/fabric/pkg/sanitization"
)

const (
	storageAccountMinLength = 3
	storageAccountMaxLength = 24
	storagePadding          = "stx"
	storageLetterPrefix     = "st"
)

// storageCharSanitizer keeps only the characters a storage account name may contain. Input is lower-cased first.
var storageCharSanitizer = sanitization.NewSanitizer(
	[]sanitization.Rule{
		{
			Pattern:     regexp.MustCompile(`[^a-z0-9]+`),
			Replacement: "",
		},
	}, 0)

var startsWithLetter = regexp.MustCompile(`^[a-z]`)

// StorageAccountName derives a globally visible storage account name: lower-case alphanumerics,
// 3 to 24 characters, starting with a letter. Short names are padded, and a leading digit gets an
// "st" prefix. Applying it to its own output returns the same name.
func StorageAccountName(desired string) string {
	if desired == "" {
		desired = "storage"
	}
	name := storageCharSanitizer.Apply(strings.ToLower(desired))
	if len(name) < storageAccountMinLength {
		name = sanitization.Truncate(name+storagePadding, storageAccountMinLength)
	}
	name = sanitization.Truncate(name, storageAccountMaxLength)
	if !startsWithLetter.MatchString(name) {
		name = sanitization.Truncate(storageLetterPrefix+name, storageAccountMaxLength)
	}
	return name
}

// FunctionStorageAccountName derives the name of the account backing a function app from the
// app's logical name.
func FunctionStorageAccountName(logical string) string {
	base := sanitization.Truncate(strings.ReplaceAll(logical, "-", ""), 20)
	return StorageAccountName(base + "func")
}
