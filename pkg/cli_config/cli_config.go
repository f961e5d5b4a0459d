package cli_config

import (
	"os/user"
	"path/filepath"
)

// FabricConfigPath returns a path to a file in ~/.fabric/<filename>
func FabricConfigPath(file string) (string, error) {
	osUser, err := user.Current()
	if err != nil {
		return "", err
	}
	return filepath.Join(osUser.HomeDir, ".fabric", file), nil
}
