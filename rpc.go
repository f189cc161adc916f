package stamps

import (
	"fmt"

	"github.com/Constitosh/stamps/stpbase"
	"github.com/KarpelesLab/apirouter"
)

// Methods exposed to the embedding application to set up an environment

// MakeRPC generates and returns a socket
func MakeRPC(dataDir string) (int, error) {
	e, err := stpbase.InitEnv(dataDir)
	if err != nil {
		return -1, fmt.Errorf("failed to init env: %w", err)
	}

	return apirouter.MakeJsonSocketFD(map[string]any{"@env": e})
}

// MakeSocket creates a socket
func MakeSocket(dataDir, socketName string) error {
	e, err := stpbase.InitEnv(dataDir)
	if err != nil {
		return fmt.Errorf("failed to init env: %w", err)
	}

	return apirouter.MakeJsonUnixListener(socketName, map[string]any{"@env": e})
}
