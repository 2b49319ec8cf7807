package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/ibeckermayer/xscrape/internal/types"
)

// LoadCredential reads a file holding exactly two whitespace separated
// tokens: the login identifier and the password.
func LoadCredential(path string) (types.Credential, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Credential{}, fmt.Errorf("failed to read credentials: %w", err)
	}

	fields := strings.Fields(string(data))
	if len(fields) != 2 {
		return types.Credential{}, fmt.Errorf("credentials file %s: want 2 tokens \"identifier password\", got %d", path, len(fields))
	}

	return types.Credential{Identifier: fields[0], Password: fields[1]}, nil
}
