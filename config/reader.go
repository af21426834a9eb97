package config

import (
	"bytes"
	"io"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// Read reads a board config from the given file, expanding environment variables first. The file
// is JSON5, so comments and trailing commas are allowed.
func Read(filePath string) (*Board, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return FromReader(filePath, bytes.NewReader(buf))
}

// FromReader reads a board config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(originalPath string, r io.Reader) (*Board, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	cfg := Board{ConfigFilePath: originalPath}
	if err := json5.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode board config from json5")
	}
	if err := cfg.Validate("board"); err != nil {
		return nil, errors.Wrap(err, "failed to validate board config")
	}
	return &cfg, nil
}
