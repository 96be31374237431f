package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/luxfi/thresholddecrypt/protocols/vss/config"
)

// Records ending in .cbor use the CBOR encoding, everything else JSON.
func isCBOR(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".cbor")
}

func readRecord(path string) (*config.Record, error) {
	if path == "" {
		return nil, fmt.Errorf("no input record given")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r := new(config.Record)
	if isCBOR(path) {
		err = r.UnmarshalCBOR(data)
	} else {
		err = r.UnmarshalJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return r, nil
}

// writeRecord writes r to path, or as JSON to out when path is empty or "-".
func writeRecord(out io.Writer, path string, r *config.Record) error {
	var (
		data []byte
		err  error
	)
	if isCBOR(path) {
		data, err = r.MarshalCBOR()
	} else {
		data, err = r.MarshalJSON()
	}
	if err != nil {
		return err
	}
	if path == "" || path == "-" {
		_, err = fmt.Fprintf(out, "%s\n", data)
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
