package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"rgehrsitz/semrex/internal/compiler"
	"rgehrsitz/semrex/internal/engine"
	"rgehrsitz/semrex/internal/preprocessor"
	"rgehrsitz/semrex/internal/rules"
)

// ModelExt is the extension of encoded pre-compiled models.
const ModelExt = ".rex"

// loadEngine builds an engine from a rule file or an encoded model.
func loadEngine(path string, handler rules.ActionFunc, strategy rules.ConflictStrategy) (*engine.Engine, error) {
	eng := engine.New()
	m := engine.Model{EventHandler: handler, ConflictStrategy: strategy}

	if strings.EqualFold(filepath.Ext(path), ModelExt) {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open model: %w", err)
		}
		defer f.Close()
		snap, err := compiler.DecodeModel(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		m.Precompiled = snap
	} else {
		decls, err := preprocessor.LoadFile(path)
		if err != nil {
			return nil, err
		}
		m.Rules = decls
	}

	if err := eng.AddDataModel(m); err != nil {
		return nil, err
	}
	return eng, nil
}
