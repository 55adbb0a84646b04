package genesis

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// LoadFile reads and compiles a CUE genesis file.
// The file must contain a top-level "genesis" struct.
func LoadFile(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read genesis file: %w", err)
	}

	cctx := cuecontext.New()
	value := cctx.CompileBytes(data, cue.Filename(path))
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("compile genesis file %s: %w", path, err)
	}

	genesisVal := value.LookupPath(cue.ParsePath("genesis"))
	if !genesisVal.Exists() {
		return nil, &CompileError{Field: "", Message: fmt.Sprintf("no genesis struct found in %s", path)}
	}

	return Compile(genesisVal)
}
