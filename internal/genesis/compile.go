package genesis

import (
	"context"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/phoenix-ledger/tasm/internal/ledger"
	"github.com/phoenix-ledger/tasm/internal/model"
)

// Genesis is the compiled launch state of a ledger.
type Genesis struct {
	StartSlot model.Slot
	Accounts  map[model.AccountRef]uint64
	Intents   []model.Intent
}

// CompileError reports a malformed genesis value with its CUE position
// when available.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: genesis.%s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("genesis.%s: %s", e.Field, e.Message)
}

// Compile parses a CUE value into a Genesis.
// The value should be the genesis struct itself (the value at path
// "genesis" in a loaded file).
func Compile(v cue.Value) (*Genesis, error) {
	if err := v.Err(); err != nil {
		return nil, &CompileError{Field: "", Message: err.Error(), Pos: v.Pos()}
	}

	g := &Genesis{Accounts: make(map[model.AccountRef]uint64)}

	startVal := v.LookupPath(cue.ParsePath("start_slot"))
	if startVal.Exists() {
		start, err := startVal.Uint64()
		if err != nil {
			return nil, &CompileError{Field: "start_slot", Message: err.Error(), Pos: startVal.Pos()}
		}
		g.StartSlot = start
	}

	accountsVal := v.LookupPath(cue.ParsePath("accounts"))
	if accountsVal.Exists() {
		iter, err := accountsVal.Fields()
		if err != nil {
			return nil, &CompileError{Field: "accounts", Message: err.Error(), Pos: accountsVal.Pos()}
		}
		for iter.Next() {
			account := iter.Label()
			balance, err := iter.Value().Uint64()
			if err != nil {
				return nil, &CompileError{
					Field:   "accounts." + account,
					Message: "balance must be an unsigned integer: " + err.Error(),
					Pos:     iter.Value().Pos(),
				}
			}
			g.Accounts[model.AccountRef(account)] = balance
		}
	}

	intentsVal := v.LookupPath(cue.ParsePath("intents"))
	if intentsVal.Exists() {
		iter, err := intentsVal.List()
		if err != nil {
			return nil, &CompileError{Field: "intents", Message: "intents must be a list: " + err.Error(), Pos: intentsVal.Pos()}
		}
		for i := 0; iter.Next(); i++ {
			intent, err := compileIntent(iter.Value(), i)
			if err != nil {
				return nil, err
			}
			g.Intents = append(g.Intents, intent)
		}
	}

	return g, nil
}

// compileIntent parses one intent declaration. The ID is derived from
// content here, exactly as on a live registration.
func compileIntent(v cue.Value, index int) (model.Intent, error) {
	field := func(name string) string { return fmt.Sprintf("intents[%d].%s", index, name) }

	creatorVal := v.LookupPath(cue.ParsePath("creator"))
	if !creatorVal.Exists() {
		return model.Intent{}, &CompileError{Field: field("creator"), Message: "creator is required", Pos: v.Pos()}
	}
	creator, err := creatorVal.String()
	if err != nil {
		return model.Intent{}, &CompileError{Field: field("creator"), Message: err.Error(), Pos: creatorVal.Pos()}
	}

	descVal := v.LookupPath(cue.ParsePath("description"))
	if !descVal.Exists() {
		return model.Intent{}, &CompileError{Field: field("description"), Message: "description is required", Pos: v.Pos()}
	}
	description, err := descVal.String()
	if err != nil {
		return model.Intent{}, &CompileError{Field: field("description"), Message: err.Error(), Pos: descVal.Pos()}
	}

	deadlineVal := v.LookupPath(cue.ParsePath("deadline"))
	if !deadlineVal.Exists() {
		return model.Intent{}, &CompileError{Field: field("deadline"), Message: "deadline is required", Pos: v.Pos()}
	}
	deadline, err := deadlineVal.Uint64()
	if err != nil {
		return model.Intent{}, &CompileError{Field: field("deadline"), Message: err.Error(), Pos: deadlineVal.Pos()}
	}

	collateralVal := v.LookupPath(cue.ParsePath("collateral"))
	if !collateralVal.Exists() {
		return model.Intent{}, &CompileError{Field: field("collateral"), Message: "collateral is required", Pos: v.Pos()}
	}
	collateral, err := collateralVal.Uint64()
	if err != nil {
		return model.Intent{}, &CompileError{Field: field("collateral"), Message: err.Error(), Pos: collateralVal.Pos()}
	}

	return model.NewIntent(model.AccountRef(creator), description, deadline, collateral), nil
}

// Apply seeds a registry with the genesis state: balances first, then
// intent registrations.
func (g *Genesis) Apply(ctx context.Context, registry ledger.Registry) error {
	for account, balance := range g.Accounts {
		if err := registry.SetBalance(ctx, account, balance); err != nil {
			return fmt.Errorf("seed balance for %s: %w", account, err)
		}
	}
	for _, intent := range g.Intents {
		if err := registry.AddIntent(ctx, intent); err != nil {
			return fmt.Errorf("register genesis intent %s: %w", intent.ID, err)
		}
	}
	return nil
}
