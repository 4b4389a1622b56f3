package bulk

import "context"

// Confirmer asks the operator to approve an action.  false, or an error,
// cancels it.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) { return f(ctx, prompt) }

// AlwaysConfirm approves everything; the console's --yes flag uses it.
var AlwaysConfirm = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })
