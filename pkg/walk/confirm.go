package walk

import "context"

// Confirmer asks the user a yes/no question. Implementations return
// core.ErrCancelled when input ends or is interrupted.
type Confirmer interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, question string) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, question string) (bool, error) {
	return f(ctx, question)
}

// AlwaysConfirm answers every question with answer, for non-interactive runs.
func AlwaysConfirm(answer bool) Confirmer {
	return ConfirmFunc(func(context.Context, string) (bool, error) { return answer, nil })
}
