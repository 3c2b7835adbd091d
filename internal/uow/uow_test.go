package uow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	postgresrepo "github.com/kirinyoku/cineseat/internal/repository/postgres"
)

// fakeRunner runs fn without a database and fails the commit on demand.
type fakeRunner struct {
	commitErr error
	gotOpts   *pgx.TxOptions
	calls     int
}

func (r *fakeRunner) RunTx(ctx context.Context, opts *pgx.TxOptions, fn func(ctx context.Context, tx postgresrepo.DB) error) error {
	r.calls++
	r.gotOpts = opts

	if err := fn(ctx, nil); err != nil {
		return err
	}
	return r.commitErr
}

func TestDo_RunsHooksAfterCommit(t *testing.T) {
	runner := &fakeRunner{}
	u := NewUoW(runner)

	var order []string

	err := u.Do(context.Background(), func(ctx context.Context, _ postgresrepo.DB, after func(AfterCommit)) error {
		order = append(order, "tx")
		after(func(context.Context) { order = append(order, "hook1") })
		after(func(context.Context) { order = append(order, "hook2") })
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"tx", "hook1", "hook2"}, order)
	assert.Nil(t, runner.gotOpts)
}

func TestDo_DropsHooksOnFailure(t *testing.T) {
	txErr := errors.New("boom")

	tests := []struct {
		name      string
		fnErr     error
		commitErr error
	}{
		{name: "fn fails", fnErr: txErr},
		{name: "commit fails", commitErr: txErr},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewUoW(&fakeRunner{commitErr: tt.commitErr})

			ran := false
			err := u.Do(context.Background(), func(ctx context.Context, _ postgresrepo.DB, after func(AfterCommit)) error {
				after(func(context.Context) { ran = true })
				return tt.fnErr
			})

			assert.ErrorIs(t, err, txErr)
			assert.False(t, ran)
		})
	}
}

func TestDoWithOpts_PassesOptions(t *testing.T) {
	runner := &fakeRunner{}
	u := NewUoW(runner)

	opts := &pgx.TxOptions{IsoLevel: pgx.ReadCommitted}

	err := u.DoWithOpts(context.Background(), opts, func(context.Context, postgresrepo.DB, func(AfterCommit)) error {
		return nil
	})

	require.NoError(t, err)
	assert.Same(t, opts, runner.gotOpts)
	assert.Equal(t, 1, runner.calls)
}

func TestDo_HooksSurviveCancelledContext(t *testing.T) {
	u := NewUoW(&fakeRunner{})

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)

	var hookErr error
	err := u.Do(ctx, func(ctx context.Context, _ postgresrepo.DB, after func(AfterCommit)) error {
		after(func(ctx context.Context) { hookErr = ctx.Err() })
		// request deadline fires between commit and hooks
		cancel()
		return nil
	})

	require.NoError(t, err)
	assert.NoError(t, hookErr)
}
