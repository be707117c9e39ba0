package dialqueue

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDialResultErrorEmpty(t *testing.T) {
	require.NoError(t, dialResultError(nil))
}

func TestDialResultErrorSingleIsBare(t *testing.T) {
	e := errors.New("boom")
	require.Same(t, e, dialResultError([]error{e}))
}

func TestDialResultErrorMultipleAggregates(t *testing.T) {
	e1 := errors.New("one")
	e2 := errors.New("two")

	err := dialResultError([]error{e1, e2})
	var agg *AggregateError
	require.ErrorAs(t, err, &agg)
	require.Len(t, agg.Errors, 2)
	require.ErrorIs(t, err, e1)
	require.ErrorIs(t, err, e2)
}

func TestTimeoutErrorUnwrap(t *testing.T) {
	cause := errors.New("deadline exceeded")
	err := &TimeoutError{Cause: cause}
	require.ErrorIs(t, err, cause)
}
