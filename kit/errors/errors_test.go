package errors_test

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/influxdata/stash/kit/errors"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain error", err: stderrors.New("boom"), want: "An internal error has occurred."},
		{name: "message", err: &errors.Error{Code: errors.EInvalid, Msg: "bad key"}, want: "bad key"},
		{
			name: "nested message",
			err:  &errors.Error{Op: "sqlite.SetItem", Err: &errors.Error{Code: errors.EInvalid, Msg: "bad key"}},
			want: "bad key",
		},
		{name: "no message", err: &errors.Error{Code: errors.EInternal}, want: "An internal error has occurred."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, errors.ErrorMessage(tt.err))
		})
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "plain error", err: stderrors.New("boom"), want: errors.EInternal},
		{name: "code", err: &errors.Error{Code: errors.EConflict}, want: errors.EConflict},
		{
			name: "code of wrapped error",
			err:  &errors.Error{Op: "nats.SetItem", Err: &errors.Error{Code: errors.EUnavailable}},
			want: errors.EUnavailable,
		},
		{
			name: "wrapped with fmt",
			err:  fmt.Errorf("prefix: %w", errors.Invalidf("bad")),
			want: errors.EInvalid,
		},
		{name: "no code", err: &errors.Error{Msg: "oops"}, want: errors.EInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, errors.ErrorCode(tt.err))
		})
	}
}

func TestErrorOp(t *testing.T) {
	inner := &errors.Error{Op: "postgres.GetItem", Code: errors.EUnavailable}
	require.Equal(t, "postgres.GetItem", errors.ErrorOp(inner))
	require.Equal(t, "postgres.GetItem", errors.ErrorOp(&errors.Error{Err: inner}))
	require.Equal(t, "outer", errors.ErrorOp(&errors.Error{Op: "outer", Err: inner}))
	require.Equal(t, "", errors.ErrorOp(stderrors.New("boom")))
}

func TestError_Error(t *testing.T) {
	cause := stderrors.New("connection refused")

	require.Equal(t, "<unavailable>", (&errors.Error{Code: errors.EUnavailable}).Error())
	require.Equal(t, "connection refused", (&errors.Error{Err: cause}).Error())
	require.Equal(t, "cannot connect: connection refused", errors.NewError(
		errors.WithErrorCode(errors.EUnavailable),
		errors.WithErrorMsg("cannot connect"),
		errors.WithErrorOp("mysql.Connect"),
		errors.WithErrorErr(cause),
	).Error())

	err := fmt.Errorf("wrapped: %w", &errors.Error{Code: errors.EUnavailable, Err: cause})
	require.ErrorIs(t, err, cause)
}

func TestError_JSON(t *testing.T) {
	err := &errors.Error{
		Code: errors.EConflict,
		Msg:  "item changed concurrently",
		Op:   "nats.SetExtra",
		Err: &errors.Error{
			Code: errors.EInternal,
			Err:  stderrors.New("wrong last sequence"),
		},
	}

	b, jerr := json.Marshal(err)
	require.NoError(t, jerr)
	require.JSONEq(t, `{
		"code": "conflict",
		"message": "item changed concurrently",
		"op": "nats.SetExtra",
		"error": {"code": "internal error", "error": "wrong last sequence"}
	}`, string(b))
}
